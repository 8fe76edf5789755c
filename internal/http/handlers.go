package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"yeargrid/internal/core"
	"yeargrid/internal/export"
	"yeargrid/internal/log"
	"yeargrid/internal/session"
)

const (
	messageValid   = "Valid"
	messageInvalid = "Invalid"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the state store and every registered dependency.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, httpStatus := "ready", http.StatusOK
	checks := map[string]string{}
	record := func(name string, err error) {
		if err != nil {
			checks[name] = "failed: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
			return
		}
		checks[name] = "ok"
	}

	record("state_store", session.Ping(ctx, s.store))
	for name, check := range s.checks {
		record(name, check(ctx))
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":         status,
		"timestamp":      time.Now().Format(time.RFC3339),
		"checks":         checks,
		"active_clients": s.limiter.ActiveClients(),
		"rate_limited":   s.limiter.Hits(),
		"suspicious":     atomic.LoadInt64(&s.suspicious),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(ctx)

	g, err := s.grid.Grid(ctx, sid)
	if err != nil {
		s.fail(w, r, "Failed to load grid", err, log.OpLoad)
		return
	}
	s.render(w, r, "index.html", newPageView(g), NewHTMXResponse())
}

func (s *Server) handleAddTable(w http.ResponseWriter, r *http.Request) {
	s.applyCommand(w, r, core.Command{Kind: core.CommandAddTable})
}

func (s *Server) handleAddRow(w http.ResponseWriter, r *http.Request) {
	id, err := ParseTableID(chi.URLParam(r, "tableID"))
	if err != nil {
		BadRequestError("Malformed table id").Write(w)
		return
	}
	s.applyCommand(w, r, core.Command{Kind: core.CommandAddRow, Table: id})
}

// applyCommand runs a structural edit and re-renders the grid with the values
// posted alongside it.
func (s *Server) applyCommand(w http.ResponseWriter, r *http.Request, cmd core.Command) {
	sub, ok := s.parseSubmission(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	op, prefix := log.OpAddTable, "table"
	if cmd.Kind == core.CommandAddRow {
		op, prefix = log.OpAddRow, "row"
	}

	g, id, err := s.grid.Apply(ctx, sessionID(ctx), cmd)
	if errors.Is(err, core.ErrUnknownTable) {
		NotFoundError(fmt.Sprintf("Table %d does not exist", cmd.Table)).Write(w)
		return
	}
	if err != nil {
		s.fail(w, r, "Failed to change grid", err, op)
		return
	}

	state := fmt.Sprintf("%s:%d", prefix, id)
	s.renderPartial(w, r, newPageView(g.Fill(sub)), NewHTMXResponse().TriggerGridChanged(state))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sub, ok := s.parseSubmission(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	g, err := s.grid.Submit(ctx, sessionID(ctx), sub)
	if errors.Is(err, core.ErrInvalidSubmission) {
		msg := s.invalidMessage(err)
		s.renderPartial(w, r, newPageView(g).withMessage(NotificationError, msg), NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			TriggerErrorNotification(msg))
		return
	}
	if err != nil {
		s.fail(w, r, "Failed to submit grid", err, log.OpSubmit)
		return
	}

	s.renderPartial(w, r, newPageView(g).withMessage(NotificationSuccess, messageValid), NewHTMXResponse().
		TriggerSuccessNotification(messageValid).
		TriggerGridComputed(g.Year, len(g.Tables)))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	g, err := s.grid.Reset(ctx, sessionID(ctx))
	if err != nil {
		s.fail(w, r, "Failed to reset session", err, log.OpReset)
		return
	}
	s.renderPartial(w, r, newPageView(g), NewHTMXResponse().TriggerGridChanged("reset"))
}

// handleExport downloads the computed grid as a workbook. Invalid input is
// answered like a rejected submission.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sub, ok := s.parseSubmission(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	g, err := s.grid.Preview(ctx, sessionID(ctx), sub)
	if errors.Is(err, core.ErrInvalidSubmission) {
		msg := s.invalidMessage(err)
		s.renderPartial(w, r, newPageView(g).withMessage(NotificationError, msg), NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			TriggerErrorNotification(msg))
		return
	}
	if err != nil {
		s.fail(w, r, "Failed to compute export", err, log.OpExport)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, g); err != nil {
		s.fail(w, r, "Failed to write workbook", err, log.OpExport)
		return
	}
	log.FromContext(ctx).InfoContext(ctx, "Grid exported",
		log.FieldOperation, log.OpExport,
		log.FieldTableCount, len(g.Tables))

	NewHTMXResponse().
		Header("Content-Type", export.ContentType).
		Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(g))).
		Body(buf.Bytes()).
		Write(w)
}

func (s *Server) parseSubmission(w http.ResponseWriter, r *http.Request) (core.Submission, bool) {
	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return nil, false
	}
	sub, err := ParseSubmission(r.PostForm)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rejected form", log.FieldError, err.Error())
		BadRequestError("Malformed grid input").Write(w)
		return nil, false
	}
	return sub, true
}

func (s *Server) invalidMessage(err error) string {
	if !s.validationDetails {
		return messageInvalid
	}
	return messageInvalid + ": " + err.Error()
}

// renderPartial returns only the grid fragment to HTMX requests and the full
// page otherwise, so plain form posts keep working.
func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, v pageView, resp *HTMXResponseBuilder) {
	name := "index.html"
	if r.Header.Get("HX-Request") == "true" {
		name = "grid"
	}
	s.render(w, r, name, v, resp)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, v pageView, resp *HTMXResponseBuilder) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, v); err != nil {
		s.fail(w, r, "Template execution failed", err, log.OpRender)
		return
	}
	resp.BodyHTML(buf.Bytes()).Write(w)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	log.FromContext(r.Context()).LogError(r.Context(), msg, err, op, nil)
	InternalServerError("Something went wrong").Write(w)
}

func sessionID(ctx context.Context) string {
	id, _ := session.IDFrom(ctx)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
