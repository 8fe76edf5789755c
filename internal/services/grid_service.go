package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yeargrid/internal/amqp"
	"yeargrid/internal/core"
	"yeargrid/internal/log"
	"yeargrid/internal/session"
)

// ResultPublisher forwards accepted submissions downstream.
type ResultPublisher interface {
	PublishResult(ctx context.Context, msg *amqp.ResultMessage) error
}

// GridService runs structural commands and submissions against the
// per-session table-set state.
type GridService struct {
	store     session.StateStore
	publisher ResultPublisher
	now       func() time.Time
	logger    *log.Logger
}

type Option func(*GridService)

// WithPublisher enables result publishing. A nil publisher keeps it disabled.
func WithPublisher(p ResultPublisher) Option {
	return func(s *GridService) { s.publisher = p }
}

// WithClock replaces the time source used for year labels and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *GridService) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *GridService) { s.logger = l.WithComponent(log.ComponentGrid) }
}

func NewGridService(store session.StateStore, opts ...Option) *GridService {
	s := &GridService{
		store:  store,
		now:    time.Now,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the session state, creating and storing the initial state on
// first use.
func (s *GridService) State(ctx context.Context, sessionID string) (core.State, error) {
	st, ok, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return core.State{}, fmt.Errorf("load state: %w", err)
	}
	if ok && !st.IsZero() {
		return st, nil
	}

	st = core.InitialState()
	if err := s.store.Save(ctx, sessionID, st); err != nil {
		return core.State{}, fmt.Errorf("save initial state: %w", err)
	}
	s.logger.DebugContext(ctx, "Initialized session state", log.FieldSessionID, sessionID)
	return st, nil
}

// CurrentYear is the year labelling RowIndex 1.
func (s *GridService) CurrentYear() int {
	return s.now().Year()
}

// Grid builds the editable grid for the session.
func (s *GridService) Grid(ctx context.Context, sessionID string) (core.Grid, error) {
	st, err := s.State(ctx, sessionID)
	if err != nil {
		return core.Grid{}, err
	}
	return core.BuildGrid(st, s.CurrentYear()), nil
}

// Apply runs a structural command, saves the new state and returns the
// resulting grid with the table the command touched.
func (s *GridService) Apply(ctx context.Context, sessionID string, cmd core.Command) (core.Grid, core.TableID, error) {
	st, err := s.State(ctx, sessionID)
	if err != nil {
		return core.Grid{}, 0, err
	}

	next, id, err := core.Apply(st, cmd)
	if err != nil {
		return core.Grid{}, 0, err
	}
	if err := s.store.Save(ctx, sessionID, next); err != nil {
		return core.Grid{}, 0, fmt.Errorf("save state: %w", err)
	}

	rows, _ := next.RowCount(id)
	fields := log.NewFields().
		WithOperation(commandOp(cmd.Kind)).
		WithSession(sessionID, next.Key()).
		WithTable(int(id), rows)
	fields[log.FieldTableCount] = len(next.Tables())
	s.logger.InfoContext(ctx, "Grid changed", fields.ToSlice()...)
	return core.BuildGrid(next, s.CurrentYear()), id, nil
}

func commandOp(kind core.CommandKind) string {
	if kind == core.CommandAddRow {
		return log.OpAddRow
	}
	return log.OpAddTable
}

// Submit validates the submitted values against the session's grid. On
// success the returned grid carries results and they are published. On
// rejection the grid keeps the submitted values without results and the
// error matches core.ErrInvalidSubmission.
func (s *GridService) Submit(ctx context.Context, sessionID string, sub core.Submission) (core.Grid, error) {
	st, err := s.State(ctx, sessionID)
	if err != nil {
		return core.Grid{}, err
	}

	g, err := core.ValidateAndCompute(core.BuildGrid(st, s.CurrentYear()), sub)
	if err != nil {
		if errors.Is(err, core.ErrInvalidSubmission) {
			s.logger.InfoContext(ctx, "Submission rejected",
				log.FieldSessionID, sessionID,
				log.FieldErrorKind, core.Kind(err),
				log.FieldError, err.Error())
		}
		return g, err
	}

	s.logger.InfoContext(ctx, "Submission accepted",
		log.FieldSessionID, sessionID,
		log.FieldStateKey, st.Key())
	s.publish(ctx, sessionID, st, g)
	return g, nil
}

// Preview validates and computes a submission like Submit but never
// publishes. Export uses it so a download does not emit a second result.
func (s *GridService) Preview(ctx context.Context, sessionID string, sub core.Submission) (core.Grid, error) {
	g, err := s.Grid(ctx, sessionID)
	if err != nil {
		return core.Grid{}, err
	}
	return core.ValidateAndCompute(g, sub)
}

// Reset drops the session state. The next access starts from the initial state.
func (s *GridService) Reset(ctx context.Context, sessionID string) (core.Grid, error) {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return core.Grid{}, fmt.Errorf("delete state: %w", err)
	}
	s.logger.InfoContext(ctx, "Session reset", log.FieldSessionID, sessionID)
	return s.Grid(ctx, sessionID)
}

// Publish failures are logged and never fail the submission.
func (s *GridService) publish(ctx context.Context, sessionID string, st core.State, g core.Grid) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewResultMessage(sessionID, st.Key(), g, s.now())
	if err := s.publisher.PublishResult(ctx, msg); err != nil {
		s.logger.LogError(ctx, "Failed to publish result", err, log.OpPublish,
			log.NewFields().WithSession(sessionID, st.Key()))
	}
}
