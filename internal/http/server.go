package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"yeargrid/internal/cache"
	"yeargrid/internal/log"
	"yeargrid/internal/services"
	"yeargrid/internal/session"
	appweb "yeargrid/web"
)

// CheckFunc reports whether an optional dependency is ready.
type CheckFunc func(ctx context.Context) error

// Config holds the collaborators and tunables of the web server.
type Config struct {
	Addr    string
	Grid    *services.GridService
	Store   session.StateStore
	Cookies *session.Cookies
	// Checks are extra readiness probes keyed by name, e.g. "amqp".
	Checks map[string]CheckFunc

	RateLimitPerMinute int
	ValidationDetails  bool
	ShutdownTimeout    time.Duration
	Logger             *log.Logger
}

// Server serves the grid page and its HTMX partials.
type Server struct {
	http.Server
	grid      *services.GridService
	store     session.StateStore
	cookies   *session.Cookies
	checks    map[string]CheckFunc
	templates *template.Template
	limiter   *rateLimiter

	validationDetails bool
	shutdownTimeout   time.Duration
	started           time.Time
	suspicious        int64

	logger       *log.Logger
	securityLog  *log.Logger
	rateLimitLog *log.Logger
}

// NewServer parses the embedded templates and builds the router.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Grid == nil || cfg.Store == nil || cfg.Cookies == nil {
		return nil, errors.New("http server requires grid service, state store and cookies")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		grid:              cfg.Grid,
		store:             cfg.Store,
		cookies:           cfg.Cookies,
		checks:            cfg.Checks,
		templates:         t,
		limiter:           newRateLimiter(cfg.RateLimitPerMinute),
		validationDetails: cfg.ValidationDetails,
		shutdownTimeout:   cfg.ShutdownTimeout,
		started:           time.Now(),
		logger:            logger.WithComponent(log.ComponentHTTP),
		securityLog:       logger.WithComponent(log.ComponentSecurity),
		rateLimitLog:      logger.WithComponent(log.ComponentRateLimit),
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 10 * time.Second
	}

	handler, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		log.Middleware(s.logger, requestID, extractClientIP),
		middleware.Recoverer,
		s.securityHeaders,
	)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(static)))
	r.Get("/static/*", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(w, req)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit, s.withSession)

		r.Get("/", s.handleIndex)
		r.Post("/tables", s.handleAddTable)
		r.Post("/tables/{tableID}/rows", s.handleAddRow)
		r.Post("/submit", s.handleSubmit)
		r.Post("/reset", s.handleReset)
		r.Post("/export", s.handleExport)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		NotFoundError("Not found").Write(w)
	})
	return r, nil
}

// Serve runs the listener and the rate limiter janitor until ctx is done,
// then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)
	s.BaseContext = func(_ net.Listener) context.Context { return egctx }

	janitor := cache.NewJanitor(5*time.Minute, func(removed int) {
		s.rateLimitLog.Debug("Rate limiter cleanup completed", "clients_removed", removed)
	})
	janitor.Register(s.limiter)
	eg.Go(func() error { return janitor.Run(egctx) })

	eg.Go(func() error {
		s.logger.Info("HTTP server listening", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return eg.Wait()
}

// withSession binds the cookie session id to the request context and the
// request logger.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, fresh, err := s.cookies.ID(w, r)
		if err != nil {
			log.FromContext(ctx).LogError(ctx, "Session cookie error", err, log.OpLoad, nil)
			InternalServerError("Session unavailable").Write(w)
			return
		}

		logger := log.FromContext(ctx).With(log.FieldSessionID, id)
		if fresh {
			logger.DebugContext(ctx, "Session started")
		}
		ctx = log.NewContext(session.WithID(ctx, id), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
