package backend

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"yeargrid/internal/cache"
	"yeargrid/internal/log"
	"yeargrid/internal/session"
	"yeargrid/internal/session/memory"
	"yeargrid/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateStateStore implements Factory.CreateStateStore
func (f *DefaultFactory) CreateStateStore(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *Result
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		res = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.CacheSize > 0 {
		cached := session.NewCachedStore(res.Store, config.CacheSize, config.CacheTTL)
		res.Store = cached
		res.addSweep(cached.Cache(), f.logger, config.SweepInterval)
		f.logger.Info("State cache enabled", "size", config.CacheSize, "ttl", config.CacheTTL.String())
	}
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*Result, error) {
	store, err := storage.OpenStateStore(ctx, config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite state store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	interval := config.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Result{
		Store: store,
		Maintain: func(ctx context.Context) error {
			if config.MaxAge <= 0 {
				<-ctx.Done()
				return nil
			}
			return purgeLoop(ctx, store, config.MaxAge, interval, f.logger)
		},
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() *Result {
	f.logger.Info("Initialized memory backend")
	return &Result{
		Store: memory.New(),
		Maintain: func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		},
	}
}

// addSweep chains a cache janitor onto the existing Maintain hook.
func (r *Result) addSweep(c cache.Cleaner, logger *log.Logger, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	janitor := cache.NewJanitor(interval, func(removed int) {
		logger.Debug("Swept expired state cache entries", "removed", removed)
	})
	janitor.Register(c)

	inner := r.Maintain
	r.Maintain = func(ctx context.Context) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return janitor.Run(ctx) })
		if inner != nil {
			g.Go(func() error { return inner(ctx) })
		}
		return g.Wait()
	}
}

func purgeLoop(ctx context.Context, store *storage.StateStore, maxAge, interval time.Duration, logger *log.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			removed, err := store.PurgeBefore(ctx, now.Add(-maxAge))
			if err != nil {
				logger.Warn("Failed to purge stale sessions", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("Purged stale sessions", "removed", removed)
			}
		}
	}
}
