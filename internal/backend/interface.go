package backend

import (
	"context"
	"time"

	"yeargrid/internal/session"
)

// CleanupFunc releases resources held by a backend
type CleanupFunc func() error

// Result contains the state store and its lifecycle hooks
type Result struct {
	Store session.StateStore
	// Maintain runs background upkeep (cache sweeps, stale session purge)
	// until ctx is done.
	Maintain func(ctx context.Context) error
	Cleanup  CleanupFunc
}

// Factory creates state stores based on configuration
type Factory interface {
	CreateStateStore(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for state store creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Cache in front of the store, disabled when CacheSize is 0
	CacheSize int
	CacheTTL  time.Duration

	// Sessions untouched for longer than MaxAge are purged
	MaxAge        time.Duration
	SweepInterval time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	for _, t := range GetBackendTypes() {
		if bt == t {
			return true
		}
	}
	return false
}
