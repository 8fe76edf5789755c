// Package session holds the per-session table-set state collaborators: the
// StateStore port, a caching decorator and the cookie that carries the
// session id.
package session

import (
	"context"

	"yeargrid/internal/core"
)

// StateStore persists one TableSetState per session id.
type StateStore interface {
	// Load returns the stored state. ok is false when nothing is stored for id.
	Load(ctx context.Context, id string) (state core.State, ok bool, err error)
	Save(ctx context.Context, id string, state core.State) error
	Delete(ctx context.Context, id string) error
}

// Pinger is implemented by stores that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks store readiness when the store supports it.
func Ping(ctx context.Context, s StateStore) error {
	if p, ok := s.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
