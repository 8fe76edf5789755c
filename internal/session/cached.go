package session

import (
	"context"
	"time"

	"yeargrid/internal/cache"
	"yeargrid/internal/core"
)

// CachedStore is a read-through, write-through cache in front of a StateStore.
type CachedStore struct {
	next  StateStore
	cache *cache.LRUCache[core.State]
}

var (
	_ StateStore = (*CachedStore)(nil)
	_ Pinger     = (*CachedStore)(nil)
)

func NewCachedStore(next StateStore, size int, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, cache: cache.NewLRUCache[core.State](size, ttl)}
}

// Cache exposes the underlying cache so it can be registered with a janitor.
func (s *CachedStore) Cache() *cache.LRUCache[core.State] {
	return s.cache
}

func (s *CachedStore) Load(ctx context.Context, id string) (core.State, bool, error) {
	if st, ok := s.cache.Get(id); ok {
		return st, true, nil
	}
	st, ok, err := s.next.Load(ctx, id)
	if err != nil || !ok {
		return st, ok, err
	}
	s.cache.Set(id, st)
	return st, true, nil
}

// Save writes to the underlying store first. The cache entry is dropped when
// the write fails so a later Load does not serve a state that was never stored.
func (s *CachedStore) Save(ctx context.Context, id string, st core.State) error {
	if err := s.next.Save(ctx, id, st); err != nil {
		s.cache.Delete(id)
		return err
	}
	s.cache.Set(id, st)
	return nil
}

func (s *CachedStore) Delete(ctx context.Context, id string) error {
	s.cache.Delete(id)
	return s.next.Delete(ctx, id)
}

func (s *CachedStore) Ping(ctx context.Context) error {
	return Ping(ctx, s.next)
}
