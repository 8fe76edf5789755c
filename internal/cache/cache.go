// Package cache holds the in-process LRU+TTL cache used in front of state stores.
package cache

import (
	"context"
	"time"
)

// Cache is a keyed store with best-effort retention.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Len() int
}

// Cleaner is implemented by caches that can drop expired entries on demand.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically sweeps registered caches until its context is done.
type Janitor struct {
	caches   []Cleaner
	interval time.Duration
	onSweep  func(removed int)
}

// NewJanitor creates a janitor. onSweep, if non-nil, is called after every
// sweep that removed at least one entry.
func NewJanitor(interval time.Duration, onSweep func(removed int)) *Janitor {
	return &Janitor{interval: interval, onSweep: onSweep}
}

// Register adds a cache to the sweep list. Not safe to call once Run started.
func (j *Janitor) Register(c Cleaner) {
	j.caches = append(j.caches, c)
}

// Run blocks, sweeping every interval, and returns nil when ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := j.Sweep(); removed > 0 && j.onSweep != nil {
				j.onSweep(removed)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Sweep cleans every registered cache once and returns the number of entries removed.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}
