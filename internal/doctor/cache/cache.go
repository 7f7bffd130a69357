// Package cache holds the doctor directory snapshot that backs the list and
// dashboard views. Writes through the portal invalidate it.
package cache

import (
	"context"
	"sync"
	"time"

	"medix/internal/doctor/models"
)

// MemoryCache is a single-process TTL cache.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

type entry struct {
	doctors   []models.Doctor
	expiresAt time.Time
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		c.now = now
	}
}

func NewMemoryCache(ttl time.Duration, opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the cached snapshot for key.
func (c *MemoryCache) Get(_ context.Context, key string) ([]models.Doctor, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	out := make([]models.Doctor, len(e.doctors))
	copy(out, e.doctors)
	return out, true, nil
}

// Set stores a copy of doctors under key.
func (c *MemoryCache) Set(_ context.Context, key string, doctors []models.Doctor) error {
	stored := make([]models.Doctor, len(doctors))
	copy(stored, doctors)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{doctors: stored, expiresAt: c.now().Add(c.ttl)}
	return nil
}

// Invalidate drops every snapshot.
func (c *MemoryCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	return nil
}
