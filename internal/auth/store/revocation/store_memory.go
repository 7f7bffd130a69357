// Package revocation records session token ids revoked at logout until the
// token would have expired anyway.
package revocation

import (
	"context"
	"sync"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

// InMemoryTRL is a process-local token revocation list.
type InMemoryTRL struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	clock   Clock
}

// InMemoryTRLOption configures an InMemoryTRL.
type InMemoryTRLOption func(*InMemoryTRL)

// WithClock injects the time source.
func WithClock(c Clock) InMemoryTRLOption {
	return func(t *InMemoryTRL) {
		if c != nil {
			t.clock = c
		}
	}
}

// NewInMemoryTRL creates an empty revocation list.
func NewInMemoryTRL(opts ...InMemoryTRLOption) *InMemoryTRL {
	t := &InMemoryTRL{revoked: make(map[string]time.Time), clock: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RevokeToken marks jti revoked for ttl. Expired entries are swept on write.
func (t *InMemoryTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock()
	for id, until := range t.revoked {
		if !now.Before(until) {
			delete(t.revoked, id)
		}
	}
	t.revoked[jti] = now.Add(ttl)
	return nil
}

// IsRevoked reports whether jti is revoked and not yet expired.
func (t *InMemoryTRL) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	until, ok := t.revoked[jti]
	return ok && t.clock().Before(until), nil
}
