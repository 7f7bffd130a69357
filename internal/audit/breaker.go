package audit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// BreakerSink sends events to a primary sink and switches to a fallback after
// threshold consecutive primary failures. While open, the primary is skipped
// until cooldown has passed; the next event then probes it again.
type BreakerSink struct {
	primary  Sink
	fallback Sink

	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu        sync.Mutex
	failures  int
	openUntil time.Time
}

// NewBreakerSink wraps primary. Non-positive threshold and cooldown default to
// 5 failures and one minute.
func NewBreakerSink(primary, fallback Sink, threshold int, cooldown time.Duration) *BreakerSink {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &BreakerSink{
		primary:   primary,
		fallback:  fallback,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

func (b *BreakerSink) Write(ctx context.Context, e Event) error {
	if !b.allow() {
		return b.fallback.Write(ctx, e)
	}
	err := b.primary.Write(ctx, e)
	b.record(err)
	if err != nil {
		if fbErr := b.fallback.Write(ctx, e); fbErr != nil {
			return fmt.Errorf("primary: %w; fallback: %w", err, fbErr)
		}
	}
	return nil
}

// Open reports whether the primary is currently skipped.
func (b *BreakerSink) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures >= b.threshold && b.now().Before(b.openUntil)
}

func (b *BreakerSink) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures < b.threshold || !b.now().Before(b.openUntil)
}

func (b *BreakerSink) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.threshold {
		b.openUntil = b.now().Add(b.cooldown)
	}
}
