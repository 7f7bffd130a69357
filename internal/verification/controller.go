// Package verification drives registry lookups from a live input field.
//
// A Controller debounces edits, runs at most one meaningful lookup at a time
// and exposes the result as a small state machine:
//
//	idle -> loading -> valid | invalid
//
// Any state returns to idle on Reset or when the input is cleared. Starting a
// lookup cancels the previous one, and a result is only applied when it
// belongs to the current generation.
package verification

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"medix/internal/registry"
)

// DefaultDebounce is the quiet period after the last edit before a lookup starts.
const DefaultDebounce = 800 * time.Millisecond

// Status is the visible verification state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
)

// Verifier runs one registry lookup. A non-nil error is an operational fault;
// business outcomes are reported through the Result.
type Verifier interface {
	Verify(ctx context.Context, regNo string) (registry.Result, error)
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	Status       Status                 `json:"status"`
	Input        string                 `json:"input"`
	Practitioner *registry.Practitioner `json:"practitioner,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// Timer is the part of *time.Timer the controller uses.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc is the default.
type AfterFunc func(d time.Duration, f func()) Timer

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce sets the debounce window. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithAfterFunc replaces the timer source.
func WithAfterFunc(f AfterFunc) Option {
	return func(c *Controller) {
		if f != nil {
			c.afterFunc = f
		}
	}
}

// WithLogger sets the logger for lookup faults.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller owns the verification state for one input field. All methods are
// safe for concurrent use.
type Controller struct {
	verifier  Verifier
	debounce  time.Duration
	afterFunc AfterFunc
	logger    *slog.Logger
	base      context.Context

	mu           sync.Mutex
	onChange     func(Snapshot)
	input        string
	status       Status
	practitioner *registry.Practitioner
	errMsg       string

	// lastVerified is the value of the current or most recent lookup.
	// settled holds that lookup's outcome once it has completed.
	lastVerified string
	settled      *Snapshot

	timer      Timer
	timerSeq   uint64
	generation uint64
	cancel     context.CancelFunc
	inflight   sync.WaitGroup
	closed     bool
}

// NewController creates an idle Controller. Lookups run under ctx, so request
// scoped values (principal, request id) reach the Verifier.
func NewController(ctx context.Context, verifier Verifier, opts ...Option) *Controller {
	c := &Controller{
		verifier: verifier,
		debounce: DefaultDebounce,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		logger: slog.Default(),
		base:   context.WithoutCancel(ctx),
		status: StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange registers fn to receive a snapshot after every state change. fn is
// called with the controller locked and must not call back into it.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SetInput records an edit. Editing back to the value that was last verified
// restores its outcome without a new lookup.
func (c *Controller) SetInput(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.input = value
	c.stopTimerLocked()

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		c.resetLocked()
		return
	}

	if trimmed == c.lastVerified {
		if c.settled != nil {
			c.status = c.settled.Status
			c.practitioner = c.settled.Practitioner
			c.errMsg = c.settled.Error
		} else {
			// Its lookup is still running; it is only cancelled once a
			// lookup for a different value starts.
			c.status = StatusLoading
			c.practitioner = nil
			c.errMsg = ""
		}
		c.notifyLocked()
		return
	}

	c.status = StatusIdle
	c.practitioner = nil
	c.errMsg = ""
	c.notifyLocked()

	c.timerSeq++
	seq := c.timerSeq
	c.timer = c.afterFunc(c.debounce, func() {
		c.fire(seq, trimmed)
	})
}

// Retry looks the current input up immediately, even if it was verified before.
func (c *Controller) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopTimerLocked()
	trimmed := strings.TrimSpace(c.input)
	if trimmed == "" {
		return
	}
	c.lastVerified = ""
	c.startLocked(trimmed)
}

// Reset cancels any pending or in-flight lookup and returns to idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopTimerLocked()
	c.resetLocked()
}

// Close cancels pending work and waits for the in-flight lookup to return.
// Later calls on the Controller are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.cancelLocked()
	c.onChange = nil
	c.mu.Unlock()

	c.inflight.Wait()
}

func (c *Controller) fire(seq uint64, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.timerSeq {
		return
	}
	c.timer = nil
	if value == c.lastVerified {
		return
	}
	c.startLocked(value)
}

func (c *Controller) startLocked(value string) {
	c.cancelLocked()
	c.generation++
	gen := c.generation

	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	c.lastVerified = value
	c.settled = nil
	c.status = StatusLoading
	c.practitioner = nil
	c.errMsg = ""
	c.notifyLocked()

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		result, err := c.verifier.Verify(ctx, value)
		c.apply(ctx, gen, value, result, err)
	}()
}

func (c *Controller) apply(ctx context.Context, gen uint64, value string, result registry.Result, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.generation || ctx.Err() != nil {
		return
	}
	c.cancelLocked()

	outcome := Snapshot{Input: value}
	switch {
	case err != nil:
		c.logger.WarnContext(ctx, "registry verification failed",
			"reg_no", value,
			"error", err,
		)
		outcome.Status = StatusInvalid
		outcome.Error = registry.MsgRetry
		// Faults are not remembered, so re-entering the value tries again.
		c.lastVerified = ""
	case result.Valid:
		outcome.Status = StatusValid
		outcome.Practitioner = result.Practitioner
	default:
		outcome.Status = StatusInvalid
		outcome.Error = result.Error
	}
	if c.lastVerified != "" {
		c.settled = &outcome
	}

	// The input may have moved on while the lookup ran; the outcome is then
	// kept for a later edit back to value.
	if strings.TrimSpace(c.input) != value {
		return
	}
	c.status = outcome.Status
	c.practitioner = outcome.Practitioner
	c.errMsg = outcome.Error
	c.notifyLocked()
}

func (c *Controller) resetLocked() {
	c.cancelLocked()
	c.status = StatusIdle
	c.practitioner = nil
	c.errMsg = ""
	c.lastVerified = ""
	c.settled = nil
	c.notifyLocked()
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	// Invalidate a callback that already fired and is waiting on the lock.
	c.timerSeq++
}

func (c *Controller) cancelLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Status:       c.status,
		Input:        c.input,
		Practitioner: c.practitioner,
		Error:        c.errMsg,
	}
}

func (c *Controller) notifyLocked() {
	if c.onChange != nil {
		c.onChange(c.snapshotLocked())
	}
}
