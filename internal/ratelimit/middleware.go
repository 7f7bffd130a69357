package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"medix/internal/ratelimit/metrics"
	"medix/pkg/platform/httputil"
	"medix/pkg/requestcontext"
)

// Store counts requests per key.
type Store interface {
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// Limiter builds per-class middleware over one Store.
type Limiter struct {
	store   Store
	limits  map[EndpointClass]Limit
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithMetrics records allowed and rejected checks.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

// NewLimiter creates a Limiter. Classes missing from limits are not throttled.
func NewLimiter(store Store, limits map[EndpointClass]Limit, logger *slog.Logger, opts ...Option) *Limiter {
	l := &Limiter{store: store, limits: limits, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Middleware throttles by client IP. Store failures let the request through.
func (l *Limiter) Middleware(class EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limit, ok := l.limits[class]
		if !ok || limit.Requests <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)

			result, err := l.store.Allow(ctx, string(class)+":"+ip, limit)
			if err != nil {
				l.logger.ErrorContext(ctx, "failed to check rate limit",
					"request_id", requestcontext.RequestID(ctx),
					"class", class,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			addHeaders(w, result)
			if !result.Allowed {
				l.metrics.IncrementRejected(string(class))
				l.logger.WarnContext(ctx, "rate limit exceeded",
					"request_id", requestcontext.RequestID(ctx),
					"class", class,
					"client_ip", ip,
				)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, ExceededResponse{
					Error:      "rate_limit_exceeded",
					Message:    "Too many requests. Please wait a moment and try again.",
					RetryAfter: result.RetryAfter,
				})
				return
			}
			l.metrics.IncrementAllowed(string(class))
			next.ServeHTTP(w, r)
		})
	}
}

func addHeaders(w http.ResponseWriter, result *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
