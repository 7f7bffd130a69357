// Package httptransport assembles the chi router: the shared middleware chain,
// health endpoints, public auth routes and the session-gated API.
package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"medix/internal/platform/metrics"
	"medix/internal/ratelimit"
	authmw "medix/pkg/platform/middleware/auth"
	"medix/pkg/platform/middleware/metadata"
	"medix/pkg/platform/middleware/recoverer"
	"medix/pkg/platform/middleware/request"
	"medix/pkg/platform/middleware/requesttime"
)

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// Dependencies is everything the router needs from main.
type Dependencies struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Sessions authmw.SessionResolver
	// Limiter throttles public routes as ClassAuth and protected routes as
	// ClassAPI. Nil disables rate limiting.
	Limiter *ratelimit.Limiter
	// TrustedProxies may supply the client IP through X-Forwarded-For.
	TrustedProxies []netip.Prefix

	// Public handlers are reachable without a session (sign-in, sign-out).
	Public []Registrar
	// Protected handlers sit behind RequireSession.
	Protected []Registrar

	Readiness []ReadinessCheck
	// ExposeMetrics mounts the Prometheus handler on /metrics.
	ExposeMetrics bool
}

// NewRouter wires the middleware chain and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(request.RequestID)
	r.Use(metadata.NewResolver(deps.TrustedProxies).ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(deps.Logger))
	r.Use(recoverer.Middleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Latency)
	}

	r.Get("/healthz", handleLiveness)
	r.Get("/readyz", readinessHandler(deps.Logger, deps.Readiness))
	if deps.ExposeMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		if deps.Limiter != nil {
			r.Use(deps.Limiter.Middleware(ratelimit.ClassAuth))
		}
		for _, h := range deps.Public {
			h.Register(r)
		}
	})

	r.Group(func(r chi.Router) {
		if deps.Limiter != nil {
			r.Use(deps.Limiter.Middleware(ratelimit.ClassAPI))
		}
		r.Use(authmw.RequireSession(deps.Sessions, deps.Logger))
		for _, h := range deps.Protected {
			h.Register(r)
		}
	})

	return r
}
