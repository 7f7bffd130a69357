// Package recoverer is the page boundary for unexpected faults: a panic in any
// handler is logged once and replaced with a generic retryable response.
package recoverer

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"medix/pkg/platform/httputil"
	"medix/pkg/requestcontext"
)

// Response is the body written after a recovered panic.
type Response struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

// Middleware recovers panics raised further down the chain.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				ctx := r.Context()
				logger.ErrorContext(ctx, "recovered from panic",
					"request_id", requestcontext.RequestID(ctx),
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				httputil.WriteJSON(w, http.StatusInternalServerError, Response{
					Error:   "internal_error",
					Message: "Something went wrong",
					Retry:   true,
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
