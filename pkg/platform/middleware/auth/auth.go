package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"medix/pkg/domain"
	dErrors "medix/pkg/domain-errors"
	"medix/pkg/requestcontext"
)

// CookieName carries the session token for browser requests.
const CookieName = "medix_session"

// LoginPath is where unauthenticated page requests are sent.
const LoginPath = "/login"

// Session is what a resolver hands back for a valid token.
type Session struct {
	ID        string
	Principal domain.Principal
}

// SessionResolver validates a session token and checks it was not revoked.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*Session, error)
}

// TokenFromRequest reads the session token from the Authorization header or
// the session cookie, in that order.
func TokenFromRequest(r *http.Request) string {
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// wantsHTML reports whether the caller is a browser navigating to a page.
func wantsHTML(r *http.Request) bool {
	return !strings.HasPrefix(r.URL.Path, "/api/") && strings.Contains(r.Header.Get("Accept"), "text/html")
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

func deny(w http.ResponseWriter, r *http.Request) {
	if wantsHTML(r) {
		target := LoginPath + "?callbackUrl=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	writeJSONError(w, http.StatusUnauthorized, string(dErrors.CodeUnauthorized), dErrors.UserMessage(dErrors.CodeUnauthorized))
}

// RequireSession resolves the session before any protected handler runs.
// Page requests without a session are redirected to sign-in; API requests get 401.
func RequireSession(resolver SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token := TokenFromRequest(r)
			if token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing session",
					"request_id", requestID,
					"path", r.URL.Path,
				)
				deny(w, r)
				return
			}

			session, err := resolver.Resolve(ctx, token)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
					logger.WarnContext(ctx, "unauthorized access - invalid session",
						"error", err,
						"request_id", requestID,
					)
					deny(w, r)
					return
				}
				logger.ErrorContext(ctx, "failed to resolve session",
					"error", err,
					"request_id", requestID,
				)
				code := dErrors.CodeInternal
				if dErrors.HasCode(err, dErrors.CodeUnavailable) {
					code = dErrors.CodeUnavailable
				}
				writeJSONError(w, dErrors.ToHTTPStatus(code), string(code), "Failed to validate session")
				return
			}

			ctx = requestcontext.WithPrincipal(ctx, session.Principal)
			ctx = requestcontext.WithSessionID(ctx, session.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
