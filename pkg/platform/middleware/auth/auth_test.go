package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medix/pkg/domain"
	dErrors "medix/pkg/domain-errors"
	"medix/pkg/requestcontext"
)

type stubResolver struct {
	session *Session
	err     error
	calls   int
}

func (s *stubResolver) Resolve(_ context.Context, _ string) (*Session, error) {
	s.calls++
	return s.session, s.err
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestRequireSession(t *testing.T) {
	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := requestcontext.Principal(r.Context())
		w.Header().Set("X-Admin", p.ID)
		w.Header().Set("X-Session", requestcontext.SessionID(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	t.Run("api request without token is 401 and never reaches resolver", func(t *testing.T) {
		resolver := &stubResolver{}
		h := RequireSession(resolver, newLogger())(protected)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/slmc/verify?regNo=1", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "unauthorized", body["error"])
		assert.Equal(t, "Your session has expired. Please sign in again.", body["error_description"])
		assert.Zero(t, resolver.calls)
	})

	t.Run("page request without token redirects to sign-in", func(t *testing.T) {
		h := RequireSession(&stubResolver{}, newLogger())(protected)

		req := httptest.NewRequest(http.MethodGet, "/doctors/new", nil)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?callbackUrl=%2Fdoctors%2Fnew", rec.Header().Get("Location"))
	})

	t.Run("invalid token is 401", func(t *testing.T) {
		resolver := &stubResolver{err: dErrors.New(dErrors.CodeUnauthorized, "invalid token")}
		h := RequireSession(resolver, newLogger())(protected)

		req := httptest.NewRequest(http.MethodGet, "/api/doctors", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("resolver outage is 500", func(t *testing.T) {
		resolver := &stubResolver{err: errors.New("redis: connection refused")}
		h := RequireSession(resolver, newLogger())(protected)

		req := httptest.NewRequest(http.MethodGet, "/api/doctors", nil)
		req.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("session store outage is 503", func(t *testing.T) {
		resolver := &stubResolver{err: dErrors.New(dErrors.CodeUnavailable, "session store unavailable")}
		h := RequireSession(resolver, newLogger())(protected)

		req := httptest.NewRequest(http.MethodGet, "/api/doctors", nil)
		req.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("cookie session populates context", func(t *testing.T) {
		resolver := &stubResolver{session: &Session{
			ID:        "jti-1",
			Principal: domain.Principal{ID: "admin-7", AccessToken: "backend"},
		}}
		h := RequireSession(resolver, newLogger())(protected)

		req := httptest.NewRequest(http.MethodGet, "/api/doctors", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "signed"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "admin-7", rec.Header().Get("X-Admin"))
		assert.Equal(t, "jti-1", rec.Header().Get("X-Session"))
	})
}
