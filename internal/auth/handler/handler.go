package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medix/internal/auth/models"
	dErrors "medix/pkg/domain-errors"
	"medix/pkg/platform/httputil"
	authmw "medix/pkg/platform/middleware/auth"
	"medix/pkg/requestcontext"
)

// Service defines the interface for admin session operations.
type Service interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)
	Logout(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string) (*authmw.Session, error)
	ExpiresAt(ctx context.Context, token string) (time.Time, bool)
}

// Handler serves sign-in, sign-out and session lookup.
type Handler struct {
	service      Service
	logger       *slog.Logger
	cookieSecure bool
}

// New creates an auth Handler. cookieSecure marks the session cookie Secure.
func New(service Service, logger *slog.Logger, cookieSecure bool) *Handler {
	return &Handler{service: service, logger: logger, cookieSecure: cookieSecure}
}

// Register registers the auth routes with the chi router. None of them sit
// behind the session middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/auth/login", h.handleLogin)
	r.Post("/api/auth/logout", h.handleLogout)
	r.Get("/api/auth/session", h.handleSession)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[models.LoginRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.Login(ctx, *req)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "sign-in failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	h.setCookie(w, result.Token, result.ExpiresAt)
	expiresAt := result.ExpiresAt
	httputil.WriteJSON(w, http.StatusOK, models.SessionResponse{
		Admin:     models.AdminFrom(result.Principal),
		ExpiresAt: &expiresAt,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Logout(ctx, authmw.TokenFromRequest(r)); err != nil {
		h.logger.ErrorContext(ctx, "sign-out failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tok := authmw.TokenFromRequest(r)
	if tok == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, dErrors.UserMessage(dErrors.CodeUnauthorized)))
		return
	}

	session, err := h.service.Resolve(ctx, tok)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			h.clearCookie(w)
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, dErrors.UserMessage(dErrors.CodeUnauthorized)))
			return
		}
		h.logger.ErrorContext(ctx, "failed to resolve session",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := models.SessionResponse{Admin: models.AdminFrom(session.Principal)}
	if exp, ok := h.service.ExpiresAt(ctx, tok); ok {
		resp.ExpiresAt = &exp
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) setCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     authmw.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authmw.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
