package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"medix/internal/audit"
	"medix/internal/registry"
	"medix/pkg/platform/httputil"
	"medix/pkg/requestcontext"
)

// Verifier runs a registry lookup.
type Verifier interface {
	Verify(ctx context.Context, regNo string) (registry.Result, error)
}

// AuditPublisher records registry lookups.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Handler exposes the registry lookup to signed-in admins.
type Handler struct {
	verifier Verifier
	auditor  AuditPublisher
	logger   *slog.Logger
}

// New creates a registry Handler. auditor may be nil.
func New(verifier Verifier, auditor AuditPublisher, logger *slog.Logger) *Handler {
	return &Handler{verifier: verifier, auditor: auditor, logger: logger}
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/slmc/verify", h.handleVerify)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regNo := strings.TrimSpace(r.URL.Query().Get("regNo"))
	if regNo == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, registry.Result{Valid: false, Error: registry.MsgRequired})
		return
	}

	result, err := h.verifier.Verify(ctx, regNo)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, registry.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		h.logger.ErrorContext(ctx, "registry verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteJSON(w, status, registry.Result{Valid: false, Error: registry.Message(err)})
		return
	}

	h.emit(ctx, regNo, result)
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) emit(ctx context.Context, regNo string, result registry.Result) {
	if h.auditor == nil {
		return
	}
	reason := "valid"
	if !result.Valid {
		reason = result.Error
	}
	if err := h.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionRegistryLookup,
		Subject: regNo,
		Reason:  reason,
	}); err != nil {
		h.logger.WarnContext(ctx, "failed to emit registry audit event",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}
