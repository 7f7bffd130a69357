package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"medix/internal/doctor/models"
	"medix/internal/doctor/validation"
	"medix/internal/gateway"
	"medix/internal/notify"
	"medix/pkg/domain"
	dErrors "medix/pkg/domain-errors"
	"medix/pkg/platform/httputil"
	"medix/pkg/requestcontext"
)

// CreatedRedirect is the list page the create form returns to.
const CreatedRedirect = "/doctors?created=true"

// Service defines the interface for doctor operations.
type Service interface {
	ListView(ctx context.Context, q models.ListQuery) (*models.ListView, error)
	Detail(ctx context.Context, id domain.DoctorID) (*models.DetailView, error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	Create(ctx context.Context, payload models.CreateDoctorPayload) (*models.Doctor, error)
	Update(ctx context.Context, id domain.DoctorID, payload models.UpdateDoctorPayload) (*models.Doctor, error)
	Delete(ctx context.Context, id domain.DoctorID) error
	Verify(ctx context.Context, id domain.DoctorID) (*models.Doctor, error)
}

// Handler serves the doctor directory endpoints. It must be mounted behind
// the session middleware.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a new doctor Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the doctor routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/doctors", h.handleList)
	r.Post("/api/doctors", h.handleCreate)
	r.Get("/api/doctors/{id}", h.handleDetail)
	r.Patch("/api/doctors/{id}", h.handleUpdate)
	r.Delete("/api/doctors/{id}", h.handleDelete)
	r.Put("/api/doctors/{id}/verify", h.handleVerify)
	r.Get("/api/dashboard", h.handleDashboard)
}

type messageResponse struct {
	Message      string                 `json:"message"`
	Errors       validation.FieldErrors `json:"errors,omitempty"`
	Retry        bool                   `json:"retry,omitempty"`
	Notification *notify.Toast          `json:"notification,omitempty"`
}

type doctorResponse struct {
	models.Doctor
	Notification *notify.Toast `json:"notification,omitempty"`
}

type deleteResponse struct {
	ID           string        `json:"id"`
	Deleted      bool          `json:"deleted"`
	Notification *notify.Toast `json:"notification,omitempty"`
}

func toast(n notify.Notification) *notify.Toast {
	t := notify.Render(n)
	return &t
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := parseListQuery(r)

	view, err := h.service.ListView(ctx, q)
	if err != nil {
		h.writeBackendError(ctx, w, err, "Failed to load doctors", "")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func parseListQuery(r *http.Request) models.ListQuery {
	values := r.URL.Query()
	page, _ := strconv.Atoi(values.Get("page"))
	pageSize, _ := strconv.Atoi(values.Get("pageSize"))
	return models.ListQuery{
		Filter:   models.Filter(values.Get("filter")),
		Search:   values.Get("q"),
		Sort:     models.SortColumn(values.Get("sort")),
		Desc:     strings.EqualFold(values.Get("dir"), "desc"),
		Page:     page,
		PageSize: pageSize,
	}
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseDoctorID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.service.Detail(ctx, id)
	if err != nil {
		if gateway.IsNotFound(err) {
			httputil.WriteJSON(w, http.StatusNotFound, messageResponse{Message: dErrors.UserMessage(dErrors.CodeNotFound)})
			return
		}
		h.writeBackendError(ctx, w, err, "Failed to load doctor", "")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	input, ok := httputil.DecodeJSON[validation.DoctorInput](w, r, h.logger)
	if !ok {
		return
	}

	payload, fieldErrs := validation.ValidateCreate(*input)
	if !fieldErrs.Empty() {
		h.logger.InfoContext(ctx, "create doctor rejected by validation",
			"request_id", requestcontext.RequestID(ctx),
			"fields", len(fieldErrs),
		)
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, messageResponse{
			Message: validation.FormMessage,
			Errors:  fieldErrs,
		})
		return
	}

	doctor, err := h.service.Create(ctx, payload)
	if err != nil {
		h.writeBackendError(ctx, w, err, "Failed to create doctor", "Creation Failed")
		return
	}

	w.Header().Set("Location", CreatedRedirect)
	httputil.WriteJSON(w, http.StatusCreated, doctorResponse{
		Doctor:       *doctor,
		Notification: toast(notify.Success("Doctor Created", fmt.Sprintf("%s has been successfully registered.", payload.FullName))),
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseDoctorID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	doctor, err := h.service.Verify(ctx, id)
	if err != nil {
		h.writeBackendError(ctx, w, err, "Failed to verify doctor", "Verification Failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, doctorResponse{
		Doctor:       *doctor,
		Notification: toast(notify.Success("Doctor Verified", fmt.Sprintf("%s has been successfully verified.", displayName(doctor)))),
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseDoctorID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	patch, ok := httputil.DecodeJSON[validation.DoctorPatch](w, r, h.logger)
	if !ok {
		return
	}

	payload, fieldErrs := validation.ValidateUpdate(*patch)
	if !fieldErrs.Empty() {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, messageResponse{
			Message: validation.FormMessage,
			Errors:  fieldErrs,
		})
		return
	}

	doctor, err := h.service.Update(ctx, id, payload)
	if err != nil {
		h.writeBackendError(ctx, w, err, "Failed to update doctor", "Update Failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doctorResponse{
		Doctor:       *doctor,
		Notification: toast(notify.Success("Doctor Updated", fmt.Sprintf("%s has been updated.", displayName(doctor)))),
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseDoctorID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		h.writeBackendError(ctx, w, err, "Failed to delete doctor", "Deletion Failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, deleteResponse{
		ID:           id.String(),
		Deleted:      true,
		Notification: toast(notify.Success("Doctor Deleted", "The doctor record has been removed.")),
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dash, err := h.service.Dashboard(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build dashboard",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build dashboard"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dash)
}

// writeBackendError forwards a backend failure with its status and message.
// A non-empty title attaches a destructive notification.
func (h *Handler) writeBackendError(ctx context.Context, w http.ResponseWriter, err error, fallback, title string) {
	requestID := requestcontext.RequestID(ctx)

	status := http.StatusInternalServerError
	resp := messageResponse{Message: "Internal server error"}

	var apiErr *gateway.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Status
		resp.Message = apiErr.Message()
		if resp.Message == "" {
			resp.Message = fallback
		}
		if status == http.StatusUnauthorized {
			resp.Message = dErrors.UserMessage(dErrors.CodeUnauthorized)
		}
		h.logger.WarnContext(ctx, "backend rejected doctor operation",
			"request_id", requestID,
			"status", status,
			"error", err,
		)
	case errors.Is(err, gateway.ErrTransport):
		status = http.StatusBadGateway
		resp.Message = "Unable to reach the doctor service. Please try again."
		resp.Retry = true
		h.logger.ErrorContext(ctx, "doctor backend unreachable",
			"request_id", requestID,
			"error", err,
		)
	default:
		h.logger.ErrorContext(ctx, "doctor operation failed",
			"request_id", requestID,
			"error", err,
		)
	}

	if title != "" {
		resp.Notification = toast(notify.Failure(title, resp.Message))
	}
	httputil.WriteJSON(w, status, resp)
}

func displayName(d *models.Doctor) string {
	if d.FullName != "" {
		return d.FullName
	}
	return "The doctor"
}
