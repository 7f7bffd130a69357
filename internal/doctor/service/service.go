package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"medix/internal/audit"
	"medix/internal/doctor/metrics"
	"medix/internal/doctor/models"
	"medix/internal/gateway"
	"medix/pkg/domain"
	"medix/pkg/requestcontext"
)

// Gateway is the backend API port.
type Gateway interface {
	Do(ctx context.Context, req gateway.Request, out any) error
}

// ListCache holds the directory snapshot behind the list and dashboard views.
type ListCache interface {
	Get(ctx context.Context, key string) ([]models.Doctor, bool, error)
	Set(ctx context.Context, key string, doctors []models.Doctor) error
	Invalidate(ctx context.Context) error
}

// AuditPublisher records admin actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const (
	snapshotPrefix = "all:"
	// directoryPageLimit is the page size used when loading the whole directory
	directoryPageLimit = 100
	// maxDirectoryPages bounds the snapshot load
	maxDirectoryPages = 50
)

// Service wraps the backend doctor resource and builds the directory views.
type Service struct {
	gateway Gateway
	cache   ListCache
	auditor AuditPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

// New creates a doctor Service. cache may be nil, in which case every view
// reads through to the backend.
func New(gw Gateway, cache ListCache, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		gateway: gw,
		cache:   cache,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func doctorPath(id domain.DoctorID) string {
	return "/doctor/" + url.PathEscape(id.String())
}

// List proxies GET /doctor.
func (s *Service) List(ctx context.Context, params models.ListParams) (*models.ListResponse, error) {
	query := url.Values{}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Search != "" {
		query.Set("search", params.Search)
	}

	var resp models.ListResponse
	err := s.gateway.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/doctor", Query: query}, &resp)
	s.record("list", err)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return &resp, nil
}

// Get proxies GET /doctor/{id}.
func (s *Service) Get(ctx context.Context, id domain.DoctorID) (*models.Doctor, error) {
	var doctor models.Doctor
	err := s.gateway.Do(ctx, gateway.Request{Method: http.MethodGet, Path: doctorPath(id)}, &doctor)
	s.record("get", err)
	if err != nil {
		return nil, fmt.Errorf("get doctor %s: %w", id, err)
	}
	return &doctor, nil
}

// Create proxies POST /doctor and invalidates the directory snapshot.
func (s *Service) Create(ctx context.Context, payload models.CreateDoctorPayload) (*models.Doctor, error) {
	var doctor models.Doctor
	err := s.gateway.Do(ctx, gateway.Request{Method: http.MethodPost, Path: "/doctor", Body: payload}, &doctor)
	s.record("create", err)
	if err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	s.invalidate(ctx)
	s.emit(ctx, audit.Event{Action: audit.ActionDoctorCreated, Subject: doctor.ID})
	return &doctor, nil
}

// Update proxies PATCH /doctor/{id}.
func (s *Service) Update(ctx context.Context, id domain.DoctorID, payload models.UpdateDoctorPayload) (*models.Doctor, error) {
	var doctor models.Doctor
	err := s.gateway.Do(ctx, gateway.Request{Method: http.MethodPatch, Path: doctorPath(id), Body: payload}, &doctor)
	s.record("update", err)
	if err != nil {
		return nil, fmt.Errorf("update doctor %s: %w", id, err)
	}
	s.invalidate(ctx)
	s.emit(ctx, audit.Event{Action: audit.ActionDoctorUpdated, Subject: id.String()})
	return &doctor, nil
}

// Delete proxies DELETE /doctor/{id}.
func (s *Service) Delete(ctx context.Context, id domain.DoctorID) error {
	err := s.gateway.Do(ctx, gateway.Request{Method: http.MethodDelete, Path: doctorPath(id)}, nil)
	s.record("delete", err)
	if err != nil {
		return fmt.Errorf("delete doctor %s: %w", id, err)
	}
	s.invalidate(ctx)
	s.emit(ctx, audit.Event{Action: audit.ActionDoctorDeleted, Subject: id.String()})
	return nil
}

// verifyBody is the backend's verify sub-resource payload.
type verifyBody struct {
	Verify bool `json:"verify"`
}

// Verify marks the doctor verified and returns the refreshed record. If the
// backend answers without a body the record is fetched again.
func (s *Service) Verify(ctx context.Context, id domain.DoctorID) (*models.Doctor, error) {
	var doctor models.Doctor
	err := s.gateway.Do(ctx, gateway.Request{Method: http.MethodPut, Path: doctorPath(id), Body: verifyBody{Verify: true}}, &doctor)
	s.record("verify", err)
	if err != nil {
		return nil, fmt.Errorf("verify doctor %s: %w", id, err)
	}
	s.invalidate(ctx)
	s.emit(ctx, audit.Event{Action: audit.ActionDoctorVerified, Subject: id.String()})

	if doctor.ID == "" {
		return s.Get(ctx, id)
	}
	return &doctor, nil
}

// snapshotKey scopes the directory snapshot to the caller's backend token, so
// a snapshot is only served to a session the backend already accepted.
func snapshotKey(ctx context.Context) string {
	sum := sha256.Sum256([]byte(requestcontext.AccessToken(ctx)))
	return snapshotPrefix + hex.EncodeToString(sum[:])
}

// Directory returns every doctor, from the snapshot cache when warm.
func (s *Service) Directory(ctx context.Context) ([]models.Doctor, error) {
	key := snapshotKey(ctx)
	if s.cache != nil {
		doctors, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.metrics.IncrementCacheLookup("error")
			s.logger.WarnContext(ctx, "doctor cache read failed", "error", err)
		case ok:
			s.metrics.IncrementCacheLookup("hit")
			return doctors, nil
		default:
			s.metrics.IncrementCacheLookup("miss")
		}
	}

	doctors, err := s.loadDirectory(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, doctors); err != nil {
			s.logger.WarnContext(ctx, "doctor cache write failed", "error", err)
		}
	}
	return doctors, nil
}

func (s *Service) loadDirectory(ctx context.Context) ([]models.Doctor, error) {
	var all []models.Doctor
	for page := 1; page <= maxDirectoryPages; page++ {
		resp, err := s.List(ctx, models.ListParams{Page: page, Limit: directoryPageLimit})
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Data...)
		if len(resp.Data) == 0 || page >= resp.TotalPages {
			break
		}
	}
	return all, nil
}

// ListView builds the directory table for q.
func (s *Service) ListView(ctx context.Context, q models.ListQuery) (*models.ListView, error) {
	doctors, err := s.Directory(ctx)
	if err != nil {
		return nil, err
	}
	view := BuildListView(doctors, q)
	return &view, nil
}

// Detail builds the detail screen for one doctor.
func (s *Service) Detail(ctx context.Context, id domain.DoctorID) (*models.DetailView, error) {
	doctor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := BuildDetailView(*doctor)
	return &view, nil
}

// Dashboard builds the overview statistics. A backend failure yields an empty
// dashboard, as the overview screen has nothing better to show.
func (s *Service) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	doctors, err := s.Directory(ctx)
	if err != nil {
		if errors.Is(err, gateway.ErrTransport) || isAPIError(err) {
			s.logger.WarnContext(ctx, "dashboard falling back to empty directory", "error", err)
			doctors = nil
		} else {
			return nil, err
		}
	}
	dash := BuildDashboard(doctors)
	return &dash, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "doctor cache invalidation failed", "error", err)
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}

func (s *Service) record(op string, err error) {
	switch {
	case err == nil:
		s.metrics.IncrementOperation(op, "ok")
	case errors.Is(err, gateway.ErrTransport):
		s.metrics.IncrementOperation(op, "transport_error")
	default:
		s.metrics.IncrementOperation(op, "api_error")
	}
}

func isAPIError(err error) bool {
	var apiErr *gateway.APIError
	return errors.As(err, &apiErr)
}
