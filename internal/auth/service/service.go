// Package service signs admins in and out and resolves session tokens for the
// session middleware.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"medix/internal/audit"
	"medix/internal/auth/metrics"
	"medix/internal/auth/models"
	"medix/internal/auth/token"
	"medix/internal/gateway"
	"medix/pkg/domain"
	dErrors "medix/pkg/domain-errors"
	"medix/pkg/email"
	authmw "medix/pkg/platform/middleware/auth"
	"medix/pkg/platform/sentinel"
	"medix/pkg/requestcontext"
)

// LoginPath is the backend sign-in endpoint.
const LoginPath = "/admin/auth/login"

// Dev bypass identity.
const (
	DevAdminID    = "dev-admin-001"
	DevAdminName  = "Dev Admin"
	DevAdminRole  = "super_admin"
	DevAdminToken = "dev-token-placeholder"
)

// MsgInvalidCredentials is shown for any rejected sign-in.
const MsgInvalidCredentials = "Invalid email or password."

// Gateway is the backend client port.
type Gateway interface {
	Do(ctx context.Context, req gateway.Request, out any) error
}

// RevocationList records session token ids revoked at logout.
type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuditPublisher records sign-in activity.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// TRLFailureMode decides what logout does when the revocation list is down.
type TRLFailureMode string

const (
	// TRLFailureModeWarn logs and still clears the cookie.
	TRLFailureModeWarn TRLFailureMode = "warn"
	// TRLFailureModeFail reports the logout as failed.
	TRLFailureModeFail TRLFailureMode = "fail"
)

// Service handles admin sessions.
type Service struct {
	gateway Gateway
	tokens  *token.Manager
	trl     RevocationList
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor AuditPublisher

	devEmail        string
	devPasswordHash []byte

	TRLFailureMode TRLFailureMode
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAuditPublisher sets the audit publisher.
func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

// WithDevLogin enables the local bypass credential. passwordHash is a bcrypt
// hash; the plaintext is never configured.
func WithDevLogin(emailAddr, passwordHash string) Option {
	return func(s *Service) {
		s.devEmail = emailAddr
		s.devPasswordHash = []byte(passwordHash)
	}
}

// WithTRLFailureMode sets the logout behaviour on revocation failures.
func WithTRLFailureMode(mode TRLFailureMode) Option {
	return func(s *Service) {
		s.TRLFailureMode = mode
	}
}

// New creates an auth Service.
func New(gw Gateway, tokens *token.Manager, trl RevocationList, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		gateway:        gw,
		tokens:         tokens,
		trl:            trl,
		logger:         logger,
		TRLFailureMode: TRLFailureModeWarn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DevLoginEnabled reports whether the bypass credential is active.
func (s *Service) DevLoginEnabled() bool {
	return s.devEmail != "" && len(s.devPasswordHash) > 0
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	principal, viaDev, err := s.authenticate(ctx, req)
	if err != nil {
		s.emit(ctx, audit.Event{Action: audit.ActionLoginFailed, ActorEmail: req.Email, Reason: string(dErrors.CodeOf(err))})
		return nil, err
	}

	issued, err := s.tokens.Issue(principal, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session")
	}

	result := "ok"
	if viaDev {
		result = "dev_bypass"
	}
	s.metrics.IncrementLogin(result)
	s.logger.InfoContext(ctx, "admin signed in",
		"request_id", requestcontext.RequestID(ctx),
		"admin_id", principal.ID,
		"session_id", issued.ID,
		"dev_bypass", viaDev,
	)
	s.emit(ctx, audit.Event{
		Action:     audit.ActionLoginSucceeded,
		ActorID:    principal.ID,
		ActorEmail: principal.Email,
		Subject:    issued.ID,
	})

	return &models.LoginResult{
		Token:     issued.Token,
		SessionID: issued.ID,
		ExpiresAt: issued.ExpiresAt,
		Principal: principal,
	}, nil
}

func (s *Service) authenticate(ctx context.Context, req models.LoginRequest) (domain.Principal, bool, error) {
	if s.DevLoginEnabled() && req.Email == s.devEmail {
		if bcrypt.CompareHashAndPassword(s.devPasswordHash, []byte(req.Password)) == nil {
			s.logger.WarnContext(ctx, "dev login bypass used",
				"request_id", requestcontext.RequestID(ctx),
			)
			return domain.Principal{
				ID:          DevAdminID,
				Email:       s.devEmail,
				Name:        DevAdminName,
				Role:        DevAdminRole,
				AccessToken: DevAdminToken,
			}, true, nil
		}
	}

	var resp models.BackendLogin
	err := s.gateway.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   LoginPath,
		Body:   req,
	}, &resp)
	if err != nil {
		return domain.Principal{}, false, s.loginError(ctx, err)
	}
	if resp.Token == "" || resp.ID == "" {
		s.metrics.IncrementLogin("invalid")
		s.authFailure(ctx, "backend_login_incomplete")
		return domain.Principal{}, false, dErrors.New(dErrors.CodeUnauthorized, MsgInvalidCredentials)
	}

	p := domain.Principal{
		ID:          resp.ID,
		Email:       resp.Email,
		Name:        resp.Name,
		Role:        resp.Role,
		AccessToken: resp.Token,
	}
	if p.Email == "" {
		p.Email = req.Email
	}
	if p.Name == "" {
		p.Name = email.DisplayName(p.Email)
	}
	return p, false, nil
}

func (s *Service) loginError(ctx context.Context, err error) error {
	var apiErr *gateway.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
		s.metrics.IncrementLogin("invalid")
		s.authFailure(ctx, "backend_rejected", "status", apiErr.Status)
		return dErrors.New(dErrors.CodeUnauthorized, MsgInvalidCredentials)
	default:
		s.metrics.IncrementLogin("unavailable")
		s.logger.ErrorContext(ctx, "backend sign-in unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeBadGateway, "Unable to reach the sign-in service. Please try again.")
	}
}

// Logout revokes the session token. An unparseable or expired token has
// nothing left to revoke.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	if tokenString == "" {
		return nil
	}
	now := requestcontext.Now(ctx)
	claims, principal, err := s.tokens.Parse(tokenString, now)
	if err != nil {
		return nil
	}

	ttl := claims.ExpiresAt.Sub(now)
	if err := s.trl.RevokeToken(ctx, claims.ID, ttl); err != nil {
		s.logger.ErrorContext(ctx, "failed to add session to revocation list",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", claims.ID,
			"error", err,
		)
		if s.TRLFailureMode == TRLFailureModeFail {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
		}
	}

	s.metrics.IncrementLogout()
	s.emit(ctx, audit.Event{
		Action:     audit.ActionLogout,
		ActorID:    principal.ID,
		ActorEmail: principal.Email,
		Subject:    claims.ID,
	})
	return nil
}

// Resolve implements the session middleware's resolver.
func (s *Service) Resolve(ctx context.Context, tokenString string) (*authmw.Session, error) {
	claims, principal, err := s.tokens.Parse(tokenString, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	revoked, err := s.trl.IsRevoked(ctx, claims.ID)
	if errors.Is(err, sentinel.ErrUnavailable) {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "session store unavailable")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check session revocation")
	}
	if revoked {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session revoked")
	}
	return &authmw.Session{ID: claims.ID, Principal: principal}, nil
}

// ExpiresAt returns when tokenString expires, if it parses.
func (s *Service) ExpiresAt(ctx context.Context, tokenString string) (time.Time, bool) {
	claims, _, err := s.tokens.Parse(tokenString, requestcontext.Now(ctx))
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func (s *Service) authFailure(ctx context.Context, reason string, attrs ...any) {
	args := append([]any{
		"request_id", requestcontext.RequestID(ctx),
		"reason", reason,
	}, attrs...)
	s.logger.WarnContext(ctx, "admin sign-in rejected", args...)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit auth audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", event.Action,
			"error", err,
		)
	}
}
