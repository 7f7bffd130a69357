package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"medix/internal/audit"
	"medix/internal/auth/models"
	"medix/internal/auth/service/mocks"
	"medix/internal/auth/store/revocation"
	"medix/internal/auth/token"
	"medix/internal/gateway"
	dErrors "medix/pkg/domain-errors"
	"medix/pkg/platform/sentinel"
	"medix/pkg/requestcontext"
	"medix/pkg/testutil"
)

type failingTRL struct{}

func (failingTRL) RevokeToken(context.Context, string, time.Duration) error {
	return fmt.Errorf("%w: redis: connection refused", sentinel.ErrUnavailable)
}

func (failingTRL) IsRevoked(context.Context, string) (bool, error) {
	return false, fmt.Errorf("%w: redis: connection refused", sentinel.ErrUnavailable)
}

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	gateway *mocks.MockGateway
	tokens  *token.Manager
	trl     *revocation.InMemoryTRL
	sink    *audit.MemorySink
	service *Service
	ctx     context.Context
	devHash string
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupSuite() {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	s.Require().NoError(err)
	s.devHash = string(hash)
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gateway = mocks.NewMockGateway(s.ctrl)
	tokens, err := token.NewManager("test-secret", 8*time.Hour)
	s.Require().NoError(err)
	s.tokens = tokens
	s.trl = revocation.NewInMemoryTRL()
	s.sink = audit.NewMemorySink()
	s.service = New(s.gateway, s.tokens, s.trl, testutil.DiscardLogger(),
		WithAuditPublisher(audit.NewPublisher(s.sink)),
	)
	s.ctx = requestcontext.WithRequestID(context.Background(), "req-1")
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) expectBackendLogin(resp models.BackendLogin, err error) {
	s.gateway.EXPECT().Do(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req gateway.Request, out any) error {
			s.Equal(http.MethodPost, req.Method)
			s.Equal(LoginPath, req.Path)
			body, ok := req.Body.(models.LoginRequest)
			s.Require().True(ok)
			s.Equal("ops@aumedix.com", body.Email)
			if err != nil {
				return err
			}
			*out.(*models.BackendLogin) = resp
			return nil
		})
}

func (s *ServiceSuite) TestLoginThroughBackend() {
	s.expectBackendLogin(models.BackendLogin{
		ID: "admin-7", Email: "ops@aumedix.com", Name: "Ops Admin", Role: "admin", Token: "backend-jwt",
	}, nil)

	result, err := s.service.Login(s.ctx, models.LoginRequest{Email: "  OPS@aumedix.com ", Password: "secret"})

	s.Require().NoError(err)
	s.Equal("admin-7", result.Principal.ID)
	s.Equal("backend-jwt", result.Principal.AccessToken)

	session, err := s.service.Resolve(s.ctx, result.Token)
	s.Require().NoError(err)
	s.Equal(result.SessionID, session.ID)
	s.Equal(result.Principal, session.Principal)

	events := s.sink.Events()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionLoginSucceeded, events[0].Action)
	s.Equal("req-1", events[0].RequestID)
}

func (s *ServiceSuite) TestLoginDerivesMissingName() {
	s.expectBackendLogin(models.BackendLogin{ID: "admin-7", Token: "t"}, nil)

	result, err := s.service.Login(s.ctx, models.LoginRequest{Email: "ops@aumedix.com", Password: "secret"})

	s.Require().NoError(err)
	s.Equal("Ops", result.Principal.Name)
	s.Equal("ops@aumedix.com", result.Principal.Email)
}

func (s *ServiceSuite) TestLoginRejected() {
	s.Run("backend 401", func() {
		s.expectBackendLogin(models.BackendLogin{}, &gateway.APIError{Status: http.StatusUnauthorized})

		_, err := s.service.Login(s.ctx, models.LoginRequest{Email: "ops@aumedix.com", Password: "wrong"})

		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("backend without token", func() {
		s.expectBackendLogin(models.BackendLogin{ID: "admin-7"}, nil)

		_, err := s.service.Login(s.ctx, models.LoginRequest{Email: "ops@aumedix.com", Password: "x"})

		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("backend unreachable", func() {
		s.expectBackendLogin(models.BackendLogin{}, &gateway.TransportError{Err: errors.New("dial tcp: refused")})

		_, err := s.service.Login(s.ctx, models.LoginRequest{Email: "ops@aumedix.com", Password: "x"})

		s.True(dErrors.HasCode(err, dErrors.CodeBadGateway))
	})

	s.Run("invalid form never reaches backend", func() {
		_, err := s.service.Login(s.ctx, models.LoginRequest{Email: "not-an-email", Password: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.Login(s.ctx, models.LoginRequest{Email: "ops@aumedix.com"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	failures := 0
	for _, e := range s.sink.Events() {
		if e.Action == audit.ActionLoginFailed {
			failures++
		}
	}
	s.Equal(3, failures)
}

func (s *ServiceSuite) TestDevBypass() {
	svc := New(s.gateway, s.tokens, s.trl, testutil.DiscardLogger(), WithDevLogin("admin@aumedix.com", s.devHash))
	s.True(svc.DevLoginEnabled())

	s.Run("matching pair skips backend", func() {
		result, err := svc.Login(s.ctx, models.LoginRequest{Email: "admin@aumedix.com", Password: "admin123"})
		s.Require().NoError(err)
		s.Equal(DevAdminID, result.Principal.ID)
		s.Equal(DevAdminToken, result.Principal.AccessToken)
	})

	s.Run("wrong password falls through to backend", func() {
		s.gateway.EXPECT().Do(gomock.Any(), gomock.Any(), gomock.Any()).Return(&gateway.APIError{Status: http.StatusUnauthorized})

		_, err := svc.Login(s.ctx, models.LoginRequest{Email: "admin@aumedix.com", Password: "guess"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("disabled without hash", func() {
		s.False(New(s.gateway, s.tokens, s.trl, testutil.DiscardLogger(), WithDevLogin("admin@aumedix.com", "")).DevLoginEnabled())
	})
}

func (s *ServiceSuite) TestLogoutRevokesSession() {
	issued, err := s.tokens.Issue(testutil.TestAdmin, time.Now())
	s.Require().NoError(err)

	s.Require().NoError(s.service.Logout(s.ctx, issued.Token))

	_, err = s.service.Resolve(s.ctx, issued.Token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	revoked, err := s.trl.IsRevoked(s.ctx, issued.ID)
	s.Require().NoError(err)
	s.True(revoked)
}

func (s *ServiceSuite) TestLogoutIgnoresUnusableTokens() {
	s.NoError(s.service.Logout(s.ctx, ""))
	s.NoError(s.service.Logout(s.ctx, "garbage"))
}

func (s *ServiceSuite) TestRevocationListOutage() {
	issued, err := s.tokens.Issue(testutil.TestAdmin, time.Now())
	s.Require().NoError(err)

	warn := New(s.gateway, s.tokens, failingTRL{}, testutil.DiscardLogger())
	s.NoError(warn.Logout(s.ctx, issued.Token))

	strict := New(s.gateway, s.tokens, failingTRL{}, testutil.DiscardLogger(), WithTRLFailureMode(TRLFailureModeFail))
	err = strict.Logout(s.ctx, issued.Token)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = strict.Resolve(s.ctx, issued.Token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestResolveUsesRequestTime() {
	issued, err := s.tokens.Issue(testutil.TestAdmin, time.Now())
	s.Require().NoError(err)

	late := requestcontext.WithTime(s.ctx, time.Now().Add(9*time.Hour))
	_, err = s.service.Resolve(late, issued.Token)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	expiresAt, ok := s.service.ExpiresAt(s.ctx, issued.Token)
	s.True(ok)
	s.Equal(issued.ExpiresAt.Unix(), expiresAt.Unix())
}
