package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"medix/internal/doctor/handler/mocks"
	"medix/internal/doctor/models"
	"medix/internal/gateway"
	"medix/pkg/domain"
	"medix/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) newHandler(t *testing.T) (*mocks.MockService, chi.Router) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	router := chi.NewRouter()
	New(svc, testutil.DiscardLogger()).Register(router)
	return svc, router
}

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func validCreateBody() map[string]any {
	return map[string]any{
		"fullName":      "Dr. Amal Silva",
		"licenseId":     "8457",
		"contactNumber": "0771234567",
		"email":         "Amal@Clinic.lk",
	}
}

func (s *HandlerSuite) TestCreate() {
	s.T().Run("valid payload is normalized and returns 201", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p models.CreateDoctorPayload) (*models.Doctor, error) {
				assert.Equal(t, "+94771234567", p.ContactNumber)
				assert.Equal(t, "amal@clinic.lk", p.Email)
				return &models.Doctor{ID: "d1", FullName: p.FullName}, nil
			})

		req := testutil.WithAdmin(testutil.NewJSONRequest(t, http.MethodPost, "/api/doctors", validCreateBody()))
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusCreated)
		assert.Equal(t, CreatedRedirect, rr.Header().Get("Location"))
		body := decode(t, rr.Body.Bytes())
		assert.Equal(t, "d1", body["id"])
		notification := body["notification"].(map[string]any)
		assert.Equal(t, "success", notification["variant"])
		assert.Equal(t, "Doctor Created", notification["title"])
	})

	s.T().Run("invalid payload is 422 with field errors and never reaches backend", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		payload := validCreateBody()
		payload["contactNumber"] = "12345"
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/doctors", payload))

		testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
		body := decode(t, rr.Body.Bytes())
		assert.Equal(t, "Please fix the errors below.", body["message"])
		errs := body["errors"].(map[string]any)
		assert.Contains(t, errs, "contactNumber")
	})

	s.T().Run("malformed json is 400", func(t *testing.T) {
		_, router := s.newHandler(t)
		req := httptest.NewRequest(http.MethodPost, "/api/doctors", stringsReader("{bad"))
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	s.T().Run("backend error keeps status and message", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil,
			&gateway.APIError{Status: http.StatusConflict, StatusText: "Conflict", Data: map[string]any{"message": "License ID already registered"}})

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/doctors", validCreateBody()))

		testutil.AssertStatus(t, rr, http.StatusConflict)
		body := decode(t, rr.Body.Bytes())
		assert.Equal(t, "License ID already registered", body["message"])
		assert.Equal(t, "destructive", body["notification"].(map[string]any)["variant"])
	})

	s.T().Run("backend error without message uses fallback", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, &gateway.APIError{Status: http.StatusBadRequest})

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/doctors", validCreateBody()))

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertJSONContains(t, rr, "message", "Failed to create doctor")
	})

	s.T().Run("transport failure is 502 with retry", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, &gateway.TransportError{Err: errors.New("dial tcp: refused")})

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/doctors", validCreateBody()))

		testutil.AssertStatus(t, rr, http.StatusBadGateway)
		testutil.AssertJSONContains(t, rr, "retry", true)
	})
}

func (s *HandlerSuite) TestVerify() {
	s.T().Run("returns refreshed record", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Verify(gomock.Any(), domain.DoctorID("d1")).Return(&models.Doctor{ID: "d1", FullName: "Dr. Silva", Verify: true}, nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPut, "/api/doctors/d1/verify"))

		testutil.AssertStatus(t, rr, http.StatusOK)
		body := decode(t, rr.Body.Bytes())
		assert.Equal(t, true, body["verify"])
		assert.Equal(t, "Dr. Silva has been successfully verified.", body["notification"].(map[string]any)["description"])
	})

	s.T().Run("backend failure uses verify fallback", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(nil, &gateway.APIError{Status: http.StatusInternalServerError})

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPut, "/api/doctors/d1/verify"))

		testutil.AssertStatus(t, rr, http.StatusInternalServerError)
		testutil.AssertJSONContains(t, rr, "message", "Failed to verify doctor")
	})

	s.T().Run("invalid id is rejected before the backend", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Verify(gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPut, "/api/doctors/bad.id/verify"))

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func (s *HandlerSuite) TestDetail() {
	s.T().Run("not found", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Detail(gomock.Any(), domain.DoctorID("gone")).Return(nil, &gateway.APIError{Status: http.StatusNotFound})

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/doctors/gone"))

		testutil.AssertStatus(t, rr, http.StatusNotFound)
		testutil.AssertJSONContains(t, rr, "message", "The requested resource was not found.")
	})

	s.T().Run("badges", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Detail(gomock.Any(), domain.DoctorID("d1")).Return(&models.DetailView{
			Doctor:             models.Doctor{ID: "d1"},
			InternationalReady: true,
			NeedsVerification:  false,
		}, nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/doctors/d1"))

		testutil.AssertStatus(t, rr, http.StatusOK)
		testutil.AssertJSONContains(t, rr, "internationalReady", true)
	})
}

func (s *HandlerSuite) TestList() {
	s.T().Run("parses query", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().ListView(gomock.Any(), models.ListQuery{
			Filter:   models.FilterAll,
			Search:   "silva",
			Sort:     models.SortCreatedAt,
			Desc:     true,
			Page:     2,
			PageSize: 25,
		}).Return(&models.ListView{TotalCount: 3}, nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet,
			"/api/doctors?filter=all&q=silva&sort=createdAt&dir=desc&page=2&pageSize=25"))

		testutil.AssertStatus(t, rr, http.StatusOK)
		testutil.AssertJSONContains(t, rr, "totalCount", float64(3))
	})

	s.T().Run("expired backend token surfaces the sign-in message", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().ListView(gomock.Any(), gomock.Any()).Return(nil, &gateway.APIError{Status: http.StatusUnauthorized})

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/doctors"))

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		testutil.AssertJSONContains(t, rr, "message", "Your session has expired. Please sign in again.")
	})
}

func (s *HandlerSuite) TestUpdateDeleteDashboard() {
	s.T().Run("update validates present fields", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPatch, "/api/doctors/d1", map[string]any{"appointmentDuration": 500}))

		testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
	})

	s.T().Run("update proxies", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Update(gomock.Any(), domain.DoctorID("d1"), gomock.Any()).Return(&models.Doctor{ID: "d1", FullName: "Dr. Silva"}, nil)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPatch, "/api/doctors/d1", map[string]any{"isActive": false}))

		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	s.T().Run("delete", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Delete(gomock.Any(), domain.DoctorID("d1")).Return(nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/api/doctors/d1"))

		testutil.AssertStatus(t, rr, http.StatusOK)
		testutil.AssertJSONContains(t, rr, "deleted", true)
	})

	s.T().Run("dashboard", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Dashboard(gomock.Any()).Return(&models.Dashboard{Total: 4, InternationalReady: 1}, nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/dashboard"))

		testutil.AssertStatus(t, rr, http.StatusOK)
		testutil.AssertJSONContains(t, rr, "internationalReady", float64(1))
	})
}

func stringsReader(s string) *strings.Reader {
	return strings.NewReader(s)
}
