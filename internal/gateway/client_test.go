package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medix/pkg/domain"
	"medix/pkg/requestcontext"
)

func TestClient_URL(t *testing.T) {
	c := New("https://api.example.com/", "prod/v1")
	assert.Equal(t, "https://api.example.com/prod/v1/doctor/42", c.URL("/doctor/42", nil))
	assert.Equal(t, "https://api.example.com/prod/v1/doctor?limit=10&page=2",
		c.URL("doctor", url.Values{"page": {"2"}, "limit": {"10"}}))

	bare := New("http://localhost:3001", "")
	assert.Equal(t, "http://localhost:3001/doctor", bare.URL("/doctor", nil))
}

func TestClient_Do(t *testing.T) {
	t.Run("attaches headers and decodes 2xx", func(t *testing.T) {
		var gotAuth, gotCT, gotPath string
		var gotBody map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotCT = r.Header.Get("Content-Type")
			gotPath = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"_id":"d1","fullName":"Dr. Perera"}`))
		}))
		defer srv.Close()

		ctx := requestcontext.WithPrincipal(context.Background(), domain.Principal{ID: "a1", AccessToken: "tok"})
		var out struct {
			ID       string `json:"_id"`
			FullName string `json:"fullName"`
		}
		err := New(srv.URL, "/prod/v1").Do(ctx, Request{Method: http.MethodPost, Path: "/doctor", Body: map[string]string{"fullName": "Dr. Perera"}}, &out)

		require.NoError(t, err)
		assert.Equal(t, "Bearer tok", gotAuth)
		assert.Equal(t, "application/json", gotCT)
		assert.Equal(t, "/prod/v1/doctor", gotPath)
		assert.Equal(t, "Dr. Perera", gotBody["fullName"])
		assert.Equal(t, "d1", out.ID)
	})

	t.Run("no principal means no authorization header", func(t *testing.T) {
		var sawAuth bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, sawAuth = r.Header["Authorization"]
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		require.NoError(t, New(srv.URL, "").Do(context.Background(), Request{Path: "/ping"}, nil))
		assert.False(t, sawAuth)
	})

	t.Run("204 is an empty success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		out := map[string]any{"untouched": true}
		err := New(srv.URL, "").Do(context.Background(), Request{Method: http.MethodDelete, Path: "/doctor/1"}, &out)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"untouched": true}, out)
	})

	t.Run("404 with message body is a structured error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found"}`))
		}))
		defer srv.Close()

		err := New(srv.URL, "").Do(context.Background(), Request{Path: "/doctor/x"}, nil)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
		assert.Equal(t, "Not Found", apiErr.StatusText)
		assert.Equal(t, "not found", apiErr.Message())
		assert.True(t, IsNotFound(err))
		assert.False(t, errors.Is(err, ErrTransport))
	})

	t.Run("non-JSON error body leaves data nil", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		}))
		defer srv.Close()

		err := New(srv.URL, "").Do(context.Background(), Request{Path: "/doctor"}, nil)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Nil(t, apiErr.Data)
		assert.Empty(t, apiErr.Message())
	})

	t.Run("message list takes the first entry", func(t *testing.T) {
		apiErr := &APIError{Status: 400, Data: map[string]any{"message": []any{"email must be an email", "x"}}}
		assert.Equal(t, "email must be an email", apiErr.Message())
	})

	t.Run("unreachable host is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		addr := srv.URL
		srv.Close()

		err := New(addr, "").Do(context.Background(), Request{Path: "/doctor"}, nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransport)
		var apiErr *APIError
		assert.False(t, errors.As(err, &apiErr))
	})

	t.Run("timeout is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		err := New(srv.URL, "", WithTimeout(20*time.Millisecond)).Do(context.Background(), Request{Path: "/slow"}, nil)
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("timeout leaves a shared http client untouched", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(200 * time.Millisecond):
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()

		shared := &http.Client{Timeout: time.Minute}
		for _, opts := range [][]Option{
			{WithHTTPClient(shared), WithTimeout(20 * time.Millisecond)},
			{WithTimeout(20 * time.Millisecond), WithHTTPClient(shared)},
		} {
			err := New(srv.URL, "", opts...).Do(context.Background(), Request{Path: "/slow"}, nil)
			assert.ErrorIs(t, err, ErrTransport)
		}
		assert.Equal(t, time.Minute, shared.Timeout)
	})
}
