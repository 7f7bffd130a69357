package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"medix/internal/registry"
)

func TestHashPassword(t *testing.T) {
	t.Run("from argument", func(t *testing.T) {
		out := &bytes.Buffer{}
		cmd := rootCmd()
		cmd.SetOut(out)
		cmd.SetArgs([]string{"hash-password", "--cost", "4", "s3cret"})

		require.NoError(t, cmd.Execute())
		hash := strings.TrimSpace(out.String())
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
	})

	t.Run("from stdin", func(t *testing.T) {
		out := &bytes.Buffer{}
		cmd := rootCmd()
		cmd.SetOut(out)
		cmd.SetIn(strings.NewReader("from-stdin\n"))
		cmd.SetArgs([]string{"hash-password", "--cost", "4"})

		require.NoError(t, cmd.Execute())
		hash := strings.TrimSpace(out.String())
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("from-stdin")))
	})

	t.Run("empty password rejected", func(t *testing.T) {
		cmd := rootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetIn(strings.NewReader("\n"))
		cmd.SetArgs([]string{"hash-password"})

		assert.Error(t, cmd.Execute())
	})
}

func TestVersion(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := rootCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "medix version 0.1.0\n", out.String())
}

func TestLookupThroughServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valid":true,"practitioner":{"regNo":"8457","fullName":"Nimal Silva"}}`))
	}))
	defer srv.Close()

	t.Run("prints result", func(t *testing.T) {
		out := &bytes.Buffer{}
		cmd := rootCmd()
		cmd.SetOut(out)
		cmd.SetArgs([]string{"lookup", "8457", "--server", srv.URL, "--token", "tok"})

		require.NoError(t, cmd.Execute())
		var result registry.Result
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		assert.True(t, result.Valid)
		assert.Equal(t, "Nimal Silva", result.Practitioner.FullName)
	})

	t.Run("rejected session is an error", func(t *testing.T) {
		cmd := rootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"lookup", "8457", "--server", srv.URL, "--token", "nope"})

		err := cmd.Execute()
		require.Error(t, err)
		assert.ErrorIs(t, err, registry.ErrLookupFailed)
	})
}
