package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"medix/internal/registry"
)

// HTTPVerifier calls a running portal's /api/slmc/verify endpoint.
type HTTPVerifier struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPVerifier creates a verifier for the portal at baseURL. token is a
// session token sent as a bearer credential.
func NewHTTPVerifier(baseURL, token string, httpClient *http.Client) *HTTPVerifier {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPVerifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// Verify implements Verifier. 200 and 400 responses carry a Result; anything
// else, including transport failures, is an operational fault.
func (v *HTTPVerifier) Verify(ctx context.Context, regNo string) (registry.Result, error) {
	target := v.baseURL + "/api/slmc/verify?" + url.Values{"regNo": {regNo}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return registry.Result{}, fmt.Errorf("%w: build request: %w", registry.ErrLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if v.token != "" {
		req.Header.Set("Authorization", "Bearer "+v.token)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return registry.Result{}, fmt.Errorf("%w: %w", registry.ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusBadRequest:
	case http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, resp.Body)
		return registry.Result{}, fmt.Errorf("%w: session rejected by %s", registry.ErrLookupFailed, v.baseURL)
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return registry.Result{}, fmt.Errorf("%w: unexpected status %d", registry.ErrLookupFailed, resp.StatusCode)
	}

	var result registry.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return registry.Result{}, fmt.Errorf("%w: decode response: %w", registry.ErrLookupFailed, err)
	}
	return result, nil
}
