// Package gateway is the single path through which the portal talks to the
// backend REST API.
//
// The bearer token is read from the request context (see requestcontext), so
// the client holds no session state and is safe for concurrent use.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"medix/pkg/requestcontext"
)

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Body   any
	Query  url.Values
}

// Client calls the backend API.
type Client struct {
	baseURL    string
	apiVersion string
	httpClient *http.Client
	timeout    time.Duration
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithTimeout bounds each call through its context. Zero means no bound
// beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// New builds a Client for baseURL + apiVersion, e.g. "https://api.example" + "/prod/v1".
func New(baseURL, apiVersion string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiVersion: "/" + strings.Trim(apiVersion, "/"),
		httpClient: &http.Client{},
		tracer:     otel.Tracer("medix/gateway"),
	}
	if c.apiVersion == "/" {
		c.apiVersion = ""
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL resolves a logical path against the configured base.
func (c *Client) URL(path string, query url.Values) string {
	u := c.baseURL + c.apiVersion + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Do performs req and decodes a 2xx JSON body into out when out is non-nil.
// A 204 leaves out untouched. Non-2xx responses return *APIError; failures
// without a response return *TransportError.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.URL(req.Path, req.Query)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := c.tracer.Start(ctx, "gateway "+method+" "+req.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", req.Path),
		),
	)
	defer span.End()

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "encode body")
			return fmt.Errorf("gateway: encode body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return fmt.Errorf("gateway: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if token := requestcontext.AccessToken(ctx); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if reqID := requestcontext.RequestID(ctx); reqID != "" {
		httpReq.Header.Set("X-Request-ID", reqID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return &TransportError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return &TransportError{Method: method, URL: target, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
		}
		var data any
		if len(raw) > 0 && json.Unmarshal(raw, &data) == nil {
			apiErr.Data = data
		}
		span.SetStatus(codes.Error, apiErr.StatusText)
		return apiErr
	}

	if resp.StatusCode == http.StatusNoContent || out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode body")
		return fmt.Errorf("gateway: decode %s %s: %w", method, req.Path, err)
	}
	return nil
}
