// Package registry verifies a registration number against the public SLMC
// practitioner registry.
//
// The registry is searched under every category in parallel. A category that
// fails contributes no rows; only faults that prevent the lookup from being
// attempted at all are reported as ErrLookupFailed.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds each category request.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps a category response body.
const maxResponseBytes = 2 << 20

// CategoryError describes why a category contributed no rows.
type CategoryError struct {
	Category string
	Reason   string // "status", "decode", "transport"
	Err      error
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("registry category %s: %s: %v", e.Category, e.Reason, e.Err)
}

func (e *CategoryError) Unwrap() error {
	return e.Err
}

// Client queries one registry category at a time.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	tracer     trace.Tracer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// NewClient creates a Client for the registry search endpoint. A zero timeout
// uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{},
		tracer:     otel.Tracer("medix/registry"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newRequest builds the search request. Failures here are programming or
// configuration faults, not registry outages.
func (c *Client) newRequest(ctx context.Context, category, regNo string) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse registry url: %w", err)
	}
	q := u.Query()
	q.Set("category", category)
	q.Set("reg_no", regNo)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// fetch runs one category search. The first return is nil on a build fault;
// a *CategoryError means the category simply has no usable rows. Rows that do
// not decode are dropped individually and reported in skipped.
func (c *Client) fetch(ctx context.Context, category, regNo string) (rows []record, skipped []error, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "registry category "+category,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("registry.category", category)),
	)
	defer span.End()

	req, err := c.newRequest(ctx, category, regNo)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, nil, &CategoryError{Category: category, Reason: "transport", Err: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		span.SetStatus(codes.Error, "status")
		return nil, nil, &CategoryError{Category: category, Reason: "status", Err: err}
	}

	var raw json.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&raw); err != nil {
		reason := "decode"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			reason = "transport"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		return nil, nil, &CategoryError{Category: category, Reason: reason, Err: err}
	}

	// null is an empty result; any other non-array is a decode failure.
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		span.SetStatus(codes.Error, "decode")
		return nil, nil, &CategoryError{Category: category, Reason: "decode", Err: err}
	}
	rows = make([]record, 0, len(items))
	for i, item := range items {
		var r record
		if err := json.Unmarshal(item, &r); err != nil {
			skipped = append(skipped, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		rows = append(rows, r)
	}
	span.SetAttributes(
		attribute.Int("registry.rows", len(rows)),
		attribute.Int("registry.rows_skipped", len(skipped)),
	)
	return rows, skipped, nil
}
