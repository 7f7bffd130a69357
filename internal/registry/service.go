package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"medix/internal/registry/metrics"
	"medix/pkg/requestcontext"
)

// Service runs registry lookups and reconciles the rows into one practitioner.
type Service struct {
	client     *Client
	categories []string
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCategories overrides the searched categories.
func WithCategories(categories ...string) Option {
	return func(s *Service) {
		s.categories = categories
	}
}

// NewService creates a registry Service.
func NewService(client *Client, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		client:     client,
		categories: Categories,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify looks regNo up and returns the outcome in response form. Business
// failures come back as a Result with Valid false; the error is reserved for
// operational faults (ErrLookupFailed) and blank input.
func (s *Service) Verify(ctx context.Context, regNo string) (Result, error) {
	p, err := s.Lookup(ctx, regNo)
	switch {
	case err == nil:
		return Result{Valid: true, Practitioner: p}, nil
	case errors.Is(err, ErrNoRegistration), errors.Is(err, ErrAmbiguous):
		return Result{Valid: false, Error: Message(err)}, nil
	default:
		return Result{Valid: false, Error: Message(err)}, err
	}
}

// Lookup returns the single practitioner registered under regNo.
func (s *Service) Lookup(ctx context.Context, regNo string) (p *Practitioner, err error) {
	regNo = strings.TrimSpace(regNo)
	if regNo == "" {
		return nil, ErrInvalidInput
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "registry lookup panicked",
				"request_id", requestcontext.RequestID(ctx),
				"panic", r,
			)
			p, err = nil, fmt.Errorf("%w: %v", ErrLookupFailed, r)
		}
		s.metrics.ObserveLookup(outcomeOf(err), time.Since(start))
	}()

	rows, err := s.fetchAll(ctx, regNo)
	if err != nil {
		s.logger.ErrorContext(ctx, "registry lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, err
	}

	p, err = reconcile(rows, regNo)
	s.logger.InfoContext(ctx, "registry lookup completed",
		"request_id", requestcontext.RequestID(ctx),
		"rows", len(rows),
		"outcome", outcomeOf(err),
	)
	return p, err
}

// fetchAll queries every category concurrently and concatenates the rows.
func (s *Service) fetchAll(ctx context.Context, regNo string) ([]record, error) {
	results := make([][]record, len(s.categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range s.categories {
		g.Go(func() error {
			rows, skipped, err := s.client.fetch(gctx, category, regNo)
			var catErr *CategoryError
			switch {
			case err == nil:
				for _, rowErr := range skipped {
					s.metrics.IncrementCategoryFailure(category, "row_decode")
					s.logger.WarnContext(ctx, "registry row skipped",
						"request_id", requestcontext.RequestID(ctx),
						"category", category,
						"error", rowErr,
					)
				}
				results[i] = rows
				return nil
			case errors.As(err, &catErr):
				s.metrics.IncrementCategoryFailure(catErr.Category, catErr.Reason)
				s.logger.WarnContext(ctx, "registry category returned no rows",
					"request_id", requestcontext.RequestID(ctx),
					"category", catErr.Category,
					"reason", catErr.Reason,
					"error", catErr.Err,
				)
				return nil
			default:
				return fmt.Errorf("%w: %w", ErrLookupFailed, err)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []record
	for _, rows := range results {
		all = append(all, rows...)
	}
	return all, nil
}

// reconcile picks the exact match out of all category rows.
func reconcile(rows []record, regNo string) (*Practitioner, error) {
	var matches []record
	for _, r := range rows {
		if r.matches(regNo) {
			matches = append(matches, r)
		}
	}
	switch {
	case len(matches) == 1:
		p := normalize(matches[0])
		return &p, nil
	case len(matches) == 0 && len(rows) == 0:
		return nil, ErrNoRegistration
	default:
		return nil, ErrAmbiguous
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "valid"
	case errors.Is(err, ErrNoRegistration):
		return "not_found"
	case errors.Is(err, ErrAmbiguous):
		return "ambiguous"
	default:
		return "error"
	}
}
