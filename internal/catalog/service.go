// Package catalog implements the catalog operations on top of a document
// store: browsing, rating and reviewing items, reverse user profiles, and
// the admin workflow for items and users.
//
// Every store round trip runs under its own timeout. Store failures and
// timeouts are reported as model.ErrStoreUnavailable.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/katalog/internal/auth"
	"github.com/erazemk/katalog/internal/imaging"
	"github.com/erazemk/katalog/internal/model"
	"github.com/erazemk/katalog/internal/store"
	"github.com/erazemk/katalog/internal/telemetry"
)

// DefaultStoreTimeout bounds a single store round trip.
const DefaultStoreTimeout = 5 * time.Second

// Options configures a Service. Zero values select defaults.
type Options struct {
	StoreTimeout time.Duration
	JWTSecret    string
	Revocations  auth.Revocations // defaults to the store's token list
	Images       imaging.Processor
	Tracer       trace.Tracer
	Meter        metric.Meter
	Now          func() time.Time
}

// Service runs catalog operations.
type Service struct {
	store       store.Store
	timeout     time.Duration
	secret      string
	revocations auth.Revocations
	images      imaging.Processor
	tracer      trace.Tracer
	feedback    metric.Int64Counter
	now         func() time.Time
}

// New creates a Service on st.
func New(st store.Store, opts Options) (*Service, error) {
	if opts.JWTSecret == "" {
		return nil, errors.New("catalog: JWT secret is required")
	}

	s := &Service{
		store:       st,
		timeout:     opts.StoreTimeout,
		secret:      opts.JWTSecret,
		revocations: opts.Revocations,
		images:      opts.Images,
		tracer:      opts.Tracer,
		now:         opts.Now,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultStoreTimeout
	}
	if s.revocations == nil {
		s.revocations = auth.StoreRevocations{Tokens: st}
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(telemetry.InstrumentationName)
	}
	if s.now == nil {
		s.now = time.Now
	}

	meter := opts.Meter
	if meter == nil {
		meter = otel.Meter(telemetry.InstrumentationName)
	}
	counter, err := meter.Int64Counter("katalog.feedback.changes",
		metric.WithDescription("Ratings submitted and deleted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating feedback counter: %w", err)
	}
	s.feedback = counter

	return s, nil
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return call(s, ctx, s.store.Ping)
}

// do runs fn under the store timeout.
func do[T any](s *Service, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	v, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, storeError(err)
	}
	return v, nil
}

// call is do for store operations without a result.
func call(s *Service, ctx context.Context, fn func(context.Context) error) error {
	_, err := do(s, ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// storeError classifies a store failure. Duplicates and rejected input keep
// their meaning; anything else means the store could not serve the request.
func storeError(err error) error {
	if errors.Is(err, store.ErrDuplicate) || errors.Is(err, model.ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
}

// span opens a span for a catalog operation.
func (s *Service) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "catalog."+name, trace.WithAttributes(attrs...))
}

// finish records err on span and ends it.
func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func requireUser(who model.Principal) error {
	if who.ID == "" {
		return fmt.Errorf("%w: not authenticated", model.ErrUnauthorized)
	}
	return nil
}

func requireAdmin(who model.Principal) error {
	if err := requireUser(who); err != nil {
		return err
	}
	if !who.IsAdmin {
		return fmt.Errorf("%w: admin only", model.ErrForbidden)
	}
	return nil
}

func checkID(id string) error {
	if !model.ValidID(id) {
		return fmt.Errorf("%w: malformed id %q", model.ErrInvalidInput, id)
	}
	return nil
}

// MaxImageBytes is the largest accepted image upload.
func (s *Service) MaxImageBytes() int64 {
	if s.images.MaxBytes > 0 {
		return s.images.MaxBytes
	}
	return imaging.DefaultMaxBytes
}
