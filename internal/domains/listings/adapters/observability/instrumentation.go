package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/Apurer/pet-portal/internal/domains/listings/adapters/observability"

// instrumentation is shared by the listing decorators.
type instrumentation struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics listingMetrics
}

type Option func(*instrumentation)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *instrumentation) {
		i.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(i *instrumentation) {
		i.tracer = tr
	}
}

// WithMeter injects the meter used to create listing instruments.
func WithMeter(m metric.Meter) Option {
	return func(i *instrumentation) {
		i.metrics = newListingMetrics(m)
	}
}

func newInstrumentation(opts []Option) instrumentation {
	i := instrumentation{metrics: newListingMetrics(nil)}
	for _, opt := range opts {
		if opt != nil {
			opt(&i)
		}
	}
	if i.tracer == nil {
		i.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if i.logger == nil {
		i.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return i
}

func (i instrumentation) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (i instrumentation) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	i.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (i instrumentation) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	attrs = append(attrs, slog.String("error", err.Error()))
	i.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	return err
}

type listingMetrics struct {
	submissions metric.Int64Counter
	failures    metric.Int64Counter
	deleted     metric.Int64Counter
	backendErrs metric.Int64Counter
}

func newListingMetrics(m metric.Meter) listingMetrics {
	if m == nil {
		return listingMetrics{}
	}
	submissions, _ := m.Int64Counter("listings.submissions", metric.WithDescription("Listing submissions that were persisted"))
	failures, _ := m.Int64Counter("listings.submission_failures", metric.WithDescription("Listing submissions that were aborted"))
	deleted, _ := m.Int64Counter("listings.deleted", metric.WithDescription("Listings deleted"))
	backendErrs, _ := m.Int64Counter("listings.backend.errors", metric.WithDescription("Failed calls to the listing backend"))
	return listingMetrics{
		submissions: submissions,
		failures:    failures,
		deleted:     deleted,
		backendErrs: backendErrs,
	}
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}
