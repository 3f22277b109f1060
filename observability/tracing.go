package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/xraph/herald"

// Tracer provides OpenTelemetry tracing for Herald.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer backed by the global OpenTelemetry provider.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

// NewTracerWithProvider creates a tracer backed by tp.
func NewTracerWithProvider(tp trace.TracerProvider) *Tracer {
	return &Tracer{
		tracer: tp.Tracer(tracerName),
	}
}

// StartDispatchSpan starts a span covering one dispatch attempt.
// On a nil Tracer it returns ctx and a no-op span.
func (t *Tracer) StartDispatchSpan(ctx context.Context, kind, recipient string, attempt int) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return t.tracer.Start(ctx, "herald.dispatch",
		trace.WithAttributes(
			attribute.String("herald.kind", kind),
			attribute.String("herald.recipient", recipient),
			attribute.Int("herald.attempt", attempt),
		),
	)
}

// EndDispatchSpan ends a dispatch span with outcome attributes.
func (t *Tracer) EndDispatchSpan(span trace.Span, messageID, category, errMsg string) {
	if t == nil {
		return
	}

	if category == "" {
		span.SetAttributes(attribute.String("herald.message_id", messageID))
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetAttributes(
			attribute.String("herald.category", category),
			attribute.String("herald.error", errMsg),
		)
		span.SetStatus(codes.Error, errMsg)
	}
	span.End()
}

// StartBatchSpan starts a span covering a whole batch submission.
func (t *Tracer) StartBatchSpan(ctx context.Context, batchID string, size int) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return t.tracer.Start(ctx, "herald.batch",
		trace.WithAttributes(
			attribute.String("herald.batch_id", batchID),
			attribute.Int("herald.batch_size", size),
		),
	)
}

// EndBatchSpan ends a batch span with success and failure counts.
func (t *Tracer) EndBatchSpan(span trace.Span, succeeded, failed int) {
	if t == nil {
		return
	}

	span.SetAttributes(
		attribute.Int("herald.batch_succeeded", succeeded),
		attribute.Int("herald.batch_failed", failed),
	)
	span.End()
}
