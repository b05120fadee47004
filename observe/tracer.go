package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/omniobs/logctx"
)

// SpanName returns the deterministic span name for an action.
// Format: omni.<component>.<action>
func SpanName(component, action string) string {
	return "omni." + component + "." + action
}

// Tracer wraps OpenTelemetry tracing with action span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a span for one action.
	StartSpan(ctx context.Context, component, action string) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a span carrying the action and any ambient log fields.
func (t *tracerImpl) StartSpan(ctx context.Context, component, action string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("omni.component", component),
		attribute.String("omni.action", action),
		attribute.Bool("omni.error", false),
	}

	amb := logctx.Snapshot(ctx)
	for _, key := range logctx.Keys {
		if v := amb.Get(key); v != logctx.Unset {
			attrs = append(attrs, attribute.String("omni."+key.String(), v))
		}
	}

	return t.tracer.Start(ctx, SpanName(component, action),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("omni.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, component, action string) (context.Context, trace.Span) {
	return t.noop.Start(ctx, SpanName(component, action))
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
