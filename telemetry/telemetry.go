// Package telemetry provides a logging/metrics/tracing facade (SPEC_FULL
// "AMBIENT STACK"). agent.Config carries a Telemetry value, but the agent
// loop, swarm executor, and graph executor do not call it: they open no
// spans and record no logs or metrics. It is ported from the teacher's
// runtime/agent/telemetry package, with the Clue-backed implementation
// replaced by a pure go.opentelemetry.io/otel one since goa.design/clue is
// not part of this module's dependency set (see DESIGN.md "Dropped
// dependencies").
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Logger captures structured logging used throughout the runtime.
// Implementations are intentionally small so tests can provide lightweight
// stubs and so consumers can bridge to whatever structured logger they
// already run (slog, zap, zerolog) without this package depending on one.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)
}

// Metrics exposes counter and histogram helpers for runtime instrumentation.
type Metrics interface {
	IncCounter(name string, value float64, tags ...string)
	RecordTimer(name string, duration time.Duration, tags ...string)
	RecordGauge(name string, value float64, tags ...string)
}

// Tracer abstracts span creation so runtime code can remain agnostic of the
// underlying OpenTelemetry provider.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	Span(ctx context.Context) Span
}

// Span represents an in-flight tracing span.
//
// Example usage:
//
//	ctx, span := tracer.Start(ctx, "agent.model_call", trace.WithSpanKind(trace.SpanKindClient))
//	defer span.End()
//	span.SetStatus(codes.Ok, "completed successfully")
type Span interface {
	End(opts ...trace.SpanEndOption)
	AddEvent(name string, attrs ...any)
	SetStatus(code codes.Code, description string)
	RecordError(err error, opts ...trace.EventOption)
}

// Telemetry bundles the three facades so they can be threaded as a single
// value through agent.Config (swarm.Config and graph.Config have no
// telemetry field).
type Telemetry struct {
	Logger  Logger
	Metrics Metrics
	Tracer  Tracer
}

// NewNoop constructs a Telemetry whose three facades discard everything,
// for tests and for consumers who haven't wired observability yet.
func NewNoop() Telemetry {
	return Telemetry{Logger: NewNoopLogger(), Metrics: NewNoopMetrics(), Tracer: NewNoopTracer()}
}
