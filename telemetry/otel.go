package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type (
	// StdLogger is a Logger that writes through a caller-supplied sink
	// function, letting embedders bridge to slog/zap/zerolog without this
	// package depending on any of them.
	StdLogger struct {
		sink func(ctx context.Context, level, msg string, keyvals ...any)
	}

	// OtelMetrics wraps an OTEL Meter for runtime instrumentation.
	OtelMetrics struct {
		meter metric.Meter
	}

	// OtelTracer wraps an OTEL Tracer for runtime tracing.
	OtelTracer struct {
		tracer trace.Tracer
	}

	otelSpan struct {
		span trace.Span
	}
)

// NewStdLogger constructs a Logger that forwards every call to sink. A nil
// sink discards all messages (equivalent to NewNoopLogger).
func NewStdLogger(sink func(ctx context.Context, level, msg string, keyvals ...any)) Logger {
	if sink == nil {
		sink = func(context.Context, string, string, ...any) {}
	}
	return StdLogger{sink: sink}
}

// Debug forwards a debug-level message to the configured sink.
func (l StdLogger) Debug(ctx context.Context, msg string, keyvals ...any) { l.sink(ctx, "debug", msg, keyvals...) }

// Info forwards an info-level message to the configured sink.
func (l StdLogger) Info(ctx context.Context, msg string, keyvals ...any) { l.sink(ctx, "info", msg, keyvals...) }

// Warn forwards a warning-level message to the configured sink.
func (l StdLogger) Warn(ctx context.Context, msg string, keyvals ...any) { l.sink(ctx, "warn", msg, keyvals...) }

// Error forwards an error-level message to the configured sink.
func (l StdLogger) Error(ctx context.Context, msg string, keyvals ...any) { l.sink(ctx, "error", msg, keyvals...) }

// NewOtelMetrics constructs a Metrics recorder backed by the global OTEL
// MeterProvider under the given instrumentation scope name. Configure the
// provider via otel.SetMeterProvider before invoking runtime methods.
func NewOtelMetrics(scope string) Metrics {
	return &OtelMetrics{meter: otel.Meter(scope)}
}

// NewOtelTracer constructs a Tracer backed by the global OTEL TracerProvider
// under the given instrumentation scope name.
func NewOtelTracer(scope string) Tracer {
	return &OtelTracer{tracer: otel.Tracer(scope)}
}

// IncCounter increments a counter metric by the given value.
func (m *OtelMetrics) IncCounter(name string, value float64, tags ...string) {
	counter, err := m.meter.Float64Counter(name)
	if err != nil {
		return
	}
	counter.Add(context.Background(), value, metric.WithAttributes(tagsToAttrs(tags)...))
}

// RecordTimer records a duration as a histogram metric, in seconds.
func (m *OtelMetrics) RecordTimer(name string, duration time.Duration, tags ...string) {
	histogram, err := m.meter.Float64Histogram(name)
	if err != nil {
		return
	}
	histogram.Record(context.Background(), duration.Seconds(), metric.WithAttributes(tagsToAttrs(tags)...))
}

// RecordGauge records a gauge value. OTEL has no synchronous gauge
// instrument, so this falls back to a histogram suffixed "_gauge", matching
// the teacher's ClueMetrics.RecordGauge fallback.
func (m *OtelMetrics) RecordGauge(name string, value float64, tags ...string) {
	histogram, err := m.meter.Float64Histogram(name + "_gauge")
	if err != nil {
		return
	}
	histogram.Record(context.Background(), value, metric.WithAttributes(tagsToAttrs(tags)...))
}

// Start creates a new span with the given name, returning the derived
// context and span handle.
func (t *OtelTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	newCtx, span := t.tracer.Start(ctx, name, opts...)
	return newCtx, &otelSpan{span: span}
}

// Span retrieves the current span from the context.
func (t *OtelTracer) Span(ctx context.Context) Span {
	return &otelSpan{span: trace.SpanFromContext(ctx)}
}

// End finalizes the span.
func (s *otelSpan) End(opts ...trace.SpanEndOption) { s.span.End(opts...) }

// AddEvent records a span event with attribute pairs (k1, v1, k2, v2, ...).
func (s *otelSpan) AddEvent(name string, attrs ...any) {
	s.span.AddEvent(name, trace.WithAttributes(kvSliceToAttrs(attrs)...))
}

// SetStatus sets the span status code and description.
func (s *otelSpan) SetStatus(code codes.Code, description string) { s.span.SetStatus(code, description) }

// RecordError records an error on the span.
func (s *otelSpan) RecordError(err error, opts ...trace.EventOption) { s.span.RecordError(err, opts...) }

func tagsToAttrs(tags []string) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for i := 0; i < len(tags); i += 2 {
		k := tags[i]
		v := ""
		if i+1 < len(tags) {
			v = tags[i+1]
		}
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

func kvSliceToAttrs(keyvals []any) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for i := 0; i < len(keyvals); i += 2 {
		k, _ := keyvals[i].(string)
		var v any
		if i+1 < len(keyvals) {
			v = keyvals[i+1]
		}
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprint(val)))
		}
	}
	return attrs
}
