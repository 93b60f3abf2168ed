package otel

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// TraceContextFrom returns the trace and span IDs of the span in ctx, or
// empty strings when none is recording. Request logs use this to line up a
// pseudonymization pass with its HTTP span.
func TraceContextFrom(ctx context.Context) (traceID, spanID string) {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return "", ""
	}
	return span.SpanContext().TraceID().String(), span.SpanContext().SpanID().String()
}

// LogTraceFields returns a zerolog Func hook adding trace_id and span_id
// when ctx carries a valid span:
//
//	log.Info().Str("request_id", id).Func(otel.LogTraceFields(ctx)).Msg("pseudonymize_completed")
//
// With tracing disabled the hook adds nothing, so log lines stay unchanged.
func LogTraceFields(ctx context.Context) func(e *zerolog.Event) {
	return func(e *zerolog.Event) {
		traceID, spanID := TraceContextFrom(ctx)
		if traceID != "" {
			e.Str("trace_id", traceID)
		}
		if spanID != "" {
			e.Str("span_id", spanID)
		}
	}
}
