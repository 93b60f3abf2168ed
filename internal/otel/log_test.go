package otel

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func testSpanContext(t *testing.T) context.Context {
	t.Helper()
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "pseudonymize")
	t.Cleanup(func() { span.End() })
	return ctx
}

func TestTraceContextFrom(t *testing.T) {
	traceID, spanID := TraceContextFrom(context.Background())
	assert.Empty(t, traceID, "no span in context")
	assert.Empty(t, spanID)

	traceID, spanID = TraceContextFrom(testSpanContext(t))
	assert.Len(t, traceID, 32)
	assert.Len(t, spanID, 16)
}

func TestLogTraceFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logger.Info().Func(LogTraceFields(context.Background())).Msg("no_span")
	assert.NotContains(t, buf.String(), "trace_id", "no fields without a span")

	buf.Reset()
	logger.Info().Func(LogTraceFields(testSpanContext(t))).Msg("with_span")
	assert.Contains(t, buf.String(), "trace_id")
	assert.Contains(t, buf.String(), "span_id")
}
