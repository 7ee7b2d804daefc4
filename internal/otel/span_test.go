package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// newTestTracerProvider creates a tracer provider with in-memory exporter for testing.
func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, trace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func TestStartSpan_NilTracer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resultCtx, span := StartSpan(ctx, nil, "sync.source")

	require.NotNil(t, resultCtx)
	require.NotNil(t, span)
	assert.False(t, span.SpanContext().IsValid(), "nil tracer should return no-op span")
	assert.NotPanics(t, func() { span.End() })
}

func TestStartSpan_ValidTracer(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)

	_, span := StartSpan(context.Background(), tp.Tracer("test"), "sync.source",
		trace.WithAttributes(AttrSourceName.String("line1")),
	)
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "sync.source", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, AttrSourceName.String("line1"))
}

func TestRecordError(t *testing.T) {
	t.Parallel()

	t.Run("nil error leaves span untouched", func(t *testing.T) {
		t.Parallel()

		exporter, tp := newTestTracerProvider(t)
		_, span := tp.Tracer("test").Start(context.Background(), "op")
		RecordError(span, nil)
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Unset, spans[0].Status.Code)
		assert.Empty(t, spans[0].Events)
	})

	t.Run("nil span does not panic", func(t *testing.T) {
		t.Parallel()
		assert.NotPanics(t, func() { RecordError(nil, errors.New("boom")) })
	})

	t.Run("error sets generic status", func(t *testing.T) {
		t.Parallel()

		exporter, tp := newTestTracerProvider(t)
		_, span := tp.Tracer("test").Start(context.Background(), "op")
		RecordError(span, errors.New("GET https://host/feed?token=secret failed"))
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		assert.Equal(t, "operation failed", spans[0].Status.Description)
		require.Len(t, spans[0].Events, 1)
	})
}

func TestRecordStageError(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)
	_, span := tp.Tracer("test").Start(context.Background(), "op")
	RecordStageError(span, "fetch", errors.New("timeout"))
	RecordStageError(span, "publish", nil)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, AttrStage.String("fetch"))
	assert.NotContains(t, spans[0].Attributes, AttrStage.String("publish"))
}
