package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
	}{
		{name: "no config", opts: nil},
		{name: "disabled config", opts: []Option{WithTelemetryConfig(&Config{Enabled: false})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			tel, err := New(ctx, tt.opts...)
			require.NoError(t, err)

			_, ok := tel.TracerProvider().(tracenoop.TracerProvider)
			assert.True(t, ok)
			_, ok = tel.MeterProvider().(noop.MeterProvider)
			assert.True(t, ok)
			assert.NotNil(t, tel.Tracer("x"))
			assert.NotNil(t, tel.Meter("x"))

			assert.NoError(t, tel.WriteTextfile())
			assert.NoError(t, tel.Shutdown(ctx))
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), WithTelemetryConfig(&Config{
		Enabled: true,
		Tracing: &TracingConfig{Enabled: true, Sampling: 2},
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid telemetry configuration")
}

func TestNew_EnabledWithTextfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	textfile := filepath.Join(t.TempDir(), "feed_mirror.prom")
	exporter := tracetest.NewInMemoryExporter()

	tel, err := New(ctx,
		WithTelemetryConfig(&Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: true},
			Metrics: &MetricsConfig{Enabled: true, DisableOTLP: true, Textfile: textfile},
		}),
		WithDefaultServiceVersion("v1.0.0"),
		WithTraceExporter(exporter),
	)
	require.NoError(t, err)

	_, ok := tel.TracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok, "expected SDK tracer provider")
	_, ok = tel.MeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, ok, "expected SDK meter provider")

	metrics, err := NewSyncMetrics(tel.MeterProvider())
	require.NoError(t, err)
	metrics.RecordSitesRemoved(ctx, "line1", 4)

	require.NoError(t, tel.WriteTextfile())
	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "feed_mirror_sites_removed")
	assert.Contains(t, string(data), `source="line1"`)

	rec := httptest.NewRecorder()
	tel.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "feed_mirror_sites_removed")

	_, span := tel.Tracer("test").Start(ctx, "run")
	span.End()
	require.NoError(t, tel.Shutdown(ctx))
	assert.Len(t, exporter.GetSpans(), 1)
}
