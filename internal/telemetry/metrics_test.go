package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newManualMetrics(t *testing.T) (*SyncMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := NewSyncMetrics(mp)
	require.NoError(t, err)
	require.NotNil(t, metrics)
	return metrics, reader
}

func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != SyncMetricsMeterName {
			continue
		}
		for _, m := range scope.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %s not found", name)
	return metricdata.Metrics{}
}

func TestNewSyncMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewSyncMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("creates metrics with SDK provider", func(t *testing.T) {
		t.Parallel()

		metrics, _ := newManualMetrics(t)
		assert.NotNil(t, metrics.syncDuration)
		assert.NotNil(t, metrics.sitesRemoved)
		assert.NotNil(t, metrics.assetMirrors)
	})
}

func TestSyncMetrics_NilIsNoOp(t *testing.T) {
	t.Parallel()

	var metrics *SyncMetrics
	ctx := context.Background()

	// None of these should panic
	metrics.RecordSyncDuration(ctx, "line1", time.Second, true)
	metrics.RecordSitesRemoved(ctx, "line1", 2)
	metrics.RecordAssetMirror(ctx, "line1", false)
}

func TestSyncMetrics_RecordSyncDuration(t *testing.T) {
	t.Parallel()

	metrics, reader := newManualMetrics(t)
	metrics.RecordSyncDuration(context.Background(), "line1", 1500*time.Millisecond, true)

	m := collectMetric(t, reader, "feed_mirror_sync_duration_seconds")
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "expected histogram data type")
	require.Len(t, hist.DataPoints, 1)
	assert.InDelta(t, 1.5, hist.DataPoints[0].Sum, 0.001)

	source, ok := hist.DataPoints[0].Attributes.Value(attribute.Key(attrSource))
	require.True(t, ok)
	assert.Equal(t, "line1", source.AsString())
	success, ok := hist.DataPoints[0].Attributes.Value(attribute.Key(attrSuccess))
	require.True(t, ok)
	assert.True(t, success.AsBool())
}

func TestSyncMetrics_RecordSitesRemoved(t *testing.T) {
	t.Parallel()

	metrics, reader := newManualMetrics(t)
	ctx := context.Background()
	metrics.RecordSitesRemoved(ctx, "line1", 2)
	metrics.RecordSitesRemoved(ctx, "line1", 3)
	metrics.RecordSitesRemoved(ctx, "line2", 0)

	m := collectMetric(t, reader, "feed_mirror_sites_removed_total")
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected sum data type")
	assert.True(t, sum.IsMonotonic)

	totals := map[string]int64{}
	for _, dp := range sum.DataPoints {
		source, _ := dp.Attributes.Value(attribute.Key(attrSource))
		totals[source.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"line1": 5, "line2": 0}, totals)
}

func TestSyncMetrics_RecordAssetMirror(t *testing.T) {
	t.Parallel()

	metrics, reader := newManualMetrics(t)
	ctx := context.Background()
	metrics.RecordAssetMirror(ctx, "line1", true)
	metrics.RecordAssetMirror(ctx, "line2", false)
	metrics.RecordAssetMirror(ctx, "line3", false)

	m := collectMetric(t, reader, "feed_mirror_asset_mirrors_total")
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	bySuccess := map[bool]int64{}
	for _, dp := range sum.DataPoints {
		success, _ := dp.Attributes.Value(attribute.Key(attrSuccess))
		bySuccess[success.AsBool()] += dp.Value
	}
	assert.Equal(t, int64(1), bySuccess[true])
	assert.Equal(t, int64(2), bySuccess[false])
}
