package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/tvbox-mirror/feed-mirror/sync"

	attrSource  = "source"
	attrSuccess = "success"
)

// SyncMetrics holds the OpenTelemetry instruments for per-source sync metrics
type SyncMetrics struct {
	syncDuration metric.Float64Histogram
	sitesRemoved metric.Int64Counter
	assetMirrors metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"feed_mirror_sync_duration_seconds",
		metric.WithDescription("Duration of a source sync in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return nil, err
	}

	sitesRemoved, err := meter.Int64Counter(
		"feed_mirror_sites_removed_total",
		metric.WithDescription("Number of sites removed by block lists"),
		metric.WithUnit("{site}"),
	)
	if err != nil {
		return nil, err
	}

	assetMirrors, err := meter.Int64Counter(
		"feed_mirror_asset_mirrors_total",
		metric.WithDescription("Number of spider asset mirror attempts"),
		metric.WithUnit("{asset}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration: syncDuration,
		sitesRemoved: sitesRemoved,
		assetMirrors: assetMirrors,
	}, nil
}

// RecordSyncDuration records the duration of a source sync
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, sourceName string, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrSource, sourceName),
		attribute.Bool(attrSuccess, success),
	))
}

// RecordSitesRemoved adds the number of sites a block list removed from a source
func (m *SyncMetrics) RecordSitesRemoved(ctx context.Context, sourceName string, removed int) {
	if m == nil || m.sitesRemoved == nil {
		return
	}

	m.sitesRemoved.Add(ctx, int64(removed), metric.WithAttributes(
		attribute.String(attrSource, sourceName),
	))
}

// RecordAssetMirror counts one spider asset mirror attempt
func (m *SyncMetrics) RecordAssetMirror(ctx context.Context, sourceName string, success bool) {
	if m == nil || m.assetMirrors == nil {
		return
	}

	m.assetMirrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrSource, sourceName),
		attribute.Bool(attrSuccess, success),
	))
}
