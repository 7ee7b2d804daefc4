// Package otel provides tracing helpers shared by the sync pipeline.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys attached to sync spans
const (
	AttrRunID        = attribute.Key("feed.run.id")
	AttrSourceName   = attribute.Key("feed.source.name")
	AttrSourceType   = attribute.Key("feed.source.type")
	AttrSourceCount  = attribute.Key("feed.source.count")
	AttrStage        = attribute.Key("feed.sync.stage")
	AttrContentType  = attribute.Key("feed.content_type")
	AttrSitesRemoved = attribute.Key("feed.sites.removed")
	AttrAssetStatus  = attribute.Key("feed.asset.status")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns a no-op span.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records an error on a span and sets the span status to error.
// The status description stays generic because upstream URLs may carry tokens;
// the full error is kept on the span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}

// RecordStageError records err like RecordError and tags the pipeline stage that failed
func RecordStageError(span trace.Span, stage string, err error) {
	if err == nil || span == nil {
		return
	}
	span.SetAttributes(AttrStage.String(stage))
	RecordError(span, err)
}
