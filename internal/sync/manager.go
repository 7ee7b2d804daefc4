package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/tvbox-mirror/feed-mirror/internal/config"
	"github.com/tvbox-mirror/feed-mirror/internal/content"
	"github.com/tvbox-mirror/feed-mirror/internal/feed"
	"github.com/tvbox-mirror/feed-mirror/internal/filtering"
	"github.com/tvbox-mirror/feed-mirror/internal/httpclient"
	"github.com/tvbox-mirror/feed-mirror/internal/mirror"
	otelutil "github.com/tvbox-mirror/feed-mirror/internal/otel"
	"github.com/tvbox-mirror/feed-mirror/internal/publisher"
	"github.com/tvbox-mirror/feed-mirror/internal/sources"
	"github.com/tvbox-mirror/feed-mirror/internal/telemetry"
)

// Result contains the result of a successful sync operation
type Result struct {
	// Entry is the index entry of the published feed
	Entry *feed.IndexEntry
	// Hash is the SHA256 hash of the raw upstream bytes
	Hash string
	// SiteCount is the number of sites left after filtering
	SiteCount int
	// SitesRemoved is the number of sites dropped by the block list
	SitesRemoved int
	// Asset describes the spider mirror outcome
	Asset *mirror.Result
}

// Pipeline stages reported by Error
const (
	StageFetch   = "fetch"
	StageFilter  = "filter"
	StageMirror  = "mirror"
	StagePublish = "publish"
)

// Failure reasons reported by Error
const (
	ReasonHandlerCreationFailed = "handler-creation-failed"
	ReasonValidationFailed      = "validation-failed"
	ReasonNetworkError          = "network-error"
	ReasonDecodeError           = "decode-error"
	ReasonParseError            = "parse-error"
	ReasonSourceUnavailable     = "source-unavailable"
	ReasonFilterFailed          = "filter-failed"
	ReasonMirrorFailed          = "mirror-failed"
	ReasonStorageFailed         = "storage-failed"
)

// Error represents a structured per-source failure
type Error struct {
	Err     error
	Message string
	Stage   string
	Reason  string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Manager runs the pipeline of a single source
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/tvbox-mirror/feed-mirror/internal/sync Manager
type Manager interface {
	// PerformSync fetches, filters, mirrors and publishes one source.
	// Nothing is written for a source whose sync fails.
	PerformSync(ctx context.Context, source *config.SourceConfig) (*Result, *Error)

	// Delete removes the published output of a source
	Delete(ctx context.Context, sourceName string) error
}

// Option configures a defaultSyncManager
type Option func(*defaultSyncManager)

// WithFilterService replaces the default filter service
func WithFilterService(filterService filtering.FilterService) Option {
	return func(m *defaultSyncManager) {
		m.filterService = filterService
	}
}

// WithSyncMetrics records per-source metrics. A nil value disables them.
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(m *defaultSyncManager) {
		m.metrics = metrics
	}
}

// WithTracer enables per-stage spans
func WithTracer(tracer trace.Tracer) Option {
	return func(m *defaultSyncManager) {
		m.tracer = tracer
	}
}

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	sourceHandlerFactory sources.SourceHandlerFactory
	storageManager       publisher.StorageManager
	assetMirror          mirror.AssetMirror
	filterService        filtering.FilterService
	metrics              *telemetry.SyncMetrics
	tracer               trace.Tracer
}

var _ Manager = (*defaultSyncManager)(nil)

// NewDefaultSyncManager creates a new defaultSyncManager
func NewDefaultSyncManager(
	sourceHandlerFactory sources.SourceHandlerFactory,
	storageManager publisher.StorageManager,
	assetMirror mirror.AssetMirror,
	opts ...Option,
) Manager {
	m := &defaultSyncManager{
		sourceHandlerFactory: sourceHandlerFactory,
		storageManager:       storageManager,
		assetMirror:          assetMirror,
		filterService:        filtering.NewDefaultFilterService(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PerformSync performs the complete sync operation for a single source
func (s *defaultSyncManager) PerformSync(ctx context.Context, source *config.SourceConfig) (*Result, *Error) {
	ctx, span := otelutil.StartSpan(ctx, s.tracer, "sync.PerformSync",
		trace.WithAttributes(
			otelutil.AttrSourceName.String(source.Name),
			otelutil.AttrSourceType.String(source.GetType()),
		))
	defer span.End()

	start := time.Now()
	result, syncErr := s.performSync(ctx, source)
	s.metrics.RecordSyncDuration(ctx, source.Name, time.Since(start), syncErr == nil)

	if syncErr != nil {
		otelutil.RecordStageError(span, syncErr.Stage, syncErr)
		slog.ErrorContext(ctx, "Source sync failed",
			"sourceName", source.Name,
			"stage", syncErr.Stage,
			"reason", syncErr.Reason,
			"error", syncErr.Err)
		return nil, syncErr
	}
	return result, nil
}

func (s *defaultSyncManager) performSync(ctx context.Context, source *config.SourceConfig) (*Result, *Error) {
	fetchResult, syncErr := s.fetch(ctx, source)
	if syncErr != nil {
		return nil, syncErr
	}

	filtered, syncErr := s.filter(ctx, source, fetchResult.Document)
	if syncErr != nil {
		return nil, syncErr
	}
	doc := filtered.Document

	assetResult, syncErr := s.mirrorAsset(ctx, source, doc)
	if syncErr != nil {
		return nil, syncErr
	}

	entry, syncErr := s.store(ctx, source, doc)
	if syncErr != nil {
		// A source that is not published leaves no asset behind
		if assetResult.Mirrored() {
			if err := s.storageManager.DeleteAsset(ctx, source.Name); err != nil {
				slog.WarnContext(ctx, "Failed to remove mirrored asset of unpublished source",
					"sourceName", source.Name,
					"error", err)
			}
		}
		return nil, syncErr
	}

	return &Result{
		Entry:        entry,
		Hash:         fetchResult.Hash,
		SiteCount:    len(doc.Sites()),
		SitesRemoved: filtered.Removed,
		Asset:        assetResult,
	}, nil
}

// Delete removes the published output of a source
func (s *defaultSyncManager) Delete(ctx context.Context, sourceName string) error {
	return s.storageManager.Delete(ctx, sourceName)
}

// fetch creates the handler for the source type, validates the source and fetches its feed
func (s *defaultSyncManager) fetch(ctx context.Context, source *config.SourceConfig) (*sources.FetchResult, *Error) {
	ctx, span := otelutil.StartSpan(ctx, s.tracer, "sync.fetch")
	defer span.End()

	handler, err := s.sourceHandlerFactory.CreateHandler(source.GetType())
	if err != nil {
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Failed to create source handler: %v", err),
			Stage:   StageFetch,
			Reason:  ReasonHandlerCreationFailed,
		}
	}

	if err := handler.Validate(source); err != nil {
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Source validation failed: %v", err),
			Stage:   StageFetch,
			Reason:  ReasonValidationFailed,
		}
	}

	fetchResult, err := handler.FetchFeed(ctx, source)
	if err != nil {
		otelutil.RecordError(span, err)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Fetch failed: %v", err),
			Stage:   StageFetch,
			Reason:  fetchFailureReason(err),
		}
	}

	span.SetAttributes(otelutil.AttrContentType.String(fetchResult.ContentType))
	slog.InfoContext(ctx, "Feed fetched successfully from source",
		"sourceName", source.Name,
		"siteCount", fetchResult.SiteCount,
		"sizeBytes", fetchResult.SizeBytes,
		"hash", fetchResult.Hash)

	return fetchResult, nil
}

// fetchFailureReason maps a fetch error onto the failure taxonomy
func fetchFailureReason(err error) string {
	switch {
	case errors.Is(err, httpclient.ErrNetwork):
		return ReasonNetworkError
	case errors.Is(err, content.ErrDecode):
		return ReasonDecodeError
	case errors.Is(err, content.ErrParse):
		return ReasonParseError
	default:
		return ReasonSourceUnavailable
	}
}

// filter applies the block list of the source
func (s *defaultSyncManager) filter(
	ctx context.Context, source *config.SourceConfig, doc *feed.Document,
) (*filtering.Result, *Error) {
	ctx, span := otelutil.StartSpan(ctx, s.tracer, "sync.filter")
	defer span.End()

	filtered, err := s.filterService.ApplyFilters(ctx, doc, source.BlockList)
	if err != nil {
		otelutil.RecordError(span, err)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Filtering failed: %v", err),
			Stage:   StageFilter,
			Reason:  ReasonFilterFailed,
		}
	}

	span.SetAttributes(otelutil.AttrSitesRemoved.Int(filtered.Removed))
	s.metrics.RecordSitesRemoved(ctx, source.Name, filtered.Removed)
	return filtered, nil
}

// mirrorAsset mirrors the spider asset. A failed download keeps the original reference.
func (s *defaultSyncManager) mirrorAsset(
	ctx context.Context, source *config.SourceConfig, doc *feed.Document,
) (*mirror.Result, *Error) {
	ctx, span := otelutil.StartSpan(ctx, s.tracer, "sync.mirror")
	defer span.End()

	assetResult, err := s.assetMirror.Mirror(ctx, doc, source.Name)
	if err != nil {
		otelutil.RecordError(span, err)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Asset mirror failed: %v", err),
			Stage:   StageMirror,
			Reason:  ReasonMirrorFailed,
		}
	}

	switch {
	case assetResult.Skipped:
		span.SetAttributes(otelutil.AttrAssetStatus.String("skipped"))
	case assetResult.Mirrored():
		span.SetAttributes(otelutil.AttrAssetStatus.String("mirrored"))
		s.metrics.RecordAssetMirror(ctx, source.Name, true)
	default:
		span.SetAttributes(otelutil.AttrAssetStatus.String("failed"))
		s.metrics.RecordAssetMirror(ctx, source.Name, false)
	}
	return assetResult, nil
}

// store publishes the document using the storage manager
func (s *defaultSyncManager) store(
	ctx context.Context, source *config.SourceConfig, doc *feed.Document,
) (*feed.IndexEntry, *Error) {
	ctx, span := otelutil.StartSpan(ctx, s.tracer, "sync.publish")
	defer span.End()

	entry, err := s.storageManager.Store(ctx, source.Name, doc)
	if err != nil {
		otelutil.RecordError(span, err)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Storage failed: %v", err),
			Stage:   StagePublish,
			Reason:  ReasonStorageFailed,
		}
	}

	slog.InfoContext(ctx, "Source published", "sourceName", source.Name, "url", entry.URL)
	return entry, nil
}
