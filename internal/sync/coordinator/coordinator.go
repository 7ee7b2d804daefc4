package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tvbox-mirror/feed-mirror/internal/config"
	"github.com/tvbox-mirror/feed-mirror/internal/feed"
	otelutil "github.com/tvbox-mirror/feed-mirror/internal/otel"
	"github.com/tvbox-mirror/feed-mirror/internal/publisher"
	"github.com/tvbox-mirror/feed-mirror/internal/status"
	pkgsync "github.com/tvbox-mirror/feed-mirror/internal/sync"
)

// LockFileName is created in the output directory while a run holds it
const LockFileName = ".feed-mirror.lock"

// ErrLocked is returned when another run holds the output directory
var ErrLocked = errors.New("output directory is locked by another run")

// Coordinator runs the sync pipeline over every configured source
type Coordinator interface {
	// Run syncs all sources, writes the global index and optionally commits the output.
	// Source failures are reported in the Summary; only run-level failures return an error.
	Run(ctx context.Context) (*Summary, error)
}

// FailedSource describes a source whose sync failed
type FailedSource struct {
	Name    string
	Stage   string
	Reason  string
	Message string
}

// Summary is the outcome of a run
type Summary struct {
	RunID string
	// Published holds the index entries in configured source order
	Published []*feed.IndexEntry
	Failed    []FailedSource
	// Pruned lists sources of the previous run whose output was removed
	// because they are no longer configured
	Pruned []string
	// CommitHash is set when the output was committed
	CommitHash string
	Duration   time.Duration
}

// HasFailures reports whether any source failed
func (s *Summary) HasFailures() bool {
	return len(s.Failed) > 0
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithGitCommitter commits the output directory after the index is written
func WithGitCommitter(committer publisher.GitCommitter, message string) Option {
	return func(c *defaultCoordinator) {
		c.committer = committer
		c.commitMessage = message
	}
}

// WithTracer enables a span around the run
func WithTracer(tracer trace.Tracer) Option {
	return func(c *defaultCoordinator) {
		c.tracer = tracer
	}
}

// WithStatusPersistence records a status report of every completed run
func WithStatusPersistence(persistence status.StatusPersistence) Option {
	return func(c *defaultCoordinator) {
		c.statusPersistence = persistence
	}
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager pkgsync.Manager
	storage publisher.StorageManager
	config  *config.Config

	committer     publisher.GitCommitter
	commitMessage string
	tracer        trace.Tracer
	newRunID      func() string

	statusPersistence status.StatusPersistence
}

// New creates a new coordinator with injected dependencies
func New(
	manager pkgsync.Manager,
	storage publisher.StorageManager,
	cfg *config.Config,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		manager:  manager,
		storage:  storage,
		config:   cfg,
		newRunID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run syncs all sources and publishes the index
func (c *defaultCoordinator) Run(ctx context.Context) (*Summary, error) {
	startTime := time.Now()
	runID := c.newRunID()
	logger := slog.Default().With("runID", runID)

	ctx, span := otelutil.StartSpan(ctx, c.tracer, "coordinator.Run",
		trace.WithAttributes(
			otelutil.AttrRunID.String(runID),
			otelutil.AttrSourceCount.Int(len(c.config.Sources)),
		))
	defer span.End()

	unlock, err := c.lockOutputDir()
	if err != nil {
		otelutil.RecordError(span, err)
		return nil, err
	}
	defer unlock()

	if err := c.storage.Prepare(ctx); err != nil {
		otelutil.RecordError(span, err)
		return nil, fmt.Errorf("failed to prepare output directory: %w", err)
	}

	logger.Info("Starting run",
		"sourceCount", len(c.config.Sources),
		"concurrency", c.config.GetConcurrency(),
		"outputDir", c.config.GetOutputDir())

	results, syncErrs := c.syncSources(ctx, logger)
	if err := ctx.Err(); err != nil {
		otelutil.RecordError(span, err)
		return nil, fmt.Errorf("run interrupted: %w", err)
	}

	summary := &Summary{RunID: runID}
	for i := range c.config.Sources {
		if syncErrs[i] != nil {
			summary.Failed = append(summary.Failed, FailedSource{
				Name:    c.config.Sources[i].Name,
				Stage:   syncErrs[i].Stage,
				Reason:  syncErrs[i].Reason,
				Message: syncErrs[i].Message,
			})
			continue
		}
		summary.Published = append(summary.Published, results[i].Entry)
	}
	summary.Pruned = c.pruneRemovedSources(ctx, logger)

	if err := c.storage.StoreIndex(ctx, feed.NewIndex(summary.Published)); err != nil {
		otelutil.RecordError(span, err)
		return nil, fmt.Errorf("failed to publish index: %w", err)
	}

	if c.committer != nil {
		hash, err := c.committer.Commit(ctx, c.commitMessage)
		switch {
		case errors.Is(err, publisher.ErrNothingToCommit):
			logger.Info("Output unchanged, nothing to commit")
		case err != nil:
			otelutil.RecordError(span, err)
			return nil, fmt.Errorf("failed to commit output: %w", err)
		default:
			summary.CommitHash = hash
		}
	}

	summary.Duration = time.Since(startTime)
	c.saveStatus(ctx, logger, summary, startTime, results, syncErrs)
	logger.Info("Run completed",
		"published", len(summary.Published),
		"failed", len(summary.Failed),
		"pruned", len(summary.Pruned),
		"duration", summary.Duration.String())

	return summary, nil
}

// saveStatus records the run report. A failure is logged and does not fail the run.
func (c *defaultCoordinator) saveStatus(
	ctx context.Context,
	logger *slog.Logger,
	summary *Summary,
	startTime time.Time,
	results []*pkgsync.Result,
	syncErrs []*pkgsync.Error,
) {
	if c.statusPersistence == nil {
		return
	}

	report := &status.RunStatus{
		RunID:      summary.RunID,
		StartedAt:  startTime.UTC(),
		FinishedAt: startTime.Add(summary.Duration).UTC(),
		CommitHash: summary.CommitHash,
		Sources:    make([]status.SourceStatus, 0, len(c.config.Sources)),
	}
	for i, source := range c.config.Sources {
		if syncErrs[i] != nil {
			report.Sources = append(report.Sources, status.SourceStatus{
				Name:    source.Name,
				Phase:   status.SourcePhaseFailed,
				Stage:   syncErrs[i].Stage,
				Reason:  syncErrs[i].Reason,
				Message: syncErrs[i].Message,
			})
			continue
		}
		result := results[i]
		report.Sources = append(report.Sources, status.SourceStatus{
			Name:          source.Name,
			Phase:         status.SourcePhasePublished,
			URL:           result.Entry.URL,
			Hash:          result.Hash,
			SiteCount:     result.SiteCount,
			SitesRemoved:  result.SitesRemoved,
			AssetMirrored: result.Asset != nil && result.Asset.Mirrored(),
		})
	}

	if err := c.statusPersistence.SaveStatus(ctx, report); err != nil {
		logger.WarnContext(ctx, "Failed to save run status", "error", err)
	}
}

// pruneRemovedSources deletes the output of sources recorded in the previous
// run status that are no longer configured. Failures are logged and skipped.
func (c *defaultCoordinator) pruneRemovedSources(ctx context.Context, logger *slog.Logger) []string {
	if c.statusPersistence == nil {
		return nil
	}

	previous, err := c.statusPersistence.LoadStatus(ctx)
	if err != nil {
		if !errors.Is(err, status.ErrNoStatus) {
			logger.WarnContext(ctx, "Failed to load previous run status, skipping prune", "error", err)
		}
		return nil
	}

	configured := make(map[string]struct{}, len(c.config.Sources))
	for _, source := range c.config.Sources {
		configured[source.Name] = struct{}{}
	}

	var pruned []string
	for _, source := range previous.Sources {
		if _, ok := configured[source.Name]; ok {
			continue
		}
		// Names come from a file on disk; never follow one out of the output directory
		if source.Name == "" || source.Name != filepath.Base(source.Name) || strings.HasPrefix(source.Name, ".") {
			logger.WarnContext(ctx, "Ignoring invalid source name in previous run status", "sourceName", source.Name)
			continue
		}
		if err := c.manager.Delete(ctx, source.Name); err != nil {
			logger.WarnContext(ctx, "Failed to prune removed source", "sourceName", source.Name, "error", err)
			continue
		}
		logger.InfoContext(ctx, "Pruned removed source", "sourceName", source.Name)
		pruned = append(pruned, source.Name)
	}
	return pruned
}

// syncSources runs every source with at most GetConcurrency syncs in flight.
// Each sync writes only its own slot, so slot order is configured order.
func (c *defaultCoordinator) syncSources(ctx context.Context, logger *slog.Logger) ([]*pkgsync.Result, []*pkgsync.Error) {
	sources := c.config.Sources
	results := make([]*pkgsync.Result, len(sources))
	syncErrs := make([]*pkgsync.Error, len(sources))

	var g errgroup.Group
	g.SetLimit(c.config.GetConcurrency())

	for i := range sources {
		source := &sources[i]
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			logger.Info("Processing source", "sourceName", source.Name, "url", source.URL)
			results[i], syncErrs[i] = c.manager.PerformSync(ctx, source)
			if syncErrs[i] != nil {
				logger.Warn("Skipping failed source",
					"sourceName", source.Name,
					"stage", syncErrs[i].Stage,
					"error", syncErrs[i].Message)
			}
			return nil
		})
	}

	// Goroutines never return errors; failures are kept per slot
	_ = g.Wait()
	return results, syncErrs
}

// lockOutputDir takes the exclusive run lock of the output directory
func (c *defaultCoordinator) lockOutputDir() (func(), error) {
	outputDir := c.config.GetOutputDir()
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(outputDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock output directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lock.Path())
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("Failed to release output directory lock", "error", err)
		}
	}, nil
}
