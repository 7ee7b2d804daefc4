// Package coordinator drives one feed-mirror run.
//
// A run takes an exclusive lock on the output directory, prepares the directory,
// syncs every configured source through a sync.Manager, writes all.json from the
// sources that succeeded, and optionally commits the output directory to git.
//
// Sources are independent: a failed source is logged, reported in the Summary
// and left out of the index, and the run continues. Only run-level failures
// (lock held, output directory not writable, index write or commit failure,
// cancellation) make Run return an error.
//
// With concurrency greater than one, sources are synced in parallel up to that
// limit. Every sync stores its result in the slot of its configured position,
// so the index order always equals the configured order.
//
// With status persistence enabled, each completed run records a status report.
// The next run reads it back and deletes the output of sources that are no
// longer configured before writing the new index.
//
// # Usage Example
//
//	storage := publisher.NewOSStorageManager(cfg.GetOutputDir(), cfg.MirrorBaseURL)
//	manager := sync.NewDefaultSyncManager(factory, storage, assetMirror)
//
//	summary, err := coordinator.New(manager, storage, cfg).Run(ctx)
//	if err != nil {
//	    return err
//	}
//	if summary.HasFailures() {
//	    slog.Warn("Some sources failed", "failed", len(summary.Failed))
//	}
package coordinator
