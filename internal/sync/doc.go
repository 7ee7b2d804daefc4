// Package sync runs the per-source pipeline of feed-mirror.
//
// # Core Interfaces
//
//   - Manager: runs one source from fetch to publish (PerformSync) and removes
//     the published output of a source (Delete)
//
// # Pipeline
//
// PerformSync executes the stages in order, each one in its own span:
//
//   - fetch: the source handler for the URL type downloads or reads the feed and
//     normalizes it (BOM, image disguise, GBK fallback, comments)
//   - filter: sites whose name contains a block-listed substring are removed
//   - mirror: the spider asset is copied into the output directory and the
//     reference rewritten; a failed download keeps the original reference
//   - publish: the document is written and its index entry returned
//
// A failure in any stage other than the asset download ends the sync of that
// source with an Error carrying the Stage and a Reason from the failure
// taxonomy (network-error, decode-error, parse-error, ...). The feed file of a
// failed source is never written.
//
// # Coordinator Package
//
// The sync/coordinator subpackage runs a Manager over every configured source,
// folds the index entries in configured order and writes the global index.
package sync
