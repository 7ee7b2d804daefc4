// Package publisher writes processed feeds into the output directory.
//
// The output directory has a flat layout that can be served as-is by any
// static web host:
//
//	{outputDir}/{sourceName}.json     cleaned feed document
//	{outputDir}/jar/{sourceName}.jar  mirrored spider asset
//	{outputDir}/all.json              index of every published feed
//
// Every file is written to a temporary sibling first and renamed into place,
// so a reader never observes a partially written file. Public URLs returned by
// the StorageManager are built from the mirror base URL with the same layout.
//
// GitCommitter optionally records the output directory in an existing git
// repository after a run.
package publisher
