// Package sources provides interfaces and implementations for retrieving
// feed documents from upstream sources.
//
// The package defines the SourceHandler interface which abstracts the
// process of validating a source configuration and fetching its feed.
// Every handler runs the raw bytes through the content normalizer, so
// BOM stripping, image disguise decoding, GBK fallback and comment
// stripping behave the same regardless of where the bytes came from.
//
// Current implementations:
//   - httpSourceHandler: Retrieves feeds from http and https URLs
//   - fileSourceHandler: Retrieves feeds from file:// URLs or local paths
//
// The package provides a factory for creating the appropriate handler
// based on the type inferred from the source URL.
package sources
