// Package mirror copies the spider asset referenced by a feed into the output
// directory and points the feed at the copy.
package mirror

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tvbox-mirror/feed-mirror/internal/feed"
	"github.com/tvbox-mirror/feed-mirror/internal/httpclient"
)

// AssetStore persists a downloaded asset and returns its public URL
type AssetStore interface {
	StoreAsset(ctx context.Context, sourceName string, data []byte) (string, error)
}

// Result describes what happened to the spider reference of one document
type Result struct {
	// Skipped is set when the document has no usable spider reference
	Skipped bool
	// Original is the spider URL found in the document
	Original string
	// URL is the rewritten spider URL. It is empty when mirroring failed.
	URL string
	// Err is the download or store failure. The document is left unchanged when set.
	Err error
}

// Mirrored reports whether the spider reference was rewritten
func (r *Result) Mirrored() bool {
	return !r.Skipped && r.Err == nil
}

//go:generate mockgen -destination=mocks/mock_mirror.go -package=mocks -source=mirror.go AssetMirror

// AssetMirror downloads spider assets and rewrites spider references
type AssetMirror interface {
	// Mirror downloads the spider asset of doc and rewrites the reference in place.
	// Download failures are reported in Result.Err and never returned as an error.
	Mirror(ctx context.Context, doc *feed.Document, sourceName string) (*Result, error)
}

// defaultAssetMirror implements AssetMirror with an HTTP client and an asset store
type defaultAssetMirror struct {
	client httpclient.Client
	store  AssetStore
}

var _ AssetMirror = (*defaultAssetMirror)(nil)

// NewDefaultAssetMirror creates a new defaultAssetMirror
func NewDefaultAssetMirror(client httpclient.Client, store AssetStore) AssetMirror {
	return &defaultAssetMirror{
		client: client,
		store:  store,
	}
}

// Mirror downloads the spider asset of doc and rewrites the reference in place
func (m *defaultAssetMirror) Mirror(ctx context.Context, doc *feed.Document, sourceName string) (*Result, error) {
	spider, ok := doc.Spider()
	if !ok {
		slog.Debug("No spider reference, skipping asset mirror", "sourceName", sourceName)
		return &Result{Skipped: true}, nil
	}

	result := &Result{Original: spider}
	downloadURL := httpclient.CleanURL(spider)
	slog.Info("Mirroring spider asset",
		"sourceName", sourceName,
		"url", downloadURL)

	data, err := m.client.Get(ctx, downloadURL)
	if err != nil {
		slog.Warn("Failed to download spider asset, keeping original reference",
			"sourceName", sourceName,
			"url", downloadURL,
			"error", err)
		result.Err = fmt.Errorf("failed to download spider asset: %w", err)
		return result, nil
	}

	mirrorURL, err := m.store.StoreAsset(ctx, sourceName, data)
	if err != nil {
		slog.Warn("Failed to store spider asset, keeping original reference",
			"sourceName", sourceName,
			"error", err)
		result.Err = err
		return result, nil
	}

	if err := doc.SetSpider(mirrorURL); err != nil {
		return nil, fmt.Errorf("failed to rewrite spider reference: %w", err)
	}

	slog.Info("Spider asset mirrored",
		"sourceName", sourceName,
		"sizeBytes", len(data),
		"mirrorUrl", mirrorURL)
	result.URL = mirrorURL
	return result, nil
}
