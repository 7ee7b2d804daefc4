package sources

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/tvbox-mirror/feed-mirror/internal/config"
	"github.com/tvbox-mirror/feed-mirror/internal/feed"
)

//go:generate mockgen -destination=mocks/mock_source_handler.go -package=mocks -source=types.go SourceHandler,SourceHandlerFactory

// SourceHandler is an interface with methods to fetch feeds from upstream sources
type SourceHandler interface {
	// FetchFeed retrieves and normalizes the feed of a source
	FetchFeed(ctx context.Context, source *config.SourceConfig) (*FetchResult, error)

	// Validate validates the source configuration
	Validate(source *config.SourceConfig) error
}

// FetchResult contains the result of a fetch operation
type FetchResult struct {
	// Document is the normalized feed
	Document *feed.Document

	// Hash is the SHA256 hash of the raw bytes as received
	Hash string

	// ContentType is the declared content type, empty for local files
	ContentType string

	// SizeBytes is the size of the raw bytes as received
	SizeBytes int

	// SiteCount is the number of sites in the normalized feed
	SiteCount int
}

// NewFetchResult creates a FetchResult from a normalized document and the raw bytes it came from
func NewFetchResult(doc *feed.Document, raw []byte, contentType string) *FetchResult {
	siteCount := 0
	if doc != nil {
		siteCount = len(doc.Sites())
	}

	return &FetchResult{
		Document:    doc,
		Hash:        fmt.Sprintf("%x", sha256.Sum256(raw)),
		ContentType: contentType,
		SizeBytes:   len(raw),
		SiteCount:   siteCount,
	}
}

// SourceHandlerFactory creates source handlers based on source type
type SourceHandlerFactory interface {
	// CreateHandler creates a source handler for the given source type
	CreateHandler(sourceType string) (SourceHandler, error)
}
