package sources

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tvbox-mirror/feed-mirror/internal/config"
	"github.com/tvbox-mirror/feed-mirror/internal/content"
	"github.com/tvbox-mirror/feed-mirror/internal/httpclient"
)

// httpSourceHandler handles feeds served over http and https
type httpSourceHandler struct {
	httpClient httpclient.Client
}

var _ SourceHandler = (*httpSourceHandler)(nil)

// NewHTTPSourceHandler creates a new http source handler
func NewHTTPSourceHandler(httpClient httpclient.Client) SourceHandler {
	return &httpSourceHandler{httpClient: httpClient}
}

// Validate validates the http source configuration
func (*httpSourceHandler) Validate(source *config.SourceConfig) error {
	if source == nil {
		return fmt.Errorf("source configuration cannot be nil")
	}

	if source.GetType() != config.SourceTypeHTTP {
		return fmt.Errorf("invalid source type: expected %s, got %q",
			config.SourceTypeHTTP, source.GetType())
	}

	return nil
}

// FetchFeed downloads the feed and normalizes it
func (h *httpSourceHandler) FetchFeed(ctx context.Context, source *config.SourceConfig) (*FetchResult, error) {
	if err := h.Validate(source); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	resp, err := h.httpClient.Fetch(ctx, source.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	slog.DebugContext(ctx, "Fetched feed",
		"sourceName", source.Name,
		"statusCode", resp.StatusCode,
		"contentType", resp.ContentType,
		"sizeBytes", len(resp.Body))

	doc, err := content.Normalize(resp.Body, resp.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize feed: %w", err)
	}

	return NewFetchResult(doc, resp.Body, resp.ContentType), nil
}
