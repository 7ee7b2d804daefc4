package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/tvbox-mirror/feed-mirror/internal/config"
	"github.com/tvbox-mirror/feed-mirror/internal/content"
)

// ErrFileNotFound is returned when a file source points at a missing file
var ErrFileNotFound = errors.New("file not found")

// fileSourceHandler handles feeds stored on the local filesystem
type fileSourceHandler struct{}

var _ SourceHandler = (*fileSourceHandler)(nil)

// NewFileSourceHandler creates a new file source handler
func NewFileSourceHandler() SourceHandler {
	return &fileSourceHandler{}
}

// Validate validates the file source configuration
func (*fileSourceHandler) Validate(source *config.SourceConfig) error {
	if source == nil {
		return fmt.Errorf("source configuration cannot be nil")
	}

	if source.GetType() != config.SourceTypeFile {
		return fmt.Errorf("invalid source type: expected %s, got %q",
			config.SourceTypeFile, source.GetType())
	}

	if source.FilePath() == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	return nil
}

// FetchFeed reads the file and normalizes it.
// Local files carry no content type, so image disguises are detected by magic bytes only.
func (h *fileSourceHandler) FetchFeed(ctx context.Context, source *config.SourceConfig) (*FetchResult, error) {
	if err := h.Validate(source); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath := source.FilePath()

	//nolint:gosec // File path comes from user configuration, this is expected behavior
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	doc, err := content.Normalize(data, "")
	if err != nil {
		return nil, fmt.Errorf("failed to normalize feed: %w", err)
	}

	return NewFetchResult(doc, data, ""), nil
}
