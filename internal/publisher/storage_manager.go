package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/tvbox-mirror/feed-mirror/internal/feed"
)

const (
	// IndexFileName is the name of the global index file
	IndexFileName = "all.json"

	// AssetDir is the output subdirectory holding mirrored spider assets
	AssetDir = "jar"

	feedExt  = ".json"
	assetExt = ".jar"
	tmpExt   = ".tmp"

	dirPerm = 0755
	// Published files are meant to be served, so they are world readable
	filePerm = 0644
)

// ErrNotFound is returned by Get when no feed was published for a source
var ErrNotFound = errors.New("feed not found")

//go:generate mockgen -destination=mocks/mock_storage_manager.go -package=mocks -source=storage_manager.go StorageManager

// StorageManager defines the interface for published feed persistence
type StorageManager interface {
	// Prepare creates the output directory and its asset subdirectory
	Prepare(ctx context.Context) error

	// Store writes a feed document and returns its index entry
	Store(ctx context.Context, sourceName string, doc *feed.Document) (*feed.IndexEntry, error)

	// StoreAsset writes a mirrored spider asset and returns its public URL
	StoreAsset(ctx context.Context, sourceName string, data []byte) (string, error)

	// StoreIndex writes the global index, replacing any previous one
	StoreIndex(ctx context.Context, index *feed.Index) error

	// Get reads back a published feed document
	Get(ctx context.Context, sourceName string) (*feed.Document, error)

	// Delete removes the published feed and asset of a source
	Delete(ctx context.Context, sourceName string) error

	// DeleteAsset removes only the mirrored asset of a source
	DeleteAsset(ctx context.Context, sourceName string) error
}

// fileStorageManager implements StorageManager on top of an afero filesystem
type fileStorageManager struct {
	fs            afero.Fs
	basePath      string
	mirrorBaseURL string
}

var _ StorageManager = (*fileStorageManager)(nil)

// NewFileStorageManager creates a storage manager writing below basePath on fs.
// mirrorBaseURL is the public URL basePath is served from.
func NewFileStorageManager(fs afero.Fs, basePath, mirrorBaseURL string) StorageManager {
	return &fileStorageManager{
		fs:            fs,
		basePath:      basePath,
		mirrorBaseURL: strings.TrimSuffix(mirrorBaseURL, "/"),
	}
}

// NewOSStorageManager creates a storage manager writing to the local filesystem
func NewOSStorageManager(basePath, mirrorBaseURL string) StorageManager {
	return NewFileStorageManager(afero.NewOsFs(), basePath, mirrorBaseURL)
}

// Prepare creates the output directory and its asset subdirectory
func (f *fileStorageManager) Prepare(_ context.Context) error {
	if err := f.fs.MkdirAll(filepath.Join(f.basePath, AssetDir), dirPerm); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Store writes the feed document with four-space indentation and returns its index entry
func (f *fileStorageManager) Store(_ context.Context, sourceName string, doc *feed.Document) (*feed.IndexEntry, error) {
	data, err := doc.MarshalIndent()
	if err != nil {
		return nil, err
	}

	if err := f.writeAtomic(f.feedPath(sourceName), data); err != nil {
		return nil, fmt.Errorf("failed to store feed %s: %w", sourceName, err)
	}

	return &feed.IndexEntry{
		Name: sourceName,
		URL:  f.publicURL(sourceName + feedExt),
	}, nil
}

// StoreAsset writes the spider asset of a source and returns its public URL
func (f *fileStorageManager) StoreAsset(_ context.Context, sourceName string, data []byte) (string, error) {
	if err := f.writeAtomic(f.assetPath(sourceName), data); err != nil {
		return "", fmt.Errorf("failed to store asset for %s: %w", sourceName, err)
	}
	return f.publicURL(AssetDir, sourceName+assetExt), nil
}

// StoreIndex writes all.json
func (f *fileStorageManager) StoreIndex(_ context.Context, index *feed.Index) error {
	data, err := index.MarshalIndent()
	if err != nil {
		return err
	}
	if err := f.writeAtomic(filepath.Join(f.basePath, IndexFileName), data); err != nil {
		return fmt.Errorf("failed to store index: %w", err)
	}
	return nil
}

// Get reads back the published feed document of a source
func (f *fileStorageManager) Get(_ context.Context, sourceName string) (*feed.Document, error) {
	data, err := afero.ReadFile(f.fs, f.feedPath(sourceName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, sourceName)
		}
		return nil, fmt.Errorf("failed to read feed file: %w", err)
	}

	doc, err := feed.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed file: %w", err)
	}
	return doc, nil
}

// Delete removes the feed and asset files of a source. Missing files are ignored.
func (f *fileStorageManager) Delete(_ context.Context, sourceName string) error {
	for _, p := range []string{f.feedPath(sourceName), f.assetPath(sourceName)} {
		if err := f.fs.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete %s: %w", p, err)
		}
	}
	return nil
}

// DeleteAsset removes the asset file of a source. A missing file is ignored.
func (f *fileStorageManager) DeleteAsset(_ context.Context, sourceName string) error {
	p := f.assetPath(sourceName)
	if err := f.fs.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", p, err)
	}
	return nil
}

func (f *fileStorageManager) feedPath(sourceName string) string {
	return filepath.Join(f.basePath, sourceName+feedExt)
}

func (f *fileStorageManager) assetPath(sourceName string) string {
	return filepath.Join(f.basePath, AssetDir, sourceName+assetExt)
}

func (f *fileStorageManager) publicURL(elem ...string) string {
	return f.mirrorBaseURL + "/" + path.Join(elem...)
}

// writeAtomic writes to a temporary file first and renames it into place
func (f *fileStorageManager) writeAtomic(filePath string, data []byte) error {
	if err := f.fs.MkdirAll(filepath.Dir(filePath), dirPerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := filePath + tmpExt
	if err := afero.WriteFile(f.fs, tempPath, data, filePerm); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := f.fs.Rename(tempPath, filePath); err != nil {
		// Clean up temp file on error
		_ = f.fs.Remove(tempPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
