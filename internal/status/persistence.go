// Package status records the outcome of mirror runs next to their output.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

const (
	// StatusFileName is the name of the status file in the output directory.
	// The leading dot keeps it out of git commits and static file serving.
	StatusFileName = ".status.json"
)

// ErrNoStatus is returned when no run has recorded a status yet
var ErrNoStatus = errors.New("no run status recorded")

// StatusPersistence defines the interface for run status persistence
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus replaces the recorded status with status
	SaveStatus(ctx context.Context, status *RunStatus) error

	// LoadStatus loads the recorded status.
	// Returns ErrNoStatus if no run has completed yet.
	LoadStatus(ctx context.Context) (*RunStatus, error)
}

// fileStatusPersistence implements StatusPersistence on an afero filesystem
type fileStatusPersistence struct {
	fs       afero.Fs
	basePath string
}

var _ StatusPersistence = (*fileStatusPersistence)(nil)

// NewFileStatusPersistence creates a status persistence storing StatusFileName in basePath
func NewFileStatusPersistence(fs afero.Fs, basePath string) StatusPersistence {
	return &fileStatusPersistence{
		fs:       fs,
		basePath: basePath,
	}
}

// NewOSStatusPersistence creates a status persistence on the OS filesystem
func NewOSStatusPersistence(basePath string) StatusPersistence {
	return NewFileStatusPersistence(afero.NewOsFs(), basePath)
}

// SaveStatus writes the status as JSON through a temporary file and rename
func (f *fileStatusPersistence) SaveStatus(_ context.Context, status *RunStatus) error {
	if status == nil {
		return fmt.Errorf("status cannot be nil")
	}

	if err := f.fs.MkdirAll(f.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	filePath := f.path()
	tempPath := filePath + ".tmp"
	if err := afero.WriteFile(f.fs, tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary status file: %w", err)
	}

	if err := f.fs.Rename(tempPath, filePath); err != nil {
		_ = f.fs.Remove(tempPath)
		return fmt.Errorf("failed to rename status file: %w", err)
	}

	return nil
}

// LoadStatus reads the status file
func (f *fileStatusPersistence) LoadStatus(_ context.Context) (*RunStatus, error) {
	data, err := afero.ReadFile(f.fs, f.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoStatus
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var status RunStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}

	return &status, nil
}

func (f *fileStatusPersistence) path() string {
	return filepath.Join(f.basePath, StatusFileName)
}
