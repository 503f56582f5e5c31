package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultFilePath is the checkpoint file used when none is configured.
const DefaultFilePath = "health_data.json"

// FileStorage keeps the checkpoint in a single JSON file.
type FileStorage struct {
	path string
}

// NewFileStorage returns a [FileStorage] writing to path.
// An empty path selects [DefaultFilePath].
func NewFileStorage(path string) *FileStorage {
	if path == "" {
		path = DefaultFilePath
	}
	return &FileStorage{path: path}
}

// Describe implements [Storage].
func (f *FileStorage) Describe() string {
	return f.path
}

// Save atomically replaces the checkpoint file using the temp-file, fsync,
// rename pattern, so a crash mid-write never leaves a truncated document.
func (f *FileStorage) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Load implements [Storage].
func (f *FileStorage) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, f.path)
		}
		return nil, err
	}
	return data, nil
}
