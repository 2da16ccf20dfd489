package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dcrclient/pkg/logging"
)

// FileStore keeps one file per key in a single directory.
//
// The directory is created with 0700 and files with 0600 permissions since
// the registration record contains the client secret. Writes go to a
// temporary file that is synced and renamed over the target.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates the directory if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (fs *FileStore) Dir() string {
	return fs.dir
}

func (fs *FileStore) GetString(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	filePath := fs.pathFor(key)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	logging.Debug("Storage", "Loaded %s from %s", key, filePath)
	return string(data), true, nil
}

func (fs *FileStore) PutString(_ context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	filePath := fs.pathFor(key)
	tmp, err := os.CreateTemp(fs.dir, "."+filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", fs.dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions on %s: %w", tmpPath, err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filePath, err)
	}

	logging.Debug("Storage", "Saved %s to %s", key, filePath)
	return nil
}

func (fs *FileStore) Remove(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	filePath := fs.pathFor(key)
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", filePath, err)
	}

	logging.Debug("Storage", "Removed %s", key)
	return nil
}

func (fs *FileStore) Close() error { return nil }

func (fs *FileStore) pathFor(key string) string {
	return filepath.Join(fs.dir, sanitizeFilename(key)+".json")
}

// sanitizeFilename maps a key to a name safe for any filesystem.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", ".", "_", " ", "_",
	)
	sanitized := replacer.Replace(name)

	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")

	if sanitized == "" {
		sanitized = "unnamed"
	}
	return sanitized
}
