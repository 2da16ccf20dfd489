package storage

import (
	"context"
	"errors"
	"fmt"

	"dcrclient/internal/config"
)

// KeyValueStore is a durable string store. PutString returns only after the
// value is committed, so a successful write survives a process restart.
type KeyValueStore interface {
	// GetString returns the value for key and whether it exists.
	GetString(ctx context.Context, key string) (string, bool, error)
	PutString(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	Close() error
}

// ErrEmptyKey is returned for operations on an empty key.
var ErrEmptyKey = errors.New("storage: key cannot be empty")

// New returns the backend selected by cfg.
func New(ctx context.Context, cfg config.StorageConfig) (KeyValueStore, error) {
	switch cfg.Backend {
	case config.StorageBackendFile, "":
		dir := cfg.Dir
		if dir == "" {
			dir = config.DefaultDataDir()
		}
		return NewFileStore(dir)
	case config.StorageBackendRedis:
		return NewRedisStoreFromURL(ctx, cfg.RedisURL, cfg.KeyPrefix)
	case config.StorageBackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
