package storage

import (
	"context"
	"os"
	"testing"

	"dcrclient/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	kv, err := New(ctx, config.StorageConfig{Backend: config.StorageBackendFile, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, kv)

	kv, err = New(ctx, config.StorageConfig{Backend: config.StorageBackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, kv)

	_, err = New(ctx, config.StorageConfig{Backend: "etcd"})
	assert.Error(t, err)

	_, err = New(ctx, config.StorageConfig{Backend: config.StorageBackendRedis, RedisURL: "not a url"})
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, found, err := m.GetString(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, m.PutString(ctx, "k", "v"))
	v, found, err := m.GetString(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)

	require.NoError(t, m.Remove(ctx, "k"))
	_, found, _ = m.GetString(ctx, "k")
	assert.False(t, found)
}

// TestRedisStore runs against a real server when DCRCLIENT_TEST_REDIS_URL
// is set, e.g. redis://localhost:6379/15.
func TestRedisStore(t *testing.T) {
	url := os.Getenv("DCRCLIENT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("DCRCLIENT_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	rs, err := NewRedisStoreFromURL(ctx, url, "dcrclient-test:")
	require.NoError(t, err)
	defer rs.Close()
	defer rs.Remove(ctx, "registration")

	_, found, err := rs.GetString(ctx, "registration")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, rs.PutString(ctx, "registration", `{"client_id":"abc"}`))
	v, found, err := rs.GetString(ctx, "registration")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"client_id":"abc"}`, v)

	require.NoError(t, rs.Remove(ctx, "registration"))
	_, found, err = rs.GetString(ctx, "registration")
	require.NoError(t, err)
	assert.False(t, found)
}
