package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")

	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())

	_, found, err := fs.GetString(ctx, "registration")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, fs.PutString(ctx, "registration", `{"client_id":"abc"}`))

	value, found, err := fs.GetString(ctx, "registration")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"client_id":"abc"}`, value)

	info, err = os.Stat(filepath.Join(dir, "registration.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.PutString(ctx, "registration", "v1"))
	require.NoError(t, first.PutString(ctx, "registration", "v2"))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	value, found, err := second.GetString(ctx, "registration")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", value)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStore_Remove(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.Remove(ctx, "missing"))

	require.NoError(t, fs.PutString(ctx, "registration", "x"))
	require.NoError(t, fs.Remove(ctx, "registration"))

	_, found, err := fs.GetString(ctx, "registration")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStore_EmptyKey(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = fs.GetString(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.ErrorIs(t, fs.PutString(ctx, "", "x"), ErrEmptyKey)
	assert.ErrorIs(t, fs.Remove(ctx, ""), ErrEmptyKey)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"registration":         "registration",
		"dcr:registration":     "dcr_registration",
		"../etc/passwd":        "etc_passwd",
		"a  b":                 "a_b",
		"...":                  "unnamed",
		"https://idsvr/oauth?": "https_idsvr_oauth",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}
