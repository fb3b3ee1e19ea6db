package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"idcard-backend/internal/storage"
)

var (
	_ storage.ArtifactStore = (*storage.LocalStore)(nil)
	_ storage.ArtifactStore = (*storage.GCSStore)(nil)
)

func TestLocalStore_PutGetDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	key := storage.ArtifactKey("upload-1", "artifact-1")
	assert.Equal(t, "artifacts/upload-1/artifact-1.pdf", key)

	require.NoError(t, s.Put(ctx, key, []byte("%PDF-1.4 test"), "application/pdf"))
	assert.FileExists(t, filepath.Join(dir, "artifacts", "upload-1", "artifact-1.pdf"))

	data, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 test"), data)

	require.NoError(t, s.Put(ctx, key, []byte("replaced"), "application/pdf"))
	data, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("replaced"), data)

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoDirExists(t, filepath.Join(dir, "artifacts", "upload-1"))

	assert.NoError(t, s.Delete(ctx, key), "deleting twice is not an error")
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := storage.NewLocalStore(filepath.Join(dir, "store"))
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"../outside.pdf", "/tmp/abs.pdf", "a/../../x.pdf"} {
		assert.Error(t, s.Put(ctx, key, []byte("x"), "application/pdf"), key)
		_, err := s.Get(ctx, key)
		assert.Error(t, err, key)
	}

	_, err = os.Stat(filepath.Join(dir, "outside.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := storage.NewLocalStore(dir)
	require.NoError(t, err)

	key := storage.ArtifactKey("u", "a")
	require.NoError(t, s.Put(context.Background(), key, []byte("data"), "application/pdf"))

	entries, err := os.ReadDir(filepath.Join(dir, "artifacts", "u"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.pdf", entries[0].Name())
}
