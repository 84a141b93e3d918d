package confession

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFilesystemStorage(t *testing.T) *FilesystemStorage {
	t.Helper()
	storage, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)
	return storage
}

func TestFilesystemStorage_WriteRead(t *testing.T) {
	ctx := context.Background()
	storage := newTestFilesystemStorage(t)

	err := storage.Write(ctx, "test-key", []byte("test-data"))
	require.NoError(t, err)

	data, err := storage.Read(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("test-data"), data)
}

func TestFilesystemStorage_Write_NoOverwrite(t *testing.T) {
	ctx := context.Background()
	storage := newTestFilesystemStorage(t)

	err := storage.Write(ctx, "test-key", []byte("original"))
	require.NoError(t, err)

	err = storage.Write(ctx, "test-key", []byte("updated"))
	require.ErrorIs(t, err, ErrKeyExists)
}

func TestFilesystemStorage_Read_NotFound(t *testing.T) {
	ctx := context.Background()
	storage := newTestFilesystemStorage(t)

	_, err := storage.Read(ctx, "nonexistent-key")
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestFilesystemStorage_Exists(t *testing.T) {
	ctx := context.Background()
	storage := newTestFilesystemStorage(t)

	exists, err := storage.Exists(ctx, "test-key")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, storage.Write(ctx, "test-key", []byte("test-data")))

	exists, err = storage.Exists(ctx, "test-key")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFilesystemStorage_Delete(t *testing.T) {
	ctx := context.Background()
	storage := newTestFilesystemStorage(t)

	require.NoError(t, storage.Write(ctx, "test-key", []byte("test-data")))
	require.NoError(t, storage.Delete(ctx, "test-key"))

	exists, err := storage.Exists(ctx, "test-key")
	require.NoError(t, err)
	assert.False(t, exists)

	// idempotent
	require.NoError(t, storage.Delete(ctx, "test-key"))
}

func TestFilesystemStorage_RejectsPathKeys(t *testing.T) {
	ctx := context.Background()
	storage := newTestFilesystemStorage(t)

	for _, key := range []string{"", "a/b", `a\b`, "../escape"} {
		err := storage.Write(ctx, key, []byte("x"))
		require.Error(t, err, key)

		_, err = storage.Read(ctx, key)
		require.Error(t, err, key)
	}
}
