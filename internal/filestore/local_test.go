package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askmydocs/askmydocs/internal/config"
)

func newLocalStore(t *testing.T) (Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": dir},
	})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())
	return store, dir
}

func TestLocalStore_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := newLocalStore(t)

	require.NoError(t, store.Save(ctx, "uploads/u1/a.txt", []byte("hello"), "text/plain"))

	reader, err := store.Open(ctx, "uploads/u1/a.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	require.Equal(t, "hello", string(data))

	require.NoError(t, store.Delete(ctx, "uploads/u1/a.txt"))
	_, err = store.Open(ctx, "uploads/u1/a.txt")
	require.ErrorIs(t, err, ErrNotExist)
}

func TestLocalStore_DeleteMissing(t *testing.T) {
	store, _ := newLocalStore(t)
	err := store.Delete(context.Background(), "uploads/u1/missing.txt")
	require.ErrorIs(t, err, ErrNotExist)
}

func TestLocalStore_TraversalKeysStayInside(t *testing.T) {
	store, dir := newLocalStore(t)
	require.NoError(t, store.Save(context.Background(), "../../escape.txt", []byte("x"), ""))

	// the key gets anchored under the store dir instead of escaping it
	_, err := os.Stat(filepath.Join(dir, "escape.txt"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape.txt"))
	require.True(t, os.IsNotExist(err))
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp", Data: map[string]interface{}{}})
	require.Error(t, err)
}
