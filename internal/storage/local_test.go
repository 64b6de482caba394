package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestObjectStore(t *testing.T) (*LocalObjectStore, string) {
	t.Helper()
	dir := t.TempDir()
	objectStore, err := NewLocalObjectStore(dir)
	require.NoError(t, err)
	return objectStore, dir
}

func TestLocalObjectStore_PutObject(t *testing.T) {
	objectStore, baseDir := setupTestObjectStore(t)

	key := "models/v1/scaler.json"
	content := []byte("Test content")

	err := objectStore.PutObject(context.Background(), key, bytes.NewReader(content))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(baseDir, "models", "v1", "scaler.json"))
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestLocalObjectStore_GetObject(t *testing.T) {
	objectStore, _ := setupTestObjectStore(t)
	ctx := context.Background()

	require.NoError(t, objectStore.PutObject(ctx, "manifest.yaml", bytes.NewReader([]byte("scaler: {}"))))

	data, err := objectStore.GetObject(ctx, "manifest.yaml")
	require.NoError(t, err)
	assert.Equal(t, "scaler: {}", string(data))

	_, err = objectStore.GetObject(ctx, "missing.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalObjectStore_RejectsEscapingKeys(t *testing.T) {
	objectStore, _ := setupTestObjectStore(t)
	ctx := context.Background()

	_, err := objectStore.GetObject(ctx, "../outside.json")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrObjectNotFound)

	err = objectStore.PutObject(ctx, "../../outside.json", bytes.NewReader([]byte("x")))
	assert.Error(t, err)
}

func TestLocalObjectStore_ListObjects(t *testing.T) {
	objectStore, _ := setupTestObjectStore(t)
	ctx := context.Background()

	for _, key := range []string{"v2/classifier.json", "v1/scaler.json", "v1/classifier.json", "manifest.yaml"} {
		require.NoError(t, objectStore.PutObject(ctx, key, bytes.NewReader([]byte(key))))
	}

	objects, err := objectStore.ListObjects(ctx, "v1/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "v1/classifier.json", objects[0].Name)
	assert.Equal(t, "v1/scaler.json", objects[1].Name)
	assert.Equal(t, int64(len("v1/scaler.json")), objects[1].Size)

	all, err := objectStore.ListObjects(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestLocalObjectStore_ListObjects_MissingDir(t *testing.T) {
	objectStore, err := NewLocalObjectStore(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)

	objects, err := objectStore.ListObjects(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, objects)
}
