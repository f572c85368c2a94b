package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "webp")
	require.NoError(t, err)

	key := TileKey{Map: "ChernarusPlus-Top", Zoom: 3, X: 1, Y: 2}

	_, ok := store.Get(key)
	assert.False(t, ok)
	assert.False(t, store.Has(key))

	store.Set(key, []byte("tile-bytes"))

	data, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("tile-bytes"), data)
	assert.True(t, store.Has(key))
}

func TestFileStoreLocatorEmbedsMapName(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "webp")
	require.NoError(t, err)

	store.Set(TileKey{Map: "A", Zoom: 3, X: 0, Y: 0}, []byte("from-a"))
	store.Set(TileKey{Map: "B", Zoom: 3, X: 0, Y: 0}, []byte("from-b"))

	dataA, ok := store.Get(TileKey{Map: "A", Zoom: 3, X: 0, Y: 0})
	require.True(t, ok)
	dataB, ok := store.Get(TileKey{Map: "B", Zoom: 3, X: 0, Y: 0})
	require.True(t, ok)

	assert.Equal(t, []byte("from-a"), dataA)
	assert.Equal(t, []byte("from-b"), dataB)

	_, err = os.Stat(filepath.Join(dir, "A_3_0_0.webp"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "B_3_0_0.webp"))
	assert.NoError(t, err)
}

func TestFileStoreClear(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "webp")
	require.NoError(t, err)

	key := TileKey{Map: "Livonia-Sat", Zoom: 1, X: 0, Y: 1}
	store.Set(key, []byte("x"))
	require.True(t, store.Has(key))

	store.Clear()
	assert.False(t, store.Has(key))

	// Store stays usable after Clear
	store.Set(key, []byte("y"))
	data, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("y"), data)
}

func TestFileStoreNoTmpLeftovers(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "webp")
	require.NoError(t, err)

	store.Set(TileKey{Map: "M", Zoom: 2, X: 1, Y: 1}, []byte("data"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}
