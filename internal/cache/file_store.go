package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists tile blobs on disk.
// Layout: {cacheDir}/{map}_{zoom}_{x}_{y}.{format}
type FileStore struct {
	mu       sync.RWMutex
	cacheDir string
	format   string
}

func NewFileStore(cacheDir, format string) (*FileStore, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FileStore{
		cacheDir: cacheDir,
		format:   format,
	}, nil
}

// buildFilePath builds the blob locator for a tile key. The map name is
// embedded in the filename; dropping it would serve one map's tiles for
// another.
func (c *FileStore) buildFilePath(key TileKey) string {
	fileName := fmt.Sprintf("%s_%d_%d_%d.%s", key.Map, key.Zoom, key.X, key.Y, c.format)
	return filepath.Join(c.cacheDir, fileName)
}

func (c *FileStore) Get(key TileKey) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.buildFilePath(key))
	if err != nil {
		return nil, false
	}

	return data, true
}

func (c *FileStore) Has(key TileKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, err := os.Stat(c.buildFilePath(key))
	return err == nil
}

func (c *FileStore) Set(key TileKey, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	filePath := c.buildFilePath(key)

	// Write atomically
	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, value, 0644); err != nil {
		return
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return
	}
}

func (c *FileStore) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(c.cacheDir); err != nil {
		return
	}

	os.MkdirAll(c.cacheDir, 0755)
}
