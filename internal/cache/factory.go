package cache

import (
	"fmt"

	"go.uber.org/zap"
)

// NewStore creates a tile store based on the store type
func NewStore(storeType, cacheDir, format, dbPath string, memoryTiles int, log *zap.Logger) (Store, error) {
	switch storeType {
	case "file":
		log.Info("Using file tile store", zap.String("cache_dir", cacheDir))
		return NewFileStore(cacheDir, format)
	case "memory":
		log.Info("Using memory tile store", zap.Int("max_tiles", memoryTiles))
		return NewMemoryStore(memoryTiles), nil
	case "sqlite":
		log.Info("Using sqlite tile store", zap.String("db", dbPath))
		return NewSQLiteStore(dbPath, log)
	case "disabled":
		log.Info("Tile store disabled")
		return NewNoopStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s (supported: file, memory, sqlite, disabled)", storeType)
	}
}
