package cache

import (
	"database/sql"
	"embed"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore keeps tile blobs in a single sqlite database instead of
// one file per tile.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	c := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := c.runMigrations(); err != nil {
		return nil, err
	}

	logger.Info("sqlite tile store initialized", zap.String("path", path))

	return c, nil
}

func (c *SQLiteStore) runMigrations() error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.Up(c.db, "migrations")
}

func (c *SQLiteStore) Get(key TileKey) ([]byte, bool) {
	query := `SELECT tile_data
	FROM tile_cache
	WHERE map = ? AND zoom = ? AND x = ? AND y = ?`

	var tileData []byte
	err := c.db.QueryRow(query, key.Map, key.Zoom, key.X, key.Y).Scan(&tileData)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Error("sqlite tile get failed",
				zap.String("map", key.Map), zap.Int("zoom", key.Zoom),
				zap.Int("x", key.X), zap.Int("y", key.Y), zap.Error(err))
		}
		return nil, false
	}

	return tileData, true
}

func (c *SQLiteStore) Has(key TileKey) bool {
	query := `SELECT 1 FROM tile_cache WHERE map = ? AND zoom = ? AND x = ? AND y = ?`

	var one int
	err := c.db.QueryRow(query, key.Map, key.Zoom, key.X, key.Y).Scan(&one)
	return err == nil
}

func (c *SQLiteStore) Set(key TileKey, value []byte) {
	query := `INSERT INTO tile_cache (map, zoom, x, y, tile_data)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(map, zoom, x, y) DO UPDATE SET tile_data = excluded.tile_data`

	if _, err := c.db.Exec(query, key.Map, key.Zoom, key.X, key.Y, value); err != nil {
		c.logger.Error("sqlite tile set failed",
			zap.String("map", key.Map), zap.Int("zoom", key.Zoom),
			zap.Int("x", key.X), zap.Int("y", key.Y), zap.Error(err))
	}
}

func (c *SQLiteStore) Clear() {
	if _, err := c.db.Exec(`DELETE FROM tile_cache`); err != nil {
		c.logger.Error("sqlite tile clear failed", zap.Error(err))
	}
}

func (c *SQLiteStore) Close() error {
	return c.db.Close()
}
