package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port          int           `env:"PORT" envDefault:"8080"`
	BaseURL       string        `env:"BASE_URL" envDefault:"https://maps.izurvive.com/maps/{map_name}/{version}/tiles/"`
	MapLabel      string        `env:"MAP_LABEL" envDefault:"DayZ"`
	TileSize      int           `env:"TILE_SIZE" envDefault:"256"`
	TileFormat    string        `env:"TILE_FORMAT" envDefault:"webp"`
	CacheType     string        `env:"CACHE" envDefault:"file"`
	CacheDir      string        `env:"CACHE_DIR" envDefault:"tiles"`
	CacheDB       string        `env:"CACHE_DB" envDefault:"tiles.db"`
	CacheMemTiles int           `env:"CACHE_MEMORY_TILES" envDefault:"2000"`
	FetchWorkers  int           `env:"FETCH_WORKERS" envDefault:"1"`
	FetchTimeout  time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigin string        `env:"ALLOWED_ORIGIN" envDefault:""`
	PublicBaseURL string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
