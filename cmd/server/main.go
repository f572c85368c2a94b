package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mapstitch/internal/cache"
	"mapstitch/internal/config"
	"mapstitch/internal/fetch"
	httphandlers "mapstitch/internal/http"
	"mapstitch/internal/logger"
	"mapstitch/internal/pipeline"
	"mapstitch/internal/stitch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting mapstitch server",
		zap.Int("port", cfg.Port),
		zap.String("cache", cfg.CacheType),
		zap.Int("fetch_workers", cfg.FetchWorkers),
	)

	store, err := cache.NewStore(cfg.CacheType, cfg.CacheDir, cfg.TileFormat, cfg.CacheDB, cfg.CacheMemTiles, log)
	if err != nil {
		log.Fatal("Failed to initialize tile store", zap.Error(err))
	}

	client := &http.Client{Timeout: cfg.FetchTimeout}
	fetcher := fetch.New(client, store, cfg.BaseURL, cfg.TileFormat, log)
	stitcher := stitch.New(store, log)
	generator := pipeline.New(fetcher, stitcher, cfg.MapLabel, cfg.TileSize, cfg.FetchWorkers, log)
	jobs := pipeline.NewJobStore(generator)

	handlers := httphandlers.New(cfg, log, jobs)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/maps", handlers.HandleMaps)
	mux.HandleFunc("/api/generate", handlers.HandleGenerate)
	mux.HandleFunc("/api/jobs/", handlers.HandleJobRoutes)
	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", handlers.HandleStatic)

	handler := handlers.CORSMiddleware(handlers.RequestLoggingMiddleware(mux))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.Int("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}
