// Package fetch retrieves map tiles from the remote tile server, reading
// and writing through the tile store so every tile is downloaded at most once.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mapstitch/internal/cache"
	"mapstitch/internal/metrics"
)

// Status classifies the outcome of one tile request.
type Status string

const (
	StatusHit     Status = "hit"     // served from the tile store, no network access
	StatusFetched Status = "fetched" // downloaded and persisted
	StatusFailed  Status = "failed"  // transport failure or non-2xx response
)

// Progress is delivered to the observer exactly once per tile in a batch,
// whatever the outcome, so Done always reaches Total.
type Progress struct {
	Done   int
	Total  int
	X      int
	Y      int
	Status Status
	Err    error
}

type Observer func(Progress)

// TileError is a per-tile failure. It never aborts the batch.
type TileError struct {
	X   int
	Y   int
	Err error
}

func (e *TileError) Error() string {
	return fmt.Sprintf("tile %d,%d: %v", e.X, e.Y, e.Err)
}

func (e *TileError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx response from the tile server.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

type Fetcher struct {
	client  *http.Client
	store   cache.Store
	baseURL string
	format  string
	logger  *zap.Logger
	locks   *keyedLocks
}

// New creates a Fetcher. baseURL is a template containing {map_name} and
// {version} placeholders, ending at the tiles/ path segment.
func New(client *http.Client, store cache.Store, baseURL, format string, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{
		client:  client,
		store:   store,
		baseURL: baseURL,
		format:  format,
		logger:  logger,
		locks:   newKeyedLocks(),
	}
}

// TileURL builds the remote URL for one tile.
func (f *Fetcher) TileURL(mapName, version string, zoom, x, y int) string {
	base := strings.ReplaceAll(f.baseURL, "{map_name}", mapName)
	base = strings.ReplaceAll(base, "{version}", version)
	return fmt.Sprintf("%s%d/%d/%d.%s", base, zoom, x, y, f.format)
}

// FetchOrGet returns the tile bytes for one coordinate. A stored tile is
// returned as-is without consulting the server; note a hit is not validated
// against version, so a map re-released under the same name can serve stale
// imagery until the store is cleared.
func (f *Fetcher) FetchOrGet(ctx context.Context, mapName, version string, zoom, x, y int) ([]byte, Status, error) {
	key := cache.TileKey{Map: mapName, Zoom: zoom, X: x, Y: y}

	// At most one in-flight fetch per key; concurrent requests for the
	// same tile wait and then hit the store.
	unlock := f.locks.lock(key)
	defer unlock()

	if data, ok := f.store.Get(key); ok {
		return data, StatusHit, nil
	}

	url := f.TileURL(mapName, version, zoom, x, y)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, StatusFailed, &TileError{X: x, Y: y, Err: err}
	}

	metrics.UpstreamRequests.Inc()
	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, StatusFailed, &TileError{X: x, Y: y, Err: err}
	}
	defer resp.Body.Close()

	metrics.UpstreamLatency.Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, StatusFailed, &TileError{X: x, Y: y, Err: &StatusError{Code: resp.StatusCode}}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, StatusFailed, &TileError{X: x, Y: y, Err: err}
	}

	f.store.Set(key, data)

	return data, StatusFetched, nil
}

// GridResult summarizes a batch walk over a coordinate grid.
type GridResult struct {
	Total   int
	Hits    int
	Fetched int
	Failed  int
	Errors  []*TileError

	mu sync.Mutex
}

// FetchGrid walks every coordinate in xs × ys. Tile failures are isolated:
// they are counted, reported through the observer and collected in the
// result, and the walk continues. Only context cancellation stops the batch
// early. workers <= 1 keeps the sequential reference behavior.
func (f *Fetcher) FetchGrid(ctx context.Context, mapName, version string, zoom int, xs, ys []int, workers int, obs Observer) (*GridResult, error) {
	total := len(xs) * len(ys)
	result := &GridResult{Total: total}

	if workers <= 1 {
		for _, y := range ys {
			for _, x := range xs {
				if err := ctx.Err(); err != nil {
					return result, err
				}
				f.fetchOne(ctx, mapName, version, zoom, x, y, result, obs)
			}
		}
		return result, ctx.Err()
	}

	workerChan := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, y := range ys {
		for _, x := range xs {
			if err := ctx.Err(); err != nil {
				// Let what was already scheduled finish before reporting.
				wg.Wait()
				return result, err
			}

			wg.Add(1)
			workerChan <- struct{}{} // Acquire worker slot

			go func(x, y int) {
				defer wg.Done()
				defer func() { <-workerChan }() // Release worker slot

				f.fetchOne(ctx, mapName, version, zoom, x, y, result, obs)
			}(x, y)
		}
	}

	wg.Wait()

	return result, ctx.Err()
}

func (f *Fetcher) fetchOne(ctx context.Context, mapName, version string, zoom, x, y int, result *GridResult, obs Observer) {
	_, status, err := f.FetchOrGet(ctx, mapName, version, zoom, x, y)

	result.record(x, y, status, err, obs)

	switch status {
	case StatusHit:
		f.logger.Debug("tile already stored",
			zap.String("map", mapName), zap.Int("zoom", zoom), zap.Int("x", x), zap.Int("y", y))
	case StatusFetched:
		f.logger.Debug("tile downloaded",
			zap.String("map", mapName), zap.Int("zoom", zoom), zap.Int("x", x), zap.Int("y", y))
	case StatusFailed:
		f.logger.Warn("tile fetch failed",
			zap.String("map", mapName), zap.Int("zoom", zoom), zap.Int("x", x), zap.Int("y", y), zap.Error(err))
	}
}
