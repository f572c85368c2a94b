// Package pipeline runs the full map generation: plan the grid, walk it
// through the fetcher, composite the result and encode it as PNG.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"go.uber.org/zap"

	"mapstitch/internal/fetch"
	"mapstitch/internal/grid"
	"mapstitch/internal/maps"
	"mapstitch/internal/metrics"
	"mapstitch/internal/stitch"
)

type Request struct {
	Map     string
	Version string // empty means the catalog default for Map
	Zoom    int
	// FallbackGrid, when > 0, is the grid dimension used if Zoom is out of
	// table. Zero means an invalid zoom is an error.
	FallbackGrid int
}

type TileStats struct {
	Total   int `json:"total"`
	Hits    int `json:"hits"`
	Fetched int `json:"fetched"`
	Failed  int `json:"failed"`
}

type Result struct {
	PNG      []byte           `json:"-"`
	Filename string           `json:"filename"`
	Width    int              `json:"width"`
	Height   int              `json:"height"`
	Tiles    TileStats        `json:"tiles"`
	Warnings []stitch.Warning `json:"warnings,omitempty"`
}

type Generator struct {
	fetcher  *fetch.Fetcher
	stitcher *stitch.Stitcher
	label    string
	tileSize int
	workers  int
	logger   *zap.Logger
}

func New(fetcher *fetch.Fetcher, stitcher *stitch.Stitcher, label string, tileSize, workers int, logger *zap.Logger) *Generator {
	if tileSize <= 0 {
		tileSize = grid.TileSize
	}
	if workers <= 0 {
		workers = 1
	}
	return &Generator{
		fetcher:  fetcher,
		stitcher: stitcher,
		label:    label,
		tileSize: tileSize,
		workers:  workers,
		logger:   logger,
	}
}

// Run executes one generation. Tile failures never fail the run; they end
// up as blank regions plus warnings in the result. The run fails only for
// an unknown map, an invalid zoom with no fallback, context cancellation,
// or a PNG encode error.
func (g *Generator) Run(ctx context.Context, req Request, obs fetch.Observer) (*Result, error) {
	version := req.Version
	if version == "" {
		v, err := maps.DefaultVersion(req.Map)
		if err != nil {
			return nil, err
		}
		version = v
	}

	var xs, ys []int
	if req.FallbackGrid > 0 {
		xs, ys = grid.PlanOrFallback(req.Zoom, req.FallbackGrid)
	} else {
		var err error
		xs, ys, err = grid.Plan(req.Zoom)
		if err != nil {
			return nil, err
		}
	}

	g.logger.Info("starting map generation",
		zap.String("map", req.Map), zap.String("version", version),
		zap.Int("zoom", req.Zoom), zap.Int("grid", len(xs)), zap.Int("workers", g.workers))

	gridResult, err := g.fetcher.FetchGrid(ctx, req.Map, version, req.Zoom, xs, ys, g.workers, obs)
	if err != nil {
		return nil, err
	}

	img, warnings := g.stitcher.Stitch(req.Map, req.Zoom, xs, ys, g.tileSize)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}

	metrics.MapsGenerated.Inc()

	bounds := img.Bounds()
	return &Result{
		PNG:      buf.Bytes(),
		Filename: fmt.Sprintf("%s_Map_%s_%d.png", g.label, req.Map, req.Zoom),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Tiles: TileStats{
			Total:   gridResult.Total,
			Hits:    gridResult.Hits,
			Fetched: gridResult.Fetched,
			Failed:  gridResult.Failed,
		},
		Warnings: warnings,
	}, nil
}
