// Package stitch composites stored tiles into one output image.
package stitch

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"time"

	_ "image/png" // tiles persisted before a format change may still be png

	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"mapstitch/internal/cache"
	"mapstitch/internal/metrics"
)

// Warning records a tile that is missing or undecodable. The affected
// region stays blank; the rest of the image is unaffected.
type Warning struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Reason string `json:"reason"`
}

type Stitcher struct {
	store  cache.Store
	logger *zap.Logger
}

func New(store cache.Store, logger *zap.Logger) *Stitcher {
	return &Stitcher{
		store:  store,
		logger: logger,
	}
}

// Offset maps a tile's rank within the requested ranges to its pixel
// position in the output. Placement depends only on rank, never on the
// iteration order of the stitch loop or on the raw coordinate values, so
// ranges that do not start at zero still anchor at the top-left corner.
func Offset(rankX, rankY, tileSize int) image.Point {
	return image.Point{X: rankX * tileSize, Y: rankY * tileSize}
}

// Stitch composites every available tile for the given ranges into a single
// RGBA image of exactly len(xs)*tileSize by len(ys)*tileSize pixels. Missing
// or undecodable tiles leave their region fully transparent and are reported
// as warnings; they never shrink or shift the canvas.
func (s *Stitcher) Stitch(mapName string, zoom int, xs, ys []int, tileSize int) (*image.RGBA, []Warning) {
	start := time.Now()

	width := len(xs) * tileSize
	height := len(ys) * tileSize
	output := image.NewRGBA(image.Rect(0, 0, width, height))

	var warnings []Warning

	for rankY, y := range ys {
		for rankX, x := range xs {
			key := cache.TileKey{Map: mapName, Zoom: zoom, X: x, Y: y}

			data, ok := s.store.Get(key)
			if !ok {
				warnings = append(warnings, Warning{X: x, Y: y, Reason: "tile not found"})
				s.logger.Warn("tile not found, leaving blank region",
					zap.String("map", mapName), zap.Int("zoom", zoom), zap.Int("x", x), zap.Int("y", y))
				continue
			}

			tile, _, err := image.Decode(bytes.NewReader(data))
			if err != nil {
				warnings = append(warnings, Warning{X: x, Y: y, Reason: fmt.Sprintf("decode failed: %v", err)})
				s.logger.Warn("tile decode failed, leaving blank region",
					zap.String("map", mapName), zap.Int("zoom", zoom), zap.Int("x", x), zap.Int("y", y), zap.Error(err))
				continue
			}

			offset := Offset(rankX, rankY, tileSize)
			dst := image.Rectangle{Min: offset, Max: offset.Add(image.Point{X: tileSize, Y: tileSize})}
			draw.Draw(output, dst, tile, tile.Bounds().Min, draw.Src)
		}
	}

	metrics.StitchDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("stitch completed",
		zap.String("map", mapName), zap.Int("zoom", zoom),
		zap.Int("width", width), zap.Int("height", height),
		zap.Int("warnings", len(warnings)),
		zap.Duration("elapsed", time.Since(start)))

	return output, warnings
}
