// Package grid maps zoom level selectors to tile coordinate grids.
package grid

import (
	"errors"
	"fmt"
)

const TileSize = 256

// ErrInvalidZoomLevel is returned when the zoom selector is not in the
// fixed zoom table. Callers decide the recovery policy (see PlanOrFallback).
var ErrInvalidZoomLevel = errors.New("invalid zoom level")

// zoomToGridSize is the fixed zoom -> N lookup for an NxN tile grid.
var zoomToGridSize = map[int]int{
	1: 2,
	2: 4,
	3: 8,
	4: 16,
	5: 32,
	6: 64,
	7: 128,
}

// MinZoom and MaxZoom bound the supported selector range.
const (
	MinZoom = 1
	MaxZoom = 7
)

// Size returns the grid dimension N for a zoom level.
func Size(zoom int) (int, error) {
	n, ok := zoomToGridSize[zoom]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrInvalidZoomLevel, zoom)
	}
	return n, nil
}

// Plan returns the x and y coordinate ranges (each 0..N-1) for a zoom level.
func Plan(zoom int) (xs, ys []int, err error) {
	n, err := Size(zoom)
	if err != nil {
		return nil, nil, err
	}
	return coordRange(n), coordRange(n), nil
}

// PlanOrFallback is Plan with a caller-supplied fallback grid dimension used
// when the zoom level is out of table. The fallback is a policy of the caller,
// not of this package.
func PlanOrFallback(zoom, fallbackSize int) (xs, ys []int) {
	xs, ys, err := Plan(zoom)
	if err != nil {
		return coordRange(fallbackSize), coordRange(fallbackSize)
	}
	return xs, ys
}

// OutputPixels returns the stitched image side length for a zoom level.
func OutputPixels(zoom int) (int, error) {
	n, err := Size(zoom)
	if err != nil {
		return 0, err
	}
	return n * TileSize, nil
}

// ResolutionLabel returns the "WxH" resolution string for a zoom level.
// The mapping is invertible via ZoomForResolution.
func ResolutionLabel(zoom int) (string, error) {
	px, err := OutputPixels(zoom)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%dx%d", px, px), nil
}

// ZoomForResolution inverts ResolutionLabel.
func ZoomForResolution(label string) (int, error) {
	for zoom := MinZoom; zoom <= MaxZoom; zoom++ {
		l, _ := ResolutionLabel(zoom)
		if l == label {
			return zoom, nil
		}
	}
	return 0, fmt.Errorf("%w: no zoom for resolution %q", ErrInvalidZoomLevel, label)
}

func coordRange(n int) []int {
	r := make([]int, n)
	for i := range r {
		r[i] = i
	}
	return r
}
