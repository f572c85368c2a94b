package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"mapstitch/internal/cache"
	"mapstitch/internal/fetch"
	"mapstitch/internal/grid"
	"mapstitch/internal/logger"
	"mapstitch/internal/pipeline"
	"mapstitch/internal/stitch"
)

const MAPNAME string = `map`
const VERSION string = `mapversion`
const ZOOM string = `zoom`
const RESOLUTION string = `resolution`
const OUTPUT string = `output`
const BASEURL string = `baseurl`
const CACHE string = `cache`
const CACHEDIR string = `cachedir`
const CACHEDB string = `cachedb`
const MEMTILES string = `memtiles`
const TILEFORMAT string = `tileformat`
const WORKERS string = `workers`
const FALLBACKGRID string = `fallbackgrid`
const LABEL string = `label`
const LOGLEVEL string = `loglevel`

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "mapstitch"
	app.Usage = "Download map tiles from a tile server and stitch them into one PNG"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:     MAPNAME,
			Aliases:  []string{"m"},
			Usage:    "Map variant to download. E.g.: ChernarusPlus-Top",
			Required: true,
		},
		&cli.StringFlag{
			Name:    VERSION,
			Aliases: []string{"V"},
			Usage:   "Map version path segment. Defaults to the catalog version for the selected map",
		},
		&cli.IntFlag{
			Name:    ZOOM,
			Aliases: []string{"z"},
			Usage:   "Zoom level 1-7. Grid is 2^zoom tiles per side",
			Value:   4,
		},
		&cli.StringFlag{
			Name:    RESOLUTION,
			Aliases: []string{"r"},
			Usage:   `Output resolution instead of a zoom level. E.g.: "4096x4096"`,
		},
		&cli.StringFlag{
			Name:    OUTPUT,
			Aliases: []string{"o"},
			Usage:   "Output PNG path. Defaults to the generated filename in the working directory",
		},
		&cli.StringFlag{
			Name:  BASEURL,
			Usage: "Tile URL template with {map_name} and {version} placeholders",
			Value: "https://maps.izurvive.com/maps/{map_name}/{version}/tiles/",
		},
		&cli.StringFlag{
			Name:  CACHE,
			Usage: "Tile store backend: file, memory, sqlite, disabled",
			Value: "file",
		},
		&cli.StringFlag{
			Name:  CACHEDIR,
			Usage: "Directory for the file tile store",
			Value: "tiles",
		},
		&cli.StringFlag{
			Name:  CACHEDB,
			Usage: "Database path for the sqlite tile store",
			Value: "tiles.db",
		},
		&cli.IntFlag{
			Name:  MEMTILES,
			Usage: "Capacity of the memory tile store, in tiles",
			Value: 2000,
		},
		&cli.StringFlag{
			Name:  TILEFORMAT,
			Usage: "Tile image format served by the tile server",
			Value: "webp",
		},
		&cli.IntFlag{
			Name:    WORKERS,
			Aliases: []string{"w"},
			Usage:   "Concurrent tile downloads. 1 downloads sequentially",
			Value:   1,
		},
		&cli.IntFlag{
			Name:  FALLBACKGRID,
			Usage: "Grid size to fall back to when the zoom level is out of range. 0 makes an invalid zoom an error",
			Value: 0,
		},
		&cli.StringFlag{
			Name:  LABEL,
			Usage: "Label prefix for the output filename",
			Value: "DayZ",
		},
		&cli.StringFlag{
			Name:  LOGLEVEL,
			Usage: "Log level: debug, info, warn, error",
			Value: "warn",
		},
	}

	app.Action = func(c *cli.Context) error {
		log, err := logger.NewCLI(c.String(LOGLEVEL))
		if err != nil {
			return err
		}
		defer log.Sync()

		zoom := c.Int(ZOOM)
		if res := c.String(RESOLUTION); res != "" {
			zoom, err = grid.ZoomForResolution(res)
			if err != nil {
				return err
			}
		}

		store, err := cache.NewStore(c.String(CACHE), c.String(CACHEDIR), c.String(TILEFORMAT),
			c.String(CACHEDB), c.Int(MEMTILES), log)
		if err != nil {
			return err
		}

		client := &http.Client{Timeout: 30 * time.Second}
		fetcher := fetch.New(client, store, c.String(BASEURL), c.String(TILEFORMAT), log)
		stitcher := stitch.New(store, log)
		generator := pipeline.New(fetcher, stitcher, c.String(LABEL), grid.TileSize, c.Int(WORKERS), log)

		req := pipeline.Request{
			Map:          c.String(MAPNAME),
			Version:      c.String(VERSION),
			Zoom:         zoom,
			FallbackGrid: c.Int(FALLBACKGRID),
		}

		result, err := generator.Run(c.Context, req, func(p fetch.Progress) {
			fmt.Printf("\r[%d/%d] tile %d,%d %s", p.Done, p.Total, p.X, p.Y, p.Status)
		})
		fmt.Println()
		if err != nil {
			return err
		}

		output := c.String(OUTPUT)
		if output == "" {
			output = result.Filename
		}

		if err := os.WriteFile(output, result.PNG, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}

		log.Info("map written",
			zap.String("output", output),
			zap.Int("width", result.Width), zap.Int("height", result.Height),
			zap.Int("failed_tiles", result.Tiles.Failed))

		fmt.Printf("wrote %s (%dx%d, %d/%d tiles)\n",
			output, result.Width, result.Height,
			result.Tiles.Hits+result.Tiles.Fetched, result.Tiles.Total)

		for _, warning := range result.Warnings {
			fmt.Fprintf(os.Stderr, "warning: tile %d,%d: %s\n", warning.X, warning.Y, warning.Reason)
		}

		return nil
	}

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
