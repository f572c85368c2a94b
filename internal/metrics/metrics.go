package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TilesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mapstitch_tiles_processed_total",
		Help: "Total number of tiles processed, by outcome (hit, fetched, failed)",
	}, []string{"outcome"})

	UpstreamRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapstitch_upstream_requests_total",
		Help: "Total number of upstream tile server requests",
	})

	UpstreamLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mapstitch_upstream_latency_seconds",
		Help:    "Latency of upstream tile fetches in seconds",
		Buckets: prometheus.DefBuckets,
	})

	StitchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mapstitch_stitch_duration_seconds",
		Help:    "Time spent compositing the output image",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	MapsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapstitch_maps_generated_total",
		Help: "Total number of finished map generations",
	})
)
