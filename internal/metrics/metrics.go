package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carisekolah_http_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carisekolah_http_request_latency_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	SuggestThrottledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carisekolah_suggest_throttled_total",
			Help: "Typeahead requests rejected by the rate limiter",
		},
	)

	DatasetSchools = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "carisekolah_dataset_schools",
			Help: "Schools in the loaded dataset",
		},
	)

	StatsCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carisekolah_stats_cache_total",
			Help: "Statistics cache lookups",
		},
		[]string{"kind", "result"},
	)
)
