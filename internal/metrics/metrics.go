// Package metrics holds the Prometheus collectors shared by the dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockcast_cache_requests_total",
			Help: "Series cache lookups by result (hit, miss).",
		},
		[]string{"result"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockcast_provider_fetch_duration_seconds",
			Help:    "Duration of market-data provider calls.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source", "status"},
	)

	ForecastDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockcast_forecast_duration_seconds",
			Help:    "Duration of model fit plus predict.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "stockcast_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds.",
		},
		[]string{"method", "route", "status"},
	)

	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockcast_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockcast_cache_entries",
		Help: "Series currently held by the cache, refreshed on sweep.",
	})
)
