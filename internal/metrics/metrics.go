package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeeCollections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fee_collections_total",
		Help: "Committed fee collections by category.",
	}, []string{"category"})

	FeeCollectionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fee_collection_failures_total",
		Help: "Fee collections that were rejected or rolled back.",
	}, []string{"category", "reason"})

	FeeAmountCollected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fee_amount_collected_total",
		Help: "Sum of paid amounts recorded by committed collections.",
	}, []string{"category"})

	IdempotentReplays = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fee_collection_replays_total",
		Help: "Collections answered from an earlier receipt with the same idempotency key.",
	}, []string{"category"})

	DashboardSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_stream_subscribers",
		Help: "Open dashboard change streams.",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
