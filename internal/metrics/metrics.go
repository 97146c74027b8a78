// Package metrics defines Prometheus metrics for ahwatch runs.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "ahwatch"

// Run metrics.
var (
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of a full scan run in seconds.",
		Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200},
	})

	LastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run finished.",
	})

	ItemsUnresolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_unresolved_total",
		Help:      "Watchlist items the catalog could not resolve.",
	})
)

// Scan metrics.
var (
	ClustersScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clusters_scanned_total",
		Help:      "Realm clusters scanned successfully.",
	})

	ClusterFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cluster_failures_total",
		Help:      "Realm clusters whose listings could not be fetched.",
	})

	ListingsSeenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_seen_total",
		Help:      "Listings received from the auction feed.",
	})

	OffersMatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "offers_matched_total",
		Help:      "Best offers at or below their item threshold.",
	})
)

// Delivery metrics.
var (
	ChunksSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chunks_sent_total",
		Help:      "Alert chunks delivered.",
	})

	ChunkFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chunk_failures_total",
		Help:      "Alert chunks that failed to deliver.",
	})
)

// Provider API metrics.
var (
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Auction provider API requests by endpoint and status.",
	}, []string{"endpoint", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Auction provider API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
)

// Push sends the default registry to a Prometheus Pushgateway. An empty url
// disables pushing.
func Push(ctx context.Context, url, job string, grouping map[string]string) error {
	if url == "" {
		return nil
	}
	pusher := push.New(url, job).Gatherer(prometheus.DefaultGatherer)
	for k, v := range grouping {
		pusher = pusher.Grouping(k, v)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
