// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. Every instance
// carries its own registry so independent instances never collide on
// registration.
type Metrics struct {
	registry *prometheus.Registry

	// Ingestion metrics
	TradesIngested      prometheus.Counter
	IngestCycleDuration prometheus.Histogram
	IngestErrors        *prometheus.CounterVec
	TokensMigrated      prometheus.Counter

	// Quest metrics
	QuestsUnlocked prometheus.Counter
	PointsAwarded  prometheus.Counter

	// Terminal metrics
	TerminalCycles     prometheus.Counter
	TerminalsRunning   prometheus.Gauge
	ContentGenErrors   prometheus.Counter
	BroadcastsSent     prometheus.Counter
	SubscribersCurrent *prometheus.GaugeVec

	// Rewards metrics
	RewardComputations  prometheus.Counter
	PlatformEarningsUSD prometheus.Gauge
	CommunityPoolUSD    prometheus.Gauge
	MarketLookupLatency prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIngest prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_launchpad"
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		// Ingestion metrics
		TradesIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "trades_ingested_total",
			Help:      "Total number of new trades persisted from the feed",
		}),
		IngestCycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full ingest pass across all tokens",
			Buckets:   prometheus.DefBuckets,
		}),
		IngestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of ingest errors by stage",
		}, []string{"stage"}),
		TokensMigrated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "tokens_migrated_total",
			Help:      "Total number of tokens that completed their bonding curve",
		}),

		// Quest metrics
		QuestsUnlocked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quests",
			Name:      "unlocked_total",
			Help:      "Total number of quest unlocks awarded",
		}),
		PointsAwarded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quests",
			Name:      "points_awarded_total",
			Help:      "Total points awarded through quest unlocks",
		}),

		// Terminal metrics
		TerminalCycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "terminal",
			Name:      "cycles_total",
			Help:      "Total number of terminal generation cycles",
		}),
		TerminalsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "terminal",
			Name:      "running",
			Help:      "Number of terminals currently running",
		}),
		ContentGenErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "terminal",
			Name:      "generation_errors_total",
			Help:      "Total number of failed content generations",
		}),
		BroadcastsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "broadcasts_sent_total",
			Help:      "Total number of messages delivered to subscribers",
		}),
		SubscribersCurrent: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "subscribers",
			Help:      "Current number of subscribers by feed",
		}, []string{"feed"}),

		// Rewards metrics
		RewardComputations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "computations_total",
			Help:      "Total number of reward allocation computations",
		}),
		PlatformEarningsUSD: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "platform_earnings_usd",
			Help:      "Last computed platform earnings in USD",
		}),
		CommunityPoolUSD: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "community_pool_usd",
			Help:      "Last computed community pool in USD",
		}),
		MarketLookupLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "lookup_latency_seconds",
			Help:      "Upstream market data lookup latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulIngest: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingest_timestamp",
			Help:      "Unix timestamp of the last successful ingest pass",
		}),
	}
}

// Handler returns an HTTP handler serving this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
