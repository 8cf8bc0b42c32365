package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeInvalid = "invalid"
)

type MetricsCollector struct {
	registry          *prometheus.Registry
	indexBuilds       *prometheus.CounterVec
	buildDuration     prometheus.Histogram
	indexedCustomers  prometheus.Gauge
	skippedSources    prometheus.Gauge
	queries           *prometheus.CounterVec
	queryDuration     prometheus.Histogram
	matchDistribution prometheus.Histogram
	mu                sync.Mutex
	server            *http.Server
	logger            zerolog.Logger
}

func NewMetricsCollector(logger zerolog.Logger) *MetricsCollector {
	registry := prometheus.NewRegistry()

	return &MetricsCollector{
		registry: registry,
		indexBuilds: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "customer_index_builds_total",
			Help: "Total number of index builds by outcome",
		}, []string{"outcome"}),
		buildDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "customer_index_build_duration_seconds",
			Help:    "Time taken to scan all sources and persist the index",
			Buckets: prometheus.DefBuckets,
		}),
		indexedCustomers: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "customer_index_customers",
			Help: "Number of customers in the most recent successful build",
		}),
		skippedSources: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "customer_index_skipped_sources",
			Help: "Number of empty sources skipped by the most recent successful build",
		}),
		queries: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "customer_queries_total",
			Help: "Total number of customer queries by outcome",
		}, []string{"outcome"}),
		queryDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "customer_query_duration_seconds",
			Help:    "Time taken to answer a customer query",
			Buckets: prometheus.DefBuckets,
		}),
		matchDistribution: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "customer_query_matches",
			Help:    "Distribution of matching customers per query",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
		}),
		logger: logger,
	}
}

func (m *MetricsCollector) RecordBuild(duration time.Duration, customers, skipped int, success bool) {
	m.buildDuration.Observe(duration.Seconds())
	if !success {
		m.indexBuilds.WithLabelValues(OutcomeFailure).Inc()
		return
	}
	m.indexBuilds.WithLabelValues(OutcomeSuccess).Inc()
	m.indexedCustomers.Set(float64(customers))
	m.skippedSources.Set(float64(skipped))
}

func (m *MetricsCollector) RecordQuery(duration time.Duration, matches int, outcome string) {
	m.queries.WithLabelValues(outcome).Inc()
	m.queryDuration.Observe(duration.Seconds())
	if outcome == OutcomeSuccess {
		m.matchDistribution.Observe(float64(matches))
	}
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	m.mu.Lock()
	m.server = server
	m.mu.Unlock()

	go func() {
		m.logger.Info().Str("addr", addr).Msg("Starting metrics server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	return server
}

func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	server := m.server
	m.mu.Unlock()

	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			return err
		}
	}
	m.logger.Info().Msg("Metrics collector shutdown complete")
	return nil
}
