package crawler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawler.
type Metrics struct {
	Registry       *prometheus.Registry
	ShopsTotal     *prometheus.CounterVec
	AttemptsTotal  prometheus.Counter
	RetriesTotal   prometheus.Counter
	FailuresTotal  *prometheus.CounterVec
	SessionResets  prometheus.Counter
	ShopDuration   prometheus.Histogram
	CacheHitsTotal prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	shops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_shops_total",
			Help: "Shops processed, by classified status.",
		},
		[]string{"status"},
	)
	attempts := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_attempts_total",
			Help: "Per-shop pipeline attempts, including retries.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_retries_total",
			Help: "Retry attempts scheduled after a failed attempt.",
		},
	)
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_failures_total",
			Help: "Failed attempts by failure kind.",
		},
		[]string{"kind"},
	)
	resets := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_session_resets_total",
			Help: "Browser sessions replaced after being lost.",
		},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_shop_duration_seconds",
			Help:    "Wall time spent per shop, successful or not.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_record_cache_hits_total",
			Help: "Duplicate registry entries served from the record cache.",
		},
	)

	registry.MustRegister(shops, attempts, retries, failures, resets, duration, cacheHits)

	return &Metrics{
		Registry:       registry,
		ShopsTotal:     shops,
		AttemptsTotal:  attempts,
		RetriesTotal:   retries,
		FailuresTotal:  failures,
		SessionResets:  resets,
		ShopDuration:   duration,
		CacheHitsTotal: cacheHits,
	}
}

// IncShop counts a completed shop by status.
func (m *Metrics) IncShop(status string) {
	if m == nil {
		return
	}
	m.ShopsTotal.WithLabelValues(status).Inc()
}

// IncAttempt counts one pipeline attempt.
func (m *Metrics) IncAttempt() {
	if m == nil {
		return
	}
	m.AttemptsTotal.Inc()
}

// IncRetry counts one scheduled retry.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncFailure counts a failed attempt by kind.
func (m *Metrics) IncFailure(kind string) {
	if m == nil {
		return
	}
	m.FailuresTotal.WithLabelValues(kind).Inc()
}

// IncSessionReset counts a session replacement.
func (m *Metrics) IncSessionReset() {
	if m == nil {
		return
	}
	m.SessionResets.Inc()
}

// ObserveShopDuration records the wall time spent on a shop.
func (m *Metrics) ObserveShopDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.ShopDuration.Observe(d.Seconds())
}

// IncCacheHit counts a duplicate shop served from the record cache.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}
