package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolve outcomes.
const (
	OutcomeBootstrap = "bootstrap" // no match, fresh primary
	OutcomeAttached  = "attached"  // new secondary added to one cluster
	OutcomeMerged    = "merged"    // two or more primaries collapsed
	OutcomeMatched   = "matched"   // nothing written
)

// Metrics provides observability for the identity resolution engine.
type Metrics struct {
	ResolveOutcome *prometheus.CounterVec
	Demotions      prometheus.Counter
	Relinked       prometheus.Counter
	ResolveLatency prometheus.Histogram
	TxRetries      prometheus.Counter
	ClusterSize    prometheus.Histogram
	CacheLookups   *prometheus.CounterVec
}

// New registers the contact metrics with the default registry. Call it once
// per process.
func New() *Metrics {
	return &Metrics{
		ResolveOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reconciler_resolve_outcomes_total",
			Help: "Total identity resolutions by outcome",
		}, []string{"outcome"}),

		Demotions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reconciler_contact_demotions_total",
			Help: "Primary contacts demoted to secondary during a merge",
		}),

		Relinked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reconciler_contact_relinks_total",
			Help: "Secondary contacts re-pointed at a new primary during a merge",
		}),

		ResolveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "reconciler_resolve_duration_seconds",
			Help:    "Duration of one resolve including retries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		TxRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reconciler_resolve_tx_retries_total",
			Help: "Resolve transactions re-run after a serialization conflict",
		}),

		ClusterSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "reconciler_cluster_size",
			Help:    "Number of contacts in the resolved cluster",
			Buckets: []float64{1, 2, 3, 5, 10, 25, 50, 100},
		}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reconciler_cluster_cache_lookups_total",
			Help: "Cluster cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss"
	}
}

func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.ResolveOutcome.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) AddDemotions(n int) {
	if m != nil && n > 0 {
		m.Demotions.Add(float64(n))
	}
}

func (m *Metrics) AddRelinked(n int) {
	if m != nil && n > 0 {
		m.Relinked.Add(float64(n))
	}
}

// ObserveResolveLatency records the total resolve duration.
func (m *Metrics) ObserveResolveLatency(d time.Duration) {
	if m != nil {
		m.ResolveLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementTxRetry() {
	if m != nil {
		m.TxRetries.Inc()
	}
}

func (m *Metrics) ObserveClusterSize(n int) {
	if m != nil {
		m.ClusterSize.Observe(float64(n))
	}
}

func (m *Metrics) IncrementCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
