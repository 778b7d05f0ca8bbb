package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus collectors exported by the ledger.
type Metrics struct {
	// Posting engine
	EntriesPosted   *prometheus.CounterVec
	PostingFailures *prometheus.CounterVec
	Reversals       prometheus.Counter

	// Period manager
	PeriodCloses  *prometheus.CounterVec
	CloseDuration prometheus.Histogram
	Transitions   *prometheus.CounterVec

	// Statements and reconciliation
	IntegrityFailures *prometheus.CounterVec
	Reconciliations   *prometheus.CounterVec

	// Balance cache
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewMetrics registers the collectors with the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry registers the collectors with a custom registry.
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		EntriesPosted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_journal_entries_posted_total",
			Help: "Journal entries committed, by source type",
		}, []string{"source_type"}),
		PostingFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_posting_failures_total",
			Help: "Rejected postings, by error name",
		}, []string{"reason"}),
		Reversals: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_reversals_total",
			Help: "Journal entries reversed",
		}),
		PeriodCloses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_period_closes_total",
			Help: "Period close attempts, by outcome",
		}, []string{"outcome"}),
		CloseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_period_close_duration_seconds",
			Help:    "Time spent completing a period close",
			Buckets: prometheus.DefBuckets,
		}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_period_transitions_total",
			Help: "Period status transitions, by target status",
		}, []string{"status"}),
		IntegrityFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_integrity_failures_total",
			Help: "Failed integrity checks, by check name",
		}, []string{"check"}),
		Reconciliations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_reconciliations_total",
			Help: "Reconciliation runs, by result",
		}, []string{"result"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_balance_cache_hits_total",
			Help: "Balance lookups served from cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_balance_cache_misses_total",
			Help: "Balance lookups folded from journal lines",
		}),
	}
}

// The helpers below accept a nil receiver so services can run without metrics.

func (m *Metrics) EntryPosted(sourceType string) {
	if m == nil {
		return
	}
	m.EntriesPosted.WithLabelValues(sourceType).Inc()
}

func (m *Metrics) PostingFailed(reason string) {
	if m == nil {
		return
	}
	m.PostingFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) EntryReversed() {
	if m == nil {
		return
	}
	m.Reversals.Inc()
}

// PeriodClosed records a close attempt and how long it took.
func (m *Metrics) PeriodClosed(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.PeriodCloses.WithLabelValues(outcome).Inc()
	m.CloseDuration.Observe(seconds)
}

func (m *Metrics) PeriodTransitioned(status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) IntegrityFailed(check string) {
	if m == nil {
		return
	}
	m.IntegrityFailures.WithLabelValues(check).Inc()
}

func (m *Metrics) Reconciled(result string) {
	if m == nil {
		return
	}
	m.Reconciliations.WithLabelValues(result).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}
