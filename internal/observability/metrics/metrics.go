package metrics

import "github.com/prometheus/client_golang/prometheus"

// RetrievalMetrics exposes counters/histograms for the pre-model retrieval hook.
type RetrievalMetrics struct {
	turnsTotal       *prometheus.CounterVec
	cacheTotal       *prometheus.CounterVec
	searchFailures   *prometheus.CounterVec
	retrievalLatency *prometheus.HistogramVec
	injectedTokens   prometheus.Histogram
}

func NewRetrievalMetrics(reg prometheus.Registerer) *RetrievalMetrics {
	m := &RetrievalMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealscope",
			Subsystem: "retrieval",
			Name:      "turns_total",
			Help:      "Total hook invocations by outcome and classified intent",
		}, []string{"outcome", "intent"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealscope",
			Subsystem: "retrieval",
			Name:      "cache_lookups_total",
			Help:      "Topic cache lookups by result",
		}, []string{"result"}),
		searchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealscope",
			Subsystem: "retrieval",
			Name:      "search_failures_total",
			Help:      "Hybrid search calls that degraded to pass-through",
		}, []string{"reason"}),
		retrievalLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dealscope",
			Subsystem: "retrieval",
			Name:      "latency_seconds",
			Help:      "Wall-clock hook latency from entry to return",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		injectedTokens: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dealscope",
			Subsystem: "retrieval",
			Name:      "injected_tokens",
			Help:      "Estimated tokens of context injected per turn",
			Buckets:   []float64{100, 250, 500, 1000, 1500, 2000, 3000},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.cacheTotal, m.searchFailures, m.retrievalLatency, m.injectedTokens)
	return m
}

func (m *RetrievalMetrics) ObserveTurn(outcome, intent string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome, intent).Inc()
	m.retrievalLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *RetrievalMetrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}

func (m *RetrievalMetrics) ObserveSearchFailure(reason string) {
	if m == nil {
		return
	}
	m.searchFailures.WithLabelValues(reason).Inc()
}

func (m *RetrievalMetrics) ObserveInjectedTokens(tokens int) {
	if m == nil {
		return
	}
	m.injectedTokens.Observe(float64(tokens))
}
