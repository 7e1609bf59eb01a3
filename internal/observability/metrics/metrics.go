package metrics

import "github.com/prometheus/client_golang/prometheus"

// PhoneMetrics exposes counters/histograms for phone reputation lookups.
type PhoneMetrics struct {
	lookupTotal   *prometheus.CounterVec
	lookupLatency prometheus.Histogram
}

func NewPhoneMetrics(reg prometheus.Registerer) *PhoneMetrics {
	m := &PhoneMetrics{
		lookupTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quoteotter",
			Subsystem: "phone",
			Name:      "lookup_total",
			Help:      "Total phone assessments by result source",
		}, []string{"source"}),
		lookupLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quoteotter",
			Subsystem: "phone",
			Name:      "lookup_latency_seconds",
			Help:      "Latency of upstream reputation lookups",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.lookupTotal, m.lookupLatency)
	return m
}

// ObserveLookup records one assessment; source is cache_hit, upstream or fallback.
func (m *PhoneMetrics) ObserveLookup(source string) {
	if m == nil {
		return
	}
	m.lookupTotal.WithLabelValues(source).Inc()
}

func (m *PhoneMetrics) ObserveLookupLatency(seconds float64) {
	if m == nil {
		return
	}
	m.lookupLatency.Observe(seconds)
}

// PipelineMetrics tracks the lead intake and distribution flow.
type PipelineMetrics struct {
	leadsTotal       *prometheus.CounterVec
	assignmentsTotal *prometheus.CounterVec
	matchedProviders prometheus.Histogram
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		leadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quoteotter",
			Subsystem: "leads",
			Name:      "created_total",
			Help:      "Total leads created by final status and intent",
		}, []string{"status", "intent"}),
		assignmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quoteotter",
			Subsystem: "leads",
			Name:      "assignments_total",
			Help:      "Total lead assignment writes",
		}, []string{"status"}),
		matchedProviders: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quoteotter",
			Subsystem: "leads",
			Name:      "matched_providers",
			Help:      "Providers matched per approved lead",
			Buckets:   []float64{0, 1, 2, 3},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.leadsTotal, m.assignmentsTotal, m.matchedProviders)
	return m
}

func (m *PipelineMetrics) ObserveLeadCreated(status, intent string) {
	if m == nil {
		return
	}
	m.leadsTotal.WithLabelValues(status, intent).Inc()
}

func (m *PipelineMetrics) ObserveAssignment(status string) {
	if m == nil {
		return
	}
	m.assignmentsTotal.WithLabelValues(status).Inc()
}

func (m *PipelineMetrics) ObserveMatchedProviders(count int) {
	if m == nil {
		return
	}
	m.matchedProviders.Observe(float64(count))
}
