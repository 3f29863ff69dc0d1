package pacing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the pacing engine.
type Metrics struct {
	// Decision outcomes
	decisions    *prometheus.CounterVec
	delaySeconds *prometheus.GaugeVec

	// Window figures from the latest evaluation
	utilization  *prometheus.GaugeVec
	allowancePct *prometheus.GaugeVec
	overagePct   *prometheus.GaugeVec

	// Cache and upstream behavior
	cacheLookups *prometheus.CounterVec
	pollFailures prometheus.Counter
}

// NewMetrics creates a Metrics instance registered with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tempo_pacing_decisions_total",
				Help: "Total number of freshly computed pacing decisions",
			},
			[]string{"strategy", "window"},
		),

		delaySeconds: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tempo_pacing_delay_seconds",
				Help: "Delay emitted by the latest pacing decision",
			},
			[]string{"window"},
		),

		utilization: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tempo_pacing_utilization_percentage",
				Help: "Reported quota utilization per window",
			},
			[]string{"window"},
		),

		allowancePct: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tempo_pacing_allowance_percentage",
				Help: "Target allowance per window at the latest evaluation",
			},
			[]string{"window"},
		),

		overagePct: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tempo_pacing_overage_percentage",
				Help: "Utilization minus safe allowance per window (positive means over budget)",
			},
			[]string{"window"},
		),

		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tempo_pacing_cache_lookups_total",
				Help: "Decision cache lookups by result",
			},
			[]string{"result"},
		),

		pollFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tempo_pacing_poll_failures_total",
				Help: "Total number of failed upstream usage polls",
			},
		),
	}
}

// ObserveDecision records a freshly computed decision.
func (m *Metrics) ObserveDecision(d *Decision) {
	window := string(d.ConstrainedWindow)
	if window == "" {
		window = "none"
	}
	m.decisions.WithLabelValues(string(d.Strategy), window).Inc()
	m.delaySeconds.WithLabelValues(window).Set(float64(d.DelaySeconds))
}

// ObserveWindow records one window's evaluation figures.
func (m *Metrics) ObserveWindow(s *WindowStatus) {
	kind := string(s.Kind)
	m.utilization.WithLabelValues(kind).Set(s.UtilizationPct)
	m.allowancePct.WithLabelValues(kind).Set(s.AllowancePct)
	m.overagePct.WithLabelValues(kind).Set(s.OveragePct)
}

// ObserveCacheLookup records a decision cache hit or miss.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// PollFailure records a failed upstream usage poll.
func (m *Metrics) PollFailure() {
	m.pollFailures.Inc()
}
