package metrics

import "github.com/prometheus/client_golang/prometheus"

// AgentMetrics exposes counters/histograms for agent conversation turns.
type AgentMetrics struct {
	turnsTotal      *prometheus.CounterVec
	turnLatency     *prometheus.HistogramVec
	gatewayFailures prometheus.Counter
}

func NewAgentMetrics(reg prometheus.Registerer) *AgentMetrics {
	m := &AgentMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "agent",
			Name:      "turns_total",
			Help:      "Total processed caller turns",
		}, []string{"intent", "outcome"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "frontdesk",
			Subsystem: "agent",
			Name:      "turn_latency_seconds",
			Help:      "Latency of caller turn handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intent"}),
		gatewayFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "agent",
			Name:      "gateway_failures_total",
			Help:      "Total practice-management gateway call failures",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.turnLatency, m.gatewayFailures)
	return m
}

func (m *AgentMetrics) ObserveTurn(intent, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent, outcome).Inc()
	m.turnLatency.WithLabelValues(intent).Observe(seconds)
}

func (m *AgentMetrics) ObserveGatewayFailure() {
	if m == nil {
		return
	}
	m.gatewayFailures.Inc()
}
