package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestAgentMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAgentMetrics(reg)
	m.ObserveTurn("book", "booked", 0.5)
	m.ObserveTurn("cancel", "failed", 0.1)
	m.ObserveGatewayFailure()
}

func TestAgentMetricsDefaultRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAgentMetrics(reg)
	m.ObserveTurn("availability", "answered", 0.2)
}

func TestAgentMetricsNilSafe(t *testing.T) {
	var m *AgentMetrics
	m.ObserveTurn("book", "booked", 0.1)
	m.ObserveGatewayFailure()
}
