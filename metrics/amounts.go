package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AmountMetrics instruments amount formatting done on behalf of clients.
type AmountMetrics struct {
	malformedInputs *prometheus.CounterVec
	classifications *prometheus.CounterVec
}

// NewDefaultAmountMetrics creates the amount formatting metrics.
func NewDefaultAmountMetrics() AmountMetrics {
	metrics := AmountMetrics{
		malformedInputs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "amounts_malformed_inputs",
				Help: "How many inputs could not be interpreted as a number, partitioned by operation.",
			},
			[]string{"operation"},
		),
		classifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "amounts_sign_classifications",
				Help: "How many amounts were classified, partitioned by sign class.",
			},
			[]string{"class"},
		),
	}
	metrics.malformedInputs = registerOnce(metrics.malformedInputs).(*prometheus.CounterVec)
	metrics.classifications = registerOnce(metrics.classifications).(*prometheus.CounterVec)
	return metrics
}

// MalformedInputs returns the counter of malformed inputs for operation.
func (m *AmountMetrics) MalformedInputs(operation string) prometheus.Counter {
	return m.malformedInputs.WithLabelValues(operation)
}

// Classifications returns the counter of amounts classified as class.
func (m *AmountMetrics) Classifications(class string) prometheus.Counter {
	return m.classifications.WithLabelValues(class)
}
