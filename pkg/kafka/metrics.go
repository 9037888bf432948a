package kafka

import "github.com/prometheus/client_golang/prometheus"

var registerer prometheus.Registerer = prometheus.DefaultRegisterer

// SetMetricsRegisterer sets the Prometheus registerer for producer and
// consumer metrics. Call it before the first NewProducer/NewConsumer.
func SetMetricsRegisterer(reg prometheus.Registerer) {
	if reg != nil {
		registerer = reg
	}
}
