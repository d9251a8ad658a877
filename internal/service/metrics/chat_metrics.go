package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finadvisor",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of chat and conversion endpoints",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5, 10, 20, 40},
		},
		[]string{"endpoint"},
	)

	EndpointOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finadvisor",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Requests by endpoint and outcome (ok, degraded, rejected, rate_limited, panic)",
		},
		[]string{"endpoint", "outcome"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointOutcomes)
	})
}
