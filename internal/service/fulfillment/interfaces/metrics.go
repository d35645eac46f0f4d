package interfaces

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_mutations_total",
		Help: "Item status mutations processed, by operation and outcome.",
	}, []string{"operation", "outcome"})

	mutationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fulfillment_mutation_duration_seconds",
		Help:    "End-to-end latency of status mutations, remote call included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)
