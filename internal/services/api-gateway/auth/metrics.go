package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_operations_total",
		Help: "Token lifecycle operations by outcome.",
	}, []string{"op", "outcome"})
	opDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auth_operation_duration_seconds",
		Help:    "Token lifecycle operation latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)
