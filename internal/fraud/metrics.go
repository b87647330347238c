package fraud

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	alertsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_alerts_generated_total",
			Help: "Total number of fraud alerts generated",
		},
		[]string{"alert_type", "severity"},
	)

	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_analyses_total",
			Help: "Total number of fraud analyses run",
		},
		[]string{"detector", "outcome"},
	)

	analysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fraud_analysis_duration_seconds",
			Help:    "Fraud analysis duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"detector"},
	)
)
