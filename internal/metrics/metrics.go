// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RiskAnalyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swinewatch_risk_analyses_total",
		Help: "Risk analyses computed, by resulting level.",
	}, []string{"level"})

	RiskCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swinewatch_risk_cache_hits_total",
		Help: "Risk reports served from the cache.",
	})

	ObservationsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swinewatch_observations_recorded_total",
		Help: "Observations accepted and stored.",
	})

	MonitoringRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swinewatch_monitoring_rejected_total",
		Help: "Observations refused because the monitoring window was closed, by state.",
	}, []string{"state"})

	AlertsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swinewatch_alerts_sent_total",
		Help: "WhatsApp messages sent, by kind.",
	}, []string{"kind"})
)
