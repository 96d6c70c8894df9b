package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apod_pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"},
	)

	pipelineStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apod_pipeline_step_duration_seconds",
			Help:    "Pipeline step duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step", "status"},
	)

	apodRowsLoadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "apod_rows_loaded_total",
			Help: "Total number of rows inserted into the apod table",
		},
	)

	apodRowsVerified = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "apod_rows_verified",
			Help: "Row count returned by the most recent verification query",
		},
	)

	natsMessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apod_nats_messages_published_total",
			Help: "Total number of NATS messages published",
		},
		[]string{"subject", "status"},
	)
)
