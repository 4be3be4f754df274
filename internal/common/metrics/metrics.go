// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_pipeline_runs_total",
			Help: "Total number of analysis pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	AgentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "analysis_agent_duration_seconds",
			Help: "Duration of each agent invocation in seconds",
		},
		[]string{"agent"},
	)

	AgentFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_agent_failures_total",
			Help: "Total number of failed or timed-out agent invocations",
		},
		[]string{"agent", "error_code"},
	)

	ContextCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_context_cache_hits_total",
			Help: "News-context cache lookups by result",
		},
		[]string{"result"},
	)

	CompoundRiskScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_compound_risk_score",
			Help:    "Distribution of computed compound risk scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
)
