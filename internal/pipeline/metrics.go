package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Stage labels used by the failure counter. Visualization and explanation
// degrade instead of failing, so only the fatal stages are counted.
const (
	StageSchema   = "schema"
	StageGenerate = "generate"
	StageExecute  = "execute"
)

// Metrics counts pipeline activity.
type Metrics struct {
	Requests      prometheus.Counter
	StageFailures *prometheus.CounterVec
	Duration      prometheus.Histogram
}

// NewMetrics registers the pipeline collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "askdb",
			Name:      "pipeline_requests_total",
			Help:      "Questions accepted by the pipeline.",
		}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "askdb",
			Name:      "pipeline_stage_failures_total",
			Help:      "Failures per fatal pipeline stage.",
		}, []string{"stage"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "askdb",
			Name:      "pipeline_duration_seconds",
			Help:      "Wall-clock time of a full pipeline run.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
	reg.MustRegister(m.Requests, m.StageFailures, m.Duration)
	return m
}
