package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds pipeline instrumentation.
type Metrics struct {
	runsTotal     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	degradedTotal *prometheus.CounterVec
}

// NewMetrics registers pipeline metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "resume_analyzer_pipeline_runs_total",
			Help: "Completed pipeline runs by outcome (completed, failed).",
		}, []string{"outcome"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "resume_analyzer_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		degradedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "resume_analyzer_pipeline_degraded_total",
			Help: "Soft failures absorbed by the degradation policy, by stage.",
		}, []string{"stage"}),
	}
}

func (m *Metrics) observeStage(stage Stage, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
}

func (m *Metrics) recordRun(outcome string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) recordDegraded(stage Stage) {
	if m == nil {
		return
	}
	m.degradedTotal.WithLabelValues(string(stage)).Inc()
}
