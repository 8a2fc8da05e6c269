package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SagaMetrics records outcomes of saga executions and their compensations.
type SagaMetrics struct {
	duration    *prometheus.HistogramVec
	completed   *prometheus.CounterVec
	failed      *prometheus.CounterVec
	stepFailed  *prometheus.CounterVec
	compensated *prometheus.CounterVec
}

// NewSagaMetrics registers the saga metrics on the provided registerer.
func NewSagaMetrics(reg prometheus.Registerer) *SagaMetrics {
	if reg == nil {
		return &SagaMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "saga_duration_seconds",
		Help:    "Wall time of saga executions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"saga"})
	completed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_completed",
		Help: "Sagas that ran every step to completion.",
	}, []string{"saga"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_failed",
		Help: "Sagas that ended in FAILED after compensation.",
	}, []string{"saga"})
	stepFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_step_failed",
		Help: "Individual saga steps that returned an error.",
	}, []string{"saga", "step"})
	compensated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_compensations",
		Help: "Compensation handlers executed, by outcome.",
	}, []string{"saga", "step", "outcome"})
	reg.MustRegister(duration, completed, failed, stepFailed, compensated)
	return &SagaMetrics{
		duration:    duration,
		completed:   completed,
		failed:      failed,
		stepFailed:  stepFailed,
		compensated: compensated,
	}
}

// ObserveDuration records the wall time for the named saga.
func (m *SagaMetrics) ObserveDuration(saga string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(saga)).Observe(duration.Seconds())
}

// IncCompleted increments the completion counter for the named saga.
func (m *SagaMetrics) IncCompleted(saga string) {
	if m == nil || m.completed == nil {
		return
	}
	m.completed.WithLabelValues(normalizeLabel(saga)).Inc()
}

// IncFailed increments the failure counter for the named saga.
func (m *SagaMetrics) IncFailed(saga string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(saga)).Inc()
}

// IncStepFailed increments the per-step failure counter.
func (m *SagaMetrics) IncStepFailed(saga, step string) {
	if m == nil || m.stepFailed == nil {
		return
	}
	m.stepFailed.WithLabelValues(normalizeLabel(saga), normalizeLabel(step)).Inc()
}

// IncCompensation records a compensation run with its outcome label.
func (m *SagaMetrics) IncCompensation(saga, step, outcome string) {
	if m == nil || m.compensated == nil {
		return
	}
	m.compensated.WithLabelValues(normalizeLabel(saga), normalizeLabel(step), normalizeLabel(outcome)).Inc()
}
