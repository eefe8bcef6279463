package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records execution metadata for scheduled worker jobs.
type JobMetrics struct {
	duration    *prometheus.HistogramVec
	success     *prometheus.CounterVec
	failure     *prometheus.CounterVec
	distributed *prometheus.CounterVec
	skipped     *prometheus.CounterVec
}

// NewJobMetrics registers the worker job metrics on the provided registerer.
// A nil registerer yields a no-op recorder, which keeps tests quiet.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of worker jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful worker job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed worker job executions.",
	}, []string{"job"})
	distributed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "benefit_distributions_total",
		Help: "Benefit distribution records created by worker jobs.",
	}, []string{"job"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "benefit_distributions_skipped_total",
		Help: "Benefit distributions skipped because the user already received them.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure, distributed, skipped)
	return &JobMetrics{
		duration:    duration,
		success:     success,
		failure:     failure,
		distributed: distributed,
		skipped:     skipped,
	}
}

// ObserveDuration records the duration for the named job.
func (m *JobMetrics) ObserveDuration(job string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (m *JobMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (m *JobMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// AddDistributed adds to the distributed-benefit counter for the named job.
func (m *JobMetrics) AddDistributed(job string, n int) {
	if m == nil || m.distributed == nil || n <= 0 {
		return
	}
	m.distributed.WithLabelValues(normalizeLabel(job)).Add(float64(n))
}

// AddSkipped adds to the skipped-distribution counter for the named job.
func (m *JobMetrics) AddSkipped(job string, n int) {
	if m == nil || m.skipped == nil || n <= 0 {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(job)).Add(float64(n))
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
