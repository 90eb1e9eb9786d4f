package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/finsight-cl/finsight/internal/core/domain"
)

// WorkerMetrics instruments the polling worker. Each instance carries a
// private registry so tests and multiple workers never collide.
type WorkerMetrics struct {
	registry *prometheus.Registry

	cyclesTotal  prometheus.Counter
	pendingGauge prometheus.Gauge
	jobsInFlight prometheus.Gauge
	jobsTotal    *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	cyclesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "finsight",
		Subsystem:   "worker",
		Name:        "poll_cycles_total",
		Help:        "Total completed poll cycles.",
		ConstLabels: constLabels,
	})
	pendingGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "finsight",
		Subsystem:   "worker",
		Name:        "pending_jobs",
		Help:        "Pending jobs observed in the last poll cycle.",
		ConstLabels: constLabels,
	})
	jobsInFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "finsight",
		Subsystem:   "worker",
		Name:        "jobs_in_flight",
		Help:        "Jobs currently being processed.",
		ConstLabels: constLabels,
	})
	jobsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "finsight",
		Subsystem:   "worker",
		Name:        "jobs_processed_total",
		Help:        "Total processed jobs by terminal status.",
		ConstLabels: constLabels,
	}, []string{"status"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   "finsight",
		Subsystem:   "worker",
		Name:        "job_duration_seconds",
		Help:        "Job processing duration in seconds by terminal status.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: constLabels,
	}, []string{"status"})

	registry.MustRegister(cyclesTotal, pendingGauge, jobsInFlight, jobsTotal, jobDuration)

	return &WorkerMetrics{
		registry:     registry,
		cyclesTotal:  cyclesTotal,
		pendingGauge: pendingGauge,
		jobsInFlight: jobsInFlight,
		jobsTotal:    jobsTotal,
		jobDuration:  jobDuration,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) CycleCompleted(pending int) {
	m.cyclesTotal.Inc()
	m.pendingGauge.Set(float64(pending))
}

func (m *WorkerMetrics) JobStarted() {
	m.jobsInFlight.Inc()
}

func (m *WorkerMetrics) JobFinished(status domain.JobStatus, duration time.Duration) {
	m.jobsInFlight.Dec()
	label := strings.ToLower(string(status))
	m.jobsTotal.WithLabelValues(label).Inc()
	m.jobDuration.WithLabelValues(label).Observe(duration.Seconds())
}
