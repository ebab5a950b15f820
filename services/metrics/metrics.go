package metricsvc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/loo7/core/loo7"
)

const namespace = "loo7"

// Metrics owns a registry so several instances can live in one process (tests).
type Metrics struct {
	registry *prometheus.Registry

	loo7Created    *prometheus.CounterVec
	loo7Evaluated  *prometheus.CounterVec
	followUpFailed prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	jobRuns        *prometheus.CounterVec
	jobErrors      *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	storePing      prometheus.Histogram
}

var _ loo7.Recorder = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loo7Created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "created_total", Help: "Loo7 created, follow-ups included",
		}, []string{"type"}),
		loo7Evaluated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "evaluated_total", Help: "Loo7 evaluated",
		}, []string{"score"}),
		followUpFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "followup_failures_total", Help: "Repeat follow-ups that could not be saved",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "job_runs_total", Help: "Total background job runs",
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "job_errors_total", Help: "Total background job errors",
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "job_duration_seconds", Help: "Background job duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		storePing: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "store_ping_seconds", Help: "Store ping latency",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.loo7Created, m.loo7Evaluated, m.followUpFailed,
		m.httpRequests, m.httpDuration,
		m.jobRuns, m.jobErrors, m.jobDuration,
		m.storePing,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Loo7Created(typ loo7.Type) {
	m.loo7Created.WithLabelValues(string(typ)).Inc()
}

func (m *Metrics) Loo7Evaluated(score loo7.Score) {
	m.loo7Evaluated.WithLabelValues(string(score)).Inc()
}

func (m *Metrics) FollowUpFailed() {
	m.followUpFailed.Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveJob records a background job run.
func (m *Metrics) ObserveJob(job string, d time.Duration, err error) {
	m.jobRuns.WithLabelValues(job).Inc()
	if err != nil {
		m.jobErrors.WithLabelValues(job).Inc()
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *Metrics) ObserveStorePing(d time.Duration) {
	m.storePing.Observe(d.Seconds())
}
