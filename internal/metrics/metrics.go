package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives domain counters.
type Recorder interface {
	EmailAttempt(ctx context.Context, status string)
	StatusTransition(ctx context.Context, status string)
}

// Prometheus exposes counters on its own registry.
type Prometheus struct {
	registry      *prometheus.Registry
	emailAttempts *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// NewPrometheus registers the service collectors plus the Go and process collectors.
func NewPrometheus(namespace string) *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		emailAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_attempts_total",
			Help:      "Confirmation email send attempts by outcome.",
		}, []string{"status"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Persisted order status changes by target status.",
		}, []string{"status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	p.registry.MustRegister(
		p.emailAttempts,
		p.transitions,
		p.httpRequests,
		p.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) EmailAttempt(_ context.Context, status string) {
	p.emailAttempts.WithLabelValues(status).Inc()
}

func (p *Prometheus) StatusTransition(_ context.Context, status string) {
	p.transitions.WithLabelValues(status).Inc()
}

// ObserveRequest records one served HTTP request.
func (p *Prometheus) ObserveRequest(route, method, code string, seconds float64) {
	p.httpRequests.WithLabelValues(route, method, code).Inc()
	p.httpDuration.WithLabelValues(route, method).Observe(seconds)
}

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry is exposed for tests.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Multi fans out to several recorders. Nil entries are ignored.
type Multi []Recorder

func (m Multi) EmailAttempt(ctx context.Context, status string) {
	for _, r := range m {
		if r != nil {
			r.EmailAttempt(ctx, status)
		}
	}
}

func (m Multi) StatusTransition(ctx context.Context, status string) {
	for _, r := range m {
		if r != nil {
			r.StatusTransition(ctx, status)
		}
	}
}
