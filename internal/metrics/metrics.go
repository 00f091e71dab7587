// Package metrics exports run telemetry as Prometheus series.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	modelswitch "github.com/haowjy/modelswitch-go"
)

const namespace = "modelswitch"

// Metrics implements switcher.Observer.
type Metrics struct {
	gatherer prometheus.Gatherer

	tokens    *prometheus.CounterVec
	callTime  *prometheus.HistogramVec
	failures  *prometheus.CounterVec
	runs      *prometheus.CounterVec
	smallFrac prometheus.Histogram
}

// NewMetrics registers the collectors on reg. A nil reg uses a fresh registry.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		gatherer: reg,
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Tokens emitted, by producing role and phase.",
		}, []string{"role", "phase"}),
		callTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_seconds",
			Help:      "Latency of single-token model calls.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"role"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Failed model calls, by role and error kind.",
		}, []string{"role", "kind"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished generation runs, by outcome.",
		}, []string{"outcome"}),
		smallFrac: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "small_fraction",
			Help:      "Fraction of each run's tokens produced by the small model.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}

	for _, c := range []prometheus.Collector{m.tokens, m.callTime, m.failures, m.runs, m.smallFrac} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// OnToken counts an emitted token and its call latency.
func (m *Metrics) OnToken(ev modelswitch.TokenEvent, latency time.Duration) {
	m.tokens.WithLabelValues(string(ev.Role), string(ev.Phase)).Inc()
	m.callTime.WithLabelValues(string(ev.Role)).Observe(latency.Seconds())
}

// OnFailure counts a failed model call.
func (m *Metrics) OnFailure(role modelswitch.Role, err error) {
	m.failures.WithLabelValues(string(role), ErrorKind(err)).Inc()
}

// OnFinish records the run outcome.
func (m *Metrics) OnFinish(summary *modelswitch.RunSummary, err error) {
	m.runs.WithLabelValues(Outcome(err)).Inc()
	if summary != nil && summary.Total > 0 {
		m.smallFrac.Observe(summary.SmallFraction())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ErrorKind labels err: unavailable, protocol, cancelled or other.
func ErrorKind(err error) string {
	switch {
	case modelswitch.IsModelUnavailable(err):
		return "unavailable"
	case modelswitch.IsProtocolError(err):
		return "protocol"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}

// Outcome labels a finished run.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return ErrorKind(err)
}
