// Package observability registers the prometheus counters the ingestion
// pipeline reports. The HTTP layer serves them on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

const (
	FetchOK      = "ok"
	FetchEmpty   = "empty"
	FetchError   = "error"
	FetchSkipped = "skipped"
)

type Metrics struct {
	feedFetches   *prometheus.CounterVec
	ingestionRuns *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		feedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chargeview_feed_fetch_total",
			Help: "Upstream feed fetches by feed and outcome.",
		}, []string{"feed", "status"}),
		ingestionRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chargeview_ingestion_runs_total",
			Help: "Completed ingestion runs by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.feedFetches, m.ingestionRuns)
	return m
}

func (m *Metrics) ObserveFetch(feed, status string) {
	if m == nil {
		return
	}
	m.feedFetches.WithLabelValues(feed, status).Inc()
}

func (m *Metrics) ObserveRun(success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.ingestionRuns.WithLabelValues(result).Inc()
}

func newRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func asRegisterer(r *prometheus.Registry) prometheus.Registerer { return r }

var Module = fx.Module("observability",
	fx.Provide(newRegistry),
	fx.Provide(asRegisterer),
	fx.Provide(NewMetrics),
)
