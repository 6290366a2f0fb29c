package analytics

import (
	"github.com/prometheus/client_golang/prometheus"

	"rosterkit/core"
)

// PrometheusHook exports roster events and size as Prometheus metrics.
type PrometheusHook struct {
	events  *prometheus.CounterVec
	records prometheus.Gauge
}

// NewPrometheusHook registers the roster collectors on reg. When average is
// non-nil it backs the rosterkit_average_score gauge and is called on every
// scrape.
func NewPrometheusHook(reg prometheus.Registerer, average func() float64) (*PrometheusHook, error) {
	h := &PrometheusHook{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterkit_events_total",
			Help: "Roster events published, by type.",
		}, []string{"type"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rosterkit_records",
			Help: "Records held by the roster after the last event.",
		}),
	}
	collectors := []prometheus.Collector{h.events, h.records}
	if average != nil {
		collectors = append(collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "rosterkit_average_score",
			Help: "Mean score of the roster.",
		}, average))
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	for _, typ := range core.AllEventTypes {
		h.events.WithLabelValues(string(typ))
	}
	return h, nil
}

func (h *PrometheusHook) OnEvent(e core.Event) {
	h.events.WithLabelValues(string(e.Type)).Inc()
	h.records.Set(float64(e.Count))
}
