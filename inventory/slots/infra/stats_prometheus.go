package infra

import (
	"context"

	"inventory-orchestrator/inventory/slots/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStats expõe os eventos do orquestrador como métricas.
type PrometheusStats struct {
	events    *prometheus.CounterVec
	cooldowns *prometheus.HistogramVec
}

var _ domain.StatsStore = (*PrometheusStats)(nil)

// NewPrometheusStats cria e registra as métricas no registerer informado.
func NewPrometheusStats(reg prometheus.Registerer) *PrometheusStats {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PrometheusStats{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "inventory",
				Subsystem: "slots",
				Name:      "events_total",
				Help:      "Slot orchestrator events by category and kind.",
			},
			[]string{"category", "kind"},
		),
		cooldowns: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "inventory",
				Subsystem: "slots",
				Name:      "cooldown_remaining_seconds",
				Help:      "Remaining cooldown reported when a display is rejected by frequency capping.",
				Buckets:   []float64{1, 5, 10, 15, 20, 25, 30, 60, 120},
			},
			[]string{"category"},
		),
	}
	reg.MustRegister(m.events, m.cooldowns)
	return m
}

func (m *PrometheusStats) Record(_ context.Context, ev domain.Event) error {
	if m == nil {
		return nil
	}
	cat := string(ev.Category)
	m.events.WithLabelValues(cat, string(ev.Kind)).Inc()
	if ev.Kind == domain.EventRejected && ev.Remaining > 0 {
		m.cooldowns.WithLabelValues(cat).Observe(ev.Remaining.Seconds())
	}
	return nil
}
