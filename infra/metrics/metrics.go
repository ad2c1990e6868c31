// Package metrics exposes the engine's operational counters in Prometheus
// format. Each Metrics value owns its registry so tests can create as many
// as they need without collisions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	OrdersSubmitted *prometheus.CounterVec
	OrdersRejected  *prometheus.CounterVec
	Trades          prometheus.Counter
	TradedQty       prometheus.Counter
	RetiredOrders   prometheus.Counter
}

// outcome label values for OrdersSubmitted.
const (
	OutcomeFilled  = "filled"
	OutcomePartial = "partial"
	OutcomeRested  = "rested"
)

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		OrdersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchbook_orders_submitted_total",
			Help: "Accepted orders by matching outcome.",
		}, []string{"outcome"}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchbook_orders_rejected_total",
			Help: "Rejected order requests by reason.",
		}, []string{"reason"}),
		Trades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchbook_trades_total",
			Help: "Executed trades.",
		}),
		TradedQty: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchbook_traded_quantity_total",
			Help: "Total quantity matched across all trades.",
		}),
		RetiredOrders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchbook_retired_orders_total",
			Help: "Orders recycled through the retire stack.",
		}),
	}
	reg.MustRegister(m.OrdersSubmitted, m.OrdersRejected, m.Trades, m.TradedQty, m.RetiredOrders)
	return m
}

// Handler serves the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
