package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the order module.
type Metrics struct {
	OrdersCreated prometheus.Counter
	OrderValue    prometheus.Histogram
}

// New registers the order metrics with the default registry.
func New() *Metrics {
	return &Metrics{
		OrdersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reconciler_orders_created_total",
			Help: "Orders created",
		}),
		OrderValue: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "reconciler_order_value",
			Help:    "Value of created orders",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

// ObserveCreated records one created order and its value.
func (m *Metrics) ObserveCreated(value float64) {
	if m != nil {
		m.OrdersCreated.Inc()
		m.OrderValue.Observe(value)
	}
}
