package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records order pipeline outcomes.
type CheckoutMetrics struct {
	ordersCreated    prometheus.Counter
	checkoutFailures *prometheus.CounterVec
	transitions      *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders successfully created.",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Checkout attempts rejected, by error code.",
	}, []string{"code"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions applied.",
	}, []string{"to"})
	reg.MustRegister(created, failures, transitions)
	return &CheckoutMetrics{
		ordersCreated:    created,
		checkoutFailures: failures,
		transitions:      transitions,
	}
}

// IncOrderCreated increments the created-order counter.
func (c *CheckoutMetrics) IncOrderCreated() {
	if c == nil || c.ordersCreated == nil {
		return
	}
	c.ordersCreated.Inc()
}

// IncCheckoutFailure increments the failure counter for the given error code.
func (c *CheckoutMetrics) IncCheckoutFailure(code string) {
	if c == nil || c.checkoutFailures == nil {
		return
	}
	if code == "" {
		code = "unknown"
	}
	c.checkoutFailures.WithLabelValues(code).Inc()
}

// IncTransition increments the transition counter for the target status.
func (c *CheckoutMetrics) IncTransition(target string) {
	if c == nil || c.transitions == nil {
		return
	}
	c.transitions.WithLabelValues(target).Inc()
}
