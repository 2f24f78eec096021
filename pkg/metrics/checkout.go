package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "foodyzone"

// Checkout records cart, checkout and order activity.
type Checkout struct {
	cartMutations   *prometheus.CounterVec
	persistOutcomes *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	ordersPlaced    prometheus.Counter
	orderTotals     prometheus.Histogram
	orderFailures   *prometheus.CounterVec
	cancellations   prometheus.Counter
	httpDuration    *prometheus.HistogramVec
}

// NewCheckout registers the checkout metrics on the provided registerer.
func NewCheckout(reg prometheus.Registerer) *Checkout {
	if reg == nil {
		return &Checkout{}
	}
	m := &Checkout{
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart mutations by operation.",
		}, []string{"op"}),
		persistOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_persist_total",
			Help:      "Cart persistence writes by outcome.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_transitions_total",
			Help:      "Checkout step transitions.",
		}, []string{"from", "to"}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders placed successfully.",
		}),
		orderTotals: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_total_amount",
			Help:      "Order totals in currency units.",
			Buckets:   []float64{5, 10, 20, 30, 50, 75, 100, 200},
		}),
		orderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_failures_total",
			Help:      "Order placement failures by stage.",
		}, []string{"stage"}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmations_cancelled_total",
			Help:      "Pending confirmations cancelled before firing.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.cartMutations,
		m.persistOutcomes,
		m.transitions,
		m.ordersPlaced,
		m.orderTotals,
		m.orderFailures,
		m.cancellations,
		m.httpDuration,
	)
	return m
}

// IncCartMutation counts a cart mutation.
func (c *Checkout) IncCartMutation(op string) {
	if c == nil || c.cartMutations == nil {
		return
	}
	c.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncPersist counts a persistence outcome: ok, retried or failed.
func (c *Checkout) IncPersist(outcome string) {
	if c == nil || c.persistOutcomes == nil {
		return
	}
	c.persistOutcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (c *Checkout) IncTransition(from, to string) {
	if c == nil || c.transitions == nil {
		return
	}
	c.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// ObserveOrder records a placed order and its total.
func (c *Checkout) ObserveOrder(total float64) {
	if c == nil || c.ordersPlaced == nil {
		return
	}
	c.ordersPlaced.Inc()
	c.orderTotals.Observe(total)
}

func (c *Checkout) IncOrderFailure(stage string) {
	if c == nil || c.orderFailures == nil {
		return
	}
	c.orderFailures.WithLabelValues(normalizeLabel(stage)).Inc()
}

func (c *Checkout) IncCancellation() {
	if c == nil || c.cancellations == nil {
		return
	}
	c.cancellations.Inc()
}

// ObserveHTTP records request latency for a routed request.
func (c *Checkout) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if c == nil || c.httpDuration == nil {
		return
	}
	c.httpDuration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
