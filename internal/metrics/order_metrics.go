package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики жизненного цикла заказов.
type OrderMetrics struct {
	// Счётчики операций
	ordersPlaced      *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	paymentAttempts   *prometheus.CounterVec
	itemMutations     *prometheus.CounterVec
	authzDenials      *prometheus.CounterVec
	outboxEvents      prometheus.Counter

	// Гистограмма времени выполнения операций
	opDuration *prometheus.HistogramVec

	// Gauge для активных (нетерминальных) заказов
	activeOrders prometheus.Gauge
}

// NewOrderMetrics создаёт новый экземпляр метрик заказов.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersPlaced: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cafe_orders_placed_total",
			Help: "Total number of orders placed",
		}, []string{"kind"}),
		statusTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cafe_order_status_transitions_total",
			Help: "Total number of order status transitions",
		}, []string{"to"}),
		paymentAttempts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cafe_payment_attempts_total",
			Help: "Total number of payment attempts",
		}, []string{"method", "result"}),
		itemMutations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cafe_order_item_mutations_total",
			Help: "Total number of order item mutations",
		}, []string{"op"}),
		authzDenials: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cafe_authz_denials_total",
			Help: "Total number of denied authorization checks",
		}, []string{"action"}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cafe_outbox_events_total",
			Help: "Total number of outbox events published",
		}),
		opDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "cafe_order_operation_duration_seconds",
			Help:    "Duration of order operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		activeOrders: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "cafe_active_orders",
			Help: "Number of orders currently in a non-terminal status",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderPlaced увеличивает счётчик размещённых заказов.
func (m *OrderMetrics) RecordOrderPlaced(kind string) {
	m.ordersPlaced.WithLabelValues(kind).Inc()
	m.activeOrders.Inc()
}

// RecordStatusTransition увеличивает счётчик переходов статуса.
func (m *OrderMetrics) RecordStatusTransition(to string, terminal bool) {
	m.statusTransitions.WithLabelValues(to).Inc()
	if terminal {
		m.activeOrders.Dec()
	}
}

// RecordPaymentAttempt увеличивает счётчик платёжных попыток.
func (m *OrderMetrics) RecordPaymentAttempt(method string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.paymentAttempts.WithLabelValues(method, result).Inc()
}

// RecordItemMutation увеличивает счётчик мутаций состава заказа.
func (m *OrderMetrics) RecordItemMutation(op string) {
	m.itemMutations.WithLabelValues(op).Inc()
}

// RecordAuthzDenial увеличивает счётчик отказов авторизации.
func (m *OrderMetrics) RecordAuthzDenial(action string) {
	m.authzDenials.WithLabelValues(action).Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *OrderMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}

// RecordOperationDuration записывает время выполнения операции.
func (m *OrderMetrics) RecordOperationDuration(operation string, duration time.Duration) {
	m.opDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
