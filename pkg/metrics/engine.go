package metrics

import "github.com/prometheus/client_golang/prometheus"

// Payment confirmation outcomes.
const (
	PaymentCreated   = "created"
	PaymentDuplicate = "duplicate"
	PaymentRejected  = "rejected"
	PaymentFailed    = "failed"
)

// Delivery code outcomes.
const (
	CodeIssued   = "issued"
	CodeReused   = "reused"
	CodeRedeemed = "redeemed"
	CodeExpired  = "expired"
	CodeMismatch = "mismatch"
	CodeMissing  = "missing"
	CodeLocked   = "locked"
)

// EngineMetrics counts order lifecycle events.
type EngineMetrics struct {
	payments      *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	deliveryCodes *prometheus.CounterVec
	notifications *prometheus.CounterVec
	settled       prometheus.Counter
}

// NewEngineMetrics registers the engine counters on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	m := &EngineMetrics{
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradelink",
			Name:      "payment_confirmations_total",
			Help:      "Payment confirmations by outcome.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradelink",
			Name:      "order_transitions_total",
			Help:      "Order status and tracking transitions.",
		}, []string{"field", "to"}),
		deliveryCodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradelink",
			Name:      "delivery_codes_total",
			Help:      "Delivery handoff code requests and redemptions by outcome.",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradelink",
			Name:      "notifications_total",
			Help:      "Notification dispatches by kind and result.",
		}, []string{"kind", "result"}),
		settled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tradelink",
			Name:      "earnings_settled_total",
			Help:      "Seller earnings moved to settled.",
		}),
	}
	reg.MustRegister(m.payments, m.transitions, m.deliveryCodes, m.notifications, m.settled)
	return m
}

func (m *EngineMetrics) Payment(outcome string) {
	if m == nil || m.payments == nil {
		return
	}
	m.payments.WithLabelValues(outcome).Inc()
}

func (m *EngineMetrics) Transition(field, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(field, to).Inc()
}

func (m *EngineMetrics) DeliveryCode(outcome string) {
	if m == nil || m.deliveryCodes == nil {
		return
	}
	m.deliveryCodes.WithLabelValues(outcome).Inc()
}

func (m *EngineMetrics) Notification(kind string, ok bool) {
	if m == nil || m.notifications == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.notifications.WithLabelValues(normalizeLabel(kind), result).Inc()
}

func (m *EngineMetrics) Settled(n int64) {
	if m == nil || m.settled == nil || n <= 0 {
		return
	}
	m.settled.Add(float64(n))
}
