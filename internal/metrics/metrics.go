// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bidmarket"

// Metrics groups the counters the marketplace core reports.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	BidsPlaced             prometheus.Counter
	BidRejections          *prometheus.CounterVec
	ListingTransitions     *prometheus.CounterVec
	TxRetries              *prometheus.CounterVec
	NotificationsDelivered *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BidsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bids_placed_total",
			Help:      "Bids committed to a listing's ledger.",
		}),
		BidRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bid_rejections_total",
			Help:      "Bid placements refused, by reason.",
		}, []string{"reason"}),
		ListingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_transitions_total",
			Help:      "Committed listing status changes, by target status.",
		}, []string{"status"}),
		TxRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_retries_total",
			Help:      "Transactions re-run after a transient store fault, by operation.",
		}, []string{"operation"}),
		NotificationsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_delivered_total",
			Help:      "Notification intents handed to the store, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.BidsPlaced, m.BidRejections, m.ListingTransitions, m.TxRetries, m.NotificationsDelivered)
	return m
}

func (m *Metrics) IncBidPlaced() {
	if m == nil {
		return
	}
	m.BidsPlaced.Inc()
}

func (m *Metrics) IncBidRejected(reason string) {
	if m == nil {
		return
	}
	m.BidRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncTransition(status string) {
	if m == nil {
		return
	}
	m.ListingTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncTxRetry(operation string) {
	if m == nil {
		return
	}
	m.TxRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) AddNotifications(result string, n int) {
	if m == nil {
		return
	}
	m.NotificationsDelivered.WithLabelValues(result).Add(float64(n))
}
