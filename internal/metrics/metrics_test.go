// internal/metrics/metrics_test.go
package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncBidPlaced()
	m.IncBidPlaced()
	m.IncBidRejected("self_bid")
	m.IncTransition("approved")
	m.IncTxRetry("place_bid")
	m.AddNotifications("stored", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BidsPlaced))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BidRejections.WithLabelValues("self_bid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListingTransitions.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxRetries.WithLabelValues("place_bid")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.NotificationsDelivered.WithLabelValues("stored")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncBidPlaced()
		m.IncBidRejected("x")
		m.IncTransition("sold")
		m.IncTxRetry("x")
		m.AddNotifications("failed", 1)
	})
}

func TestNew_RegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) }, "registering twice on one registry must fail")
}
