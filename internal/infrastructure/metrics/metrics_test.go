package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEscrowMetrics(t *testing.T) {
	m := NewEscrowMetrics(prometheus.NewRegistry())

	m.RecordTransition("IN_TRANSIT", "DELIVERED")
	m.RecordTransition("IN_TRANSIT", "DELIVERED")
	m.RecordRelease("tranche-1", "USD", 525)
	m.RecordRelease("tranche-2", "USD", 525)
	m.RecordReleaseFailure("tranche-1", true)
	m.RecordReleaseReplay("tranche-1")
	m.ObserveSettlementCall("tranche-1", true, 20*time.Millisecond)
	m.RecordDispute("raised")
	m.RecordNotificationDropped("release.confirmed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StatusTransitionsTotal.WithLabelValues("IN_TRANSIT", "DELIVERED")))
	assert.Equal(t, 1050.0, testutil.ToFloat64(m.ReleasedAmountTotal.WithLabelValues("USD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReleaseFailuresTotal.WithLabelValues("tranche-1", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReleaseIdempotentReplay.WithLabelValues("tranche-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DisputesTotal.WithLabelValues("raised")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsDroppedTotal.WithLabelValues("release.confirmed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SettlementCallDuration))
}

func TestEscrowMetrics_NilReceiver(t *testing.T) {
	var m *EscrowMetrics
	assert.NotPanics(t, func() {
		m.RecordTransition("a", "b")
		m.RecordApproval("buyer", "approve")
		m.RecordRelease("tranche-1", "USD", 1)
		m.RecordReleaseFailure("tranche-1", false)
		m.RecordReleaseReplay("tranche-1")
		m.ObserveSettlementCall("tranche-1", false, time.Second)
		m.RecordDispute("raised")
		m.RecordNotificationDropped("x")
		m.RecordNotificationFailed("x")
	})
}
