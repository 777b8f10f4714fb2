package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EscrowMetrics содержит метрики escrow-движка. All methods are safe on a nil receiver.
type EscrowMetrics struct {
	// Переходы статусов
	StatusTransitionsTotal *prometheus.CounterVec

	// Голоса банков
	ApprovalsTotal *prometheus.CounterVec

	// Выплаты траншей
	ReleasesTotal           *prometheus.CounterVec
	ReleasedAmountTotal     *prometheus.CounterVec
	ReleaseFailuresTotal    *prometheus.CounterVec
	SettlementCallDuration  *prometheus.HistogramVec
	ReleaseIdempotentReplay *prometheus.CounterVec

	// Диспуты
	DisputesTotal *prometheus.CounterVec

	// Уведомления
	NotificationsDroppedTotal *prometheus.CounterVec
	NotificationsFailedTotal  *prometheus.CounterVec
}

// NewEscrowMetrics registers the metrics on reg. Pass prometheus.DefaultRegisterer in production.
func NewEscrowMetrics(reg prometheus.Registerer) *EscrowMetrics {
	factory := promauto.With(reg)
	return &EscrowMetrics{
		StatusTransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_status_transitions_total",
				Help: "Количество переходов статусов заказов",
			},
			[]string{"from", "to"},
		),

		ApprovalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_bank_approvals_total",
				Help: "Количество голосов банков по заказам",
			},
			[]string{"role", "action"},
		),

		ReleasesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_releases_total",
				Help: "Количество подтвержденных выплат траншей",
			},
			[]string{"tranche"},
		),

		ReleasedAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_released_amount_total",
				Help: "Сумма выплаченных траншей",
			},
			[]string{"currency"},
		),

		ReleaseFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_release_failures_total",
				Help: "Количество неуспешных выплат",
			},
			[]string{"tranche", "retryable"},
		),

		SettlementCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "escrow_settlement_call_duration_seconds",
				Help:    "Время вызова settlement backend в секундах",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms, 20ms, 40ms...
			},
			[]string{"tranche", "outcome"},
		),

		ReleaseIdempotentReplay: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_release_replays_total",
				Help: "Повторные вызовы milestone для уже выплаченного транша",
			},
			[]string{"tranche"},
		),

		DisputesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_disputes_total",
				Help: "Открытые и разрешенные диспуты",
			},
			[]string{"event"},
		),

		NotificationsDroppedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_notifications_dropped_total",
				Help: "Уведомления, отброшенные из-за переполнения очереди",
			},
			[]string{"type"},
		),

		NotificationsFailedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_notifications_failed_total",
				Help: "Уведомления, которые не удалось доставить",
			},
			[]string{"type"},
		),
	}
}

// RecordTransition записывает переход статуса
func (m *EscrowMetrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *EscrowMetrics) RecordApproval(role, action string) {
	if m == nil {
		return
	}
	m.ApprovalsTotal.WithLabelValues(role, action).Inc()
}

// RecordRelease записывает подтвержденную выплату
func (m *EscrowMetrics) RecordRelease(tranche, currency string, amount float64) {
	if m == nil {
		return
	}
	m.ReleasesTotal.WithLabelValues(tranche).Inc()
	m.ReleasedAmountTotal.WithLabelValues(currency).Add(amount)
}

func (m *EscrowMetrics) RecordReleaseFailure(tranche string, retryable bool) {
	if m == nil {
		return
	}
	m.ReleaseFailuresTotal.WithLabelValues(tranche, strconv.FormatBool(retryable)).Inc()
}

func (m *EscrowMetrics) RecordReleaseReplay(tranche string) {
	if m == nil {
		return
	}
	m.ReleaseIdempotentReplay.WithLabelValues(tranche).Inc()
}

func (m *EscrowMetrics) ObserveSettlementCall(tranche string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	m.SettlementCallDuration.WithLabelValues(tranche, outcome).Observe(d.Seconds())
}

func (m *EscrowMetrics) RecordDispute(event string) {
	if m == nil {
		return
	}
	m.DisputesTotal.WithLabelValues(event).Inc()
}

func (m *EscrowMetrics) RecordNotificationDropped(notificationType string) {
	if m == nil {
		return
	}
	m.NotificationsDroppedTotal.WithLabelValues(notificationType).Inc()
}

func (m *EscrowMetrics) RecordNotificationFailed(notificationType string) {
	if m == nil {
		return
	}
	m.NotificationsFailedTotal.WithLabelValues(notificationType).Inc()
}
