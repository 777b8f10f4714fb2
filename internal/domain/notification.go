package domain

import (
	"context"
	"time"
)

type NotificationType string

const (
	NotifyPaymentConfirmed NotificationType = "order.payment_confirmed"
	NotifyApprovalRecorded NotificationType = "approval.recorded"
	NotifyOrderInTransit   NotificationType = "order.in_transit"
	NotifyOrderCancelled   NotificationType = "order.cancelled"
	NotifyReleaseConfirmed NotificationType = "release.confirmed"
	NotifyOrderDelivered   NotificationType = "order.delivered"
	NotifyDisputeRaised    NotificationType = "dispute.raised"
	NotifyDisputeResolved  NotificationType = "dispute.resolved"
)

type Notification struct {
	OrderID    string            `json:"order_id"`
	Type       NotificationType  `json:"type"`
	Payload    map[string]string `json:"payload,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NotificationSink delivers one notification. Failures are logged by the
// caller and never affect order state.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification) error
}

// NotificationQueue accepts notifications without blocking. It returns false
// when the notification was dropped.
type NotificationQueue interface {
	Enqueue(n Notification) bool
}
