package notifier

import "time"

// CallbackPayload is the JSON body posted to the webhook.
type CallbackPayload struct {
	OrderID    string            `json:"order_id"`
	Event      string            `json:"event"`
	Payload    map[string]string `json:"payload,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
