package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

// EscrowEvent is the wire form of an engine notification on the events topic.
type EscrowEvent struct {
	OrderID    string            `json:"order_id"`
	Type       string            `json:"type"`
	Payload    map[string]string `json:"payload,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// EventSink publishes notifications to a topic through any PublisherPort.
type EventSink struct {
	publisher domain.PublisherPort
	topic     string
}

func NewEventSink(publisher domain.PublisherPort, topic string) *EventSink {
	return &EventSink{publisher: publisher, topic: topic}
}

func (s *EventSink) Notify(ctx context.Context, n domain.Notification) error {
	v, err := json.Marshal(EscrowEvent{
		OrderID:    n.OrderID,
		Type:       string(n.Type),
		Payload:    n.Payload,
		OccurredAt: n.OccurredAt,
	})
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, s.topic, domain.Message{Key: []byte(n.OrderID), Value: v})
}
