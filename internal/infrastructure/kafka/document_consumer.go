package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

// DocumentVerificationEvent is emitted by the verification service when it
// validates or rejects a document.
type DocumentVerificationEvent struct {
	DocumentID string `json:"document_id"`
	OrderID    string `json:"order_id"`
	Type       string `json:"type"`
	UploadedBy string `json:"uploaded_by"`
	ContentID  string `json:"content_id"`
	Status     string `json:"status"`
}

// DocumentStore is the part of the order store the consumer writes to.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc *domain.Document) error
	UpdateDocumentStatus(ctx context.Context, documentID string, status domain.DocumentStatus) error
}

// DocumentVerificationConsumer applies verification results to document rows.
// The escrow engine only ever reads them as release preconditions.
type DocumentVerificationConsumer struct {
	subscriber domain.SubscriberPort
	store      DocumentStore
	topic      string
	groupID    string
}

func NewDocumentVerificationConsumer(subscriber domain.SubscriberPort, store DocumentStore, topic, groupID string) *DocumentVerificationConsumer {
	return &DocumentVerificationConsumer{subscriber: subscriber, store: store, topic: topic, groupID: groupID}
}

// Run consumes until ctx is done or the subscription closes.
func (c *DocumentVerificationConsumer) Run(ctx context.Context) error {
	msgs, err := c.subscriber.Subscribe(ctx, c.topic, c.groupID)
	if err != nil {
		return err
	}
	slog.Info("document verification consumer started", "topic", c.topic, "group_id", c.groupID)
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := c.Handle(ctx, m); err != nil {
				slog.Error("failed to apply document verification", "key", string(m.Key), "error", err)
			}
		}
	}
}

func (c *DocumentVerificationConsumer) Handle(ctx context.Context, m domain.Message) error {
	var ev DocumentVerificationEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		return err
	}
	status, err := domain.ParseDocumentStatus(ev.Status)
	if err != nil {
		return err
	}
	if ev.DocumentID == "" {
		return errors.New("document id is missing")
	}

	err = c.store.UpdateDocumentStatus(ctx, ev.DocumentID, status)
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		return err
	}
	// The verification result may arrive before the upload record.
	if ev.OrderID == "" || ev.Type == "" {
		return err
	}
	return c.store.SaveDocument(ctx, &domain.Document{
		ID:         ev.DocumentID,
		OrderID:    ev.OrderID,
		UploadedBy: ev.UploadedBy,
		ContentID:  ev.ContentID,
		Type:       ev.Type,
		Status:     status,
	})
}
