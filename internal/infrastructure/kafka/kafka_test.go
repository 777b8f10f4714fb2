package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	topic string
	msgs  []domain.Message
	err   error
}

func (p *capturePublisher) Publish(_ context.Context, topic string, msgs ...domain.Message) error {
	p.topic = topic
	p.msgs = append(p.msgs, msgs...)
	return p.err
}

func TestEventSink_PublishesKeyedByOrder(t *testing.T) {
	pub := &capturePublisher{}
	sink := NewEventSink(pub, "escrow-events")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := sink.Notify(context.Background(), domain.Notification{
		OrderID:    "order-1",
		Type:       domain.NotifyOrderDelivered,
		Payload:    map[string]string{"released": "1050.00"},
		OccurredAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, "escrow-events", pub.topic)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "order-1", string(pub.msgs[0].Key))

	var ev EscrowEvent
	require.NoError(t, json.Unmarshal(pub.msgs[0].Value, &ev))
	assert.Equal(t, string(domain.NotifyOrderDelivered), ev.Type)
	assert.Equal(t, "1050.00", ev.Payload["released"])
	assert.True(t, at.Equal(ev.OccurredAt))

	pub.err = errors.New("broker down")
	assert.Error(t, sink.Notify(context.Background(), domain.Notification{OrderID: "order-2"}))
}

func TestSaramaPublisher_SendsEveryMessage(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != "one" {
			return fmt.Errorf("unexpected value %q", val)
		}
		return nil
	})
	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndSucceed()

	pub := NewSaramaPublisherWithProducer(producer)
	ctx := context.Background()
	require.NoError(t, pub.Publish(ctx, "escrow-events", domain.Message{Key: []byte("order-1"), Value: []byte("one")}))
	require.NoError(t, pub.Publish(ctx, "escrow-events",
		domain.Message{Key: []byte("order-1"), Value: []byte("two")},
		domain.Message{Value: []byte("three")},
	))
	require.NoError(t, pub.Close())
}

func TestSaramaPublisher_CanceledContext(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	pub := NewSaramaPublisherWithProducer(producer)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, pub.Publish(ctx, "escrow-events", domain.Message{Value: []byte("x")}), context.Canceled)
	require.NoError(t, pub.Close())
}

type fakeDocumentStore struct {
	known   map[string]domain.DocumentStatus
	created []*domain.Document
}

func (s *fakeDocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.created = append(s.created, doc)
	return nil
}

func (s *fakeDocumentStore) UpdateDocumentStatus(_ context.Context, id string, status domain.DocumentStatus) error {
	if _, ok := s.known[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	s.known[id] = status
	return nil
}

func verificationMessage(t *testing.T, ev DocumentVerificationEvent) domain.Message {
	t.Helper()
	v, err := json.Marshal(ev)
	require.NoError(t, err)
	return domain.Message{Key: []byte(ev.OrderID), Value: v}
}

func TestDocumentVerificationConsumer_Handle(t *testing.T) {
	store := &fakeDocumentStore{known: map[string]domain.DocumentStatus{"doc-1": domain.DocumentPending}}
	c := NewDocumentVerificationConsumer(nil, store, "document-verifications", "escrow")
	ctx := context.Background()

	require.NoError(t, c.Handle(ctx, verificationMessage(t, DocumentVerificationEvent{
		DocumentID: "doc-1", OrderID: "order-1", Status: string(domain.DocumentValidated),
	})))
	assert.Equal(t, domain.DocumentValidated, store.known["doc-1"])

	// Unknown document with enough detail is recorded.
	require.NoError(t, c.Handle(ctx, verificationMessage(t, DocumentVerificationEvent{
		DocumentID: "doc-2", OrderID: "order-1", Type: "bill_of_lading", Status: string(domain.DocumentValidated),
	})))
	require.Len(t, store.created, 1)
	assert.Equal(t, "bill_of_lading", store.created[0].Type)

	err := c.Handle(ctx, verificationMessage(t, DocumentVerificationEvent{DocumentID: "doc-3", Status: string(domain.DocumentRejected)}))
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	assert.Error(t, c.Handle(ctx, verificationMessage(t, DocumentVerificationEvent{DocumentID: "doc-1", Status: "bogus"})))
	assert.Error(t, c.Handle(ctx, verificationMessage(t, DocumentVerificationEvent{Status: string(domain.DocumentValidated)})))
	assert.Error(t, c.Handle(ctx, domain.Message{Value: []byte("{")}))
}

type chanSubscriber struct {
	ch chan domain.Message
}

func (s chanSubscriber) Subscribe(context.Context, string, string) (<-chan domain.Message, error) {
	return s.ch, nil
}

func TestDocumentVerificationConsumer_RunStopsWhenClosed(t *testing.T) {
	store := &fakeDocumentStore{known: map[string]domain.DocumentStatus{"doc-1": domain.DocumentPending}}
	ch := make(chan domain.Message, 2)
	ch <- verificationMessage(t, DocumentVerificationEvent{DocumentID: "doc-1", Status: string(domain.DocumentValidated)})
	ch <- domain.Message{Value: []byte("garbage")}
	close(ch)

	c := NewDocumentVerificationConsumer(chanSubscriber{ch: ch}, store, "document-verifications", "escrow")
	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, domain.DocumentValidated, store.known["doc-1"])
}
