package publisher

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

// SaramaPublisher is the alternative publisher backed by a sarama SyncProducer.
type SaramaPublisher struct {
	producer sarama.SyncProducer
}

func NewSaramaPublisher(brokers []string) (*SaramaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create sarama producer: %w", err)
	}
	return NewSaramaPublisherWithProducer(producer), nil
}

func NewSaramaPublisherWithProducer(producer sarama.SyncProducer) *SaramaPublisher {
	return &SaramaPublisher{producer: producer}
}

func (p *SaramaPublisher) Publish(ctx context.Context, topic string, msgs ...domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := make([]*sarama.ProducerMessage, 0, len(msgs))
	for _, m := range msgs {
		pm := &sarama.ProducerMessage{
			Topic: topic,
			Value: sarama.ByteEncoder(m.Value),
		}
		if len(m.Key) > 0 {
			pm.Key = sarama.ByteEncoder(m.Key)
		}
		batch = append(batch, pm)
	}
	if len(batch) == 1 {
		_, _, err := p.producer.SendMessage(batch[0])
		return err
	}
	return p.producer.SendMessages(batch)
}

func (p *SaramaPublisher) Close() error {
	return p.producer.Close()
}
