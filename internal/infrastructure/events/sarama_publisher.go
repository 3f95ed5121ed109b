package events

import (
	"context"
	"encoding/json"
	"fmt"

	"homequote/internal/domain/entities"
	"homequote/internal/usecase/interfaces"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

const headerEventType = "event-type"

// SaramaPublisher writes lifecycle events to Kafka through a synchronous producer.
// Messages are keyed by service request id so every event of a request lands on
// the same partition in commit order.
type SaramaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

var _ interfaces.IEventPublisher = (*SaramaPublisher)(nil)

func NewSaramaPublisher(brokers []string, topic string) (*SaramaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("events: sarama producer: %w", err)
	}
	log.Infof("[events][sarama] producer ready brokers=%v topic=%s", brokers, topic)
	return NewSaramaPublisherWithProducer(producer, topic), nil
}

func NewSaramaPublisherWithProducer(producer sarama.SyncProducer, topic string) *SaramaPublisher {
	return &SaramaPublisher{producer: producer, topic: topic}
}

func (p *SaramaPublisher) Publish(_ context.Context, event entities.LifecycleEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.ServiceRequestID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte(headerEventType), Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("events: send %s: %w", event.Type, err)
	}
	log.Debugf("[events][sarama] sent type=%s service_request_id=%s partition=%d offset=%d",
		event.Type, event.ServiceRequestID, partition, offset)
	return nil
}

func (p *SaramaPublisher) Close() error {
	return p.producer.Close()
}
