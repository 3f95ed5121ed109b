package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"homequote/internal/domain/entities"
	"homequote/internal/usecase/interfaces"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaGoPublisher is the segmentio/kafka-go flavour of the Kafka publisher,
// selected with KAFKA_CLIENT=kafka-go.
type KafkaGoPublisher struct {
	writer messageWriter
}

var _ interfaces.IEventPublisher = (*KafkaGoPublisher)(nil)

func NewKafkaGoPublisher(brokers []string, topic string) *KafkaGoPublisher {
	return &KafkaGoPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *KafkaGoPublisher) Publish(ctx context.Context, event entities.LifecycleEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ServiceRequestID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("events: write %s: %w", event.Type, err)
	}
	return nil
}

func (p *KafkaGoPublisher) Close() error {
	return p.writer.Close()
}
