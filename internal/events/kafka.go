package events

import (
	"context"
	"encoding/json"
	"fmt"

	kafkaGo "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) Publisher {
	return newKafkaPublisher(&kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkaGo.Hash{},
		RequiredAcks:           kafkaGo.RequireAll,
		AllowAutoTopicCreation: true,
	})
}

func newKafkaPublisher(writer messageWriter) *kafkaPublisher {
	return &kafkaPublisher{writer: writer}
}

// Publish keys messages by order so all events of one order land on one partition.
func (k *kafkaPublisher) Publish(ctx context.Context, key string, event *Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafkaGo.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	return nil
}

func (k *kafkaPublisher) Close() error {
	return k.writer.Close()
}
