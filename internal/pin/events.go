package pin

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// PinEvent is published for every pin lifecycle change.
type PinEvent struct {
	PinID       string    `json:"pinId"`
	UserID      string    `json:"userId"`
	Action      string    `json:"action"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
	ActionSaved   = "saved"
	ActionUnsaved = "unsaved"
)

type EventProducer interface {
	SendPinEvent(ctx context.Context, event PinEvent) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaProducer(brokers []string, topic string) EventProducer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &kafkaProducer{
		writer: writer,
		topic:  topic,
	}
}

func (p *kafkaProducer) SendPinEvent(ctx context.Context, event PinEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return err
	}

	message := kafka.Message{
		Key:   []byte(event.PinID),
		Value: eventJSON,
		Time:  time.Now(),
	}

	return p.writer.WriteMessages(ctx, message)
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}
