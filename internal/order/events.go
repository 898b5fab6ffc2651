package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event types published at the notification boundary. The notification
// service consumes these; delivery of emails etc. is not handled here.
const (
	EventCreated       = "order.created"
	EventStatusChanged = "order.status_changed"
)

type Event struct {
	Type        string    `json:"type"`
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Status      Status    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev Event) error
}

// KafkaPublisher writes order events to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%s-%d", ev.Type, ev.OrderID)),
		Value: value,
	})
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }
