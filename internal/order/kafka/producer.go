package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"linkdesk/internal/models"
)

// Event names carried on the order and comment topics.
const (
	EventOrderCreated       = "order_created"
	EventOrderUpdated       = "order_updated"
	EventOrderStatusChanged = "order_status_changed"
	EventOrderCancelled     = "order_cancelled"
	EventOrderDeleted       = "order_deleted"
	EventCommentAdded       = "comment_added"
)

// Envelope wraps every published payload.
type Envelope struct {
	Event     string          `json:"event"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

type Producer struct {
	Orders   *kafka.Writer
	Comments *kafka.Writer
}

func NewProducer(brokers []string, ordersTopic, commentsTopic string) *Producer {
	return &Producer{
		Orders: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   ordersTopic,
		}),
		Comments: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   commentsTopic,
		}),
	}
}

// PublishOrderEvent streams an order lifecycle event to Kafka, keyed by
// order id so per-order ordering is preserved.
func (p *Producer) PublishOrderEvent(event string, order models.Order) error {
	value, err := envelope(event, order)
	if err != nil {
		return err
	}
	return p.Orders.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(order.ID),
			Value: value,
		},
	)
}

// PublishCommentAdded streams a new comment, keyed by the owning order id.
func (p *Producer) PublishCommentAdded(comment models.Comment) error {
	value, err := envelope(EventCommentAdded, comment)
	if err != nil {
		return err
	}
	return p.Comments.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(comment.OrderID),
			Value: value,
		},
	)
}

func (p *Producer) Close() error {
	if err := p.Orders.Close(); err != nil {
		return err
	}
	return p.Comments.Close()
}

func envelope(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	})
}
