package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitPublisher publishes events to a topic exchange, routed by event type
type RabbitPublisher struct {
	Conn     *amqp.Connection
	Channel  *amqp.Channel
	Exchange string

	mu sync.Mutex
}

// NewRabbitPublisher dials the broker and declares a durable topic exchange
func NewRabbitPublisher(amqpURL, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &RabbitPublisher{Conn: conn, Channel: ch, Exchange: exchange}, nil
}

// Publish sends e as a persistent JSON message
func (r *RabbitPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := encode(e)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Channel.PublishWithContext(ctx, r.Exchange, e.Type, false, false, msg)
}

func encode(e Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode event %s: %w", e.Type, err)
	}
	ts := e.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		Type:         e.Type,
		MessageId:    uuid.NewString(),
		Timestamp:    ts,
		DeliveryMode: amqp.Persistent,
	}, nil
}

func (r *RabbitPublisher) Close() {
	r.Channel.Close()
	r.Conn.Close()
}
