// Package events publishes payment lifecycle events to a RabbitMQ topic exchange.
package events

import (
	"context"       // Publish deadline
	"encoding/json" // Event encoding
	"fmt"           // Error wrapping
	"time"          // Event timestamps

	amqp "github.com/rabbitmq/amqp091-go" // RabbitMQ client
)

// Routing keys
const (
	KeyPaymentPaid = "payment.paid"
)

// PaymentPaid is emitted once per reconciled checkout session
type PaymentPaid struct {
	Event      string `json:"event"`       // "payment.paid"
	Version    int    `json:"version"`     // 1
	OccurredAt string `json:"occurred_at"` // RFC3339
	Data       struct {
		PaymentID     string  `json:"payment_id"`     // Stored payment
		SessionID     string  `json:"session_id"`     // Checkout session, unique per payment
		ApplicationID string  `json:"application_id"` // Approved application
		TuitionID     string  `json:"tuition_id"`     // Post paid for
		TutorEmail    string  `json:"tutor_email"`    // Payee
		StudentEmail  string  `json:"student_email"`  // Payer
		Amount        float64 `json:"amount"`         // Major units
		Currency      string  `json:"currency"`       // ISO currency
	} `json:"data"`
}

// NewPaymentPaid stamps an event envelope
func NewPaymentPaid(at time.Time) PaymentPaid {
	return PaymentPaid{Event: KeyPaymentPaid, Version: 1, OccurredAt: at.UTC().Format(time.RFC3339)}
}

// Publisher sends JSON events under a routing key
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
	Close() error
}

// Noop discards events; used when no broker is configured
type Noop struct{}

// PublishJSON drops v
func (Noop) PublishJSON(context.Context, string, any) error { return nil }

// Close is a no-op
func (Noop) Close() error { return nil }

// AMQPPublisher publishes to a durable topic exchange
type AMQPPublisher struct {
	conn     *amqp.Connection // Broker connection
	ch       *amqp.Channel    // Channel used for every publish
	exchange string           // Topic exchange name
}

// NewAMQPPublisher dials url and declares exchange
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url) // Connect to RabbitMQ
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	// Durable, not auto-deleted, not internal, wait for the broker
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// PublishJSON marshals v and publishes it as a persistent message
func (p *AMQPPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v) // Marshal event to JSON
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // Survive broker restarts
		Timestamp:    time.Now(),
		Body:         b,
	})
}

// Close releases the channel and connection
func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
