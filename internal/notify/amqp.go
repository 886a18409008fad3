// Package notify publishes domain events to a message broker for
// downstream consumers (billing, SMS, franchise dashboards).
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const eventsExchange = "fzclean.events"

// Publisher sends one domain event. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
	Close() error
}

// AMQP publishes events to a topic exchange, routing key = event type.
type AMQP struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQP(url string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil { return nil, fmt.Errorf("amqp dial: %w", err) }
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(eventsExchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}
	log.Printf("notify: connected to AMQP broker, exchange=%s", eventsExchange)
	return &AMQP{conn: conn, ch: ch}, nil
}

func (a *AMQP) Publish(ctx context.Context, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil { return fmt.Errorf("marshal event: %w", err) }
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return a.ch.PublishWithContext(pubCtx, eventsExchange, eventType, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

func (a *AMQP) Close() error {
	if a.ch != nil { _ = a.ch.Close() }
	return a.conn.Close()
}

// Noop satisfies Publisher when no broker is configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, eventType string, payload any) error { return nil }
func (Noop) Close() error                                                     { return nil }
