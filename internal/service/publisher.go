// Package service holds the seat-booking business flows and the event
// publishing port they depend on.
package service

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/cinebook/movie-ticket-booking/internal/queue"
)

// EventPublisher is the port through which booking flows announce
// lifecycle events.  It is injected into the service so delivery is
// decoupled from any particular broker; tests pass a NopPublisher.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev q.BookingConfirmedEvent) error
	PublishBookingCancelled(ctx context.Context, ev q.BookingCancelledEvent) error
}

// NopPublisher discards all events.  Used in tests and when no broker
// is configured.
type NopPublisher struct{}

func (NopPublisher) PublishBookingConfirmed(context.Context, q.BookingConfirmedEvent) error {
	return nil
}
func (NopPublisher) PublishBookingCancelled(context.Context, q.BookingCancelledEvent) error {
	return nil
}

// AMQPPublisher delivers events to RabbitMQ.  The connection is opened
// lazily and reused across publishes; on any publish error the cached
// connection is dropped so the next publish redials.  Errors are logged
// and returned so callers can choose to ignore failures without
// interrupting the main request flow.
type AMQPPublisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher returns a publisher that will connect to the broker
// at the given URL on first use.
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url}
}

// PublishBookingConfirmed publishes a BookingConfirmedEvent to the
// booking.confirmed queue.  Messages are marked persistent.
func (p *AMQPPublisher) PublishBookingConfirmed(ctx context.Context, ev q.BookingConfirmedEvent) error {
	return p.publish(ctx, q.BookingConfirmedQueue, ev)
}

// PublishBookingCancelled publishes a BookingCancelledEvent to the
// booking.cancelled queue.
func (p *AMQPPublisher) PublishBookingCancelled(ctx context.Context, ev q.BookingCancelledEvent) error {
	return p.publish(ctx, q.BookingCancelledQueue, ev)
}

func (p *AMQPPublisher) publish(ctx context.Context, queueName string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		log.Printf("rabbitmq: connect failed: %v", err)
		return err
	}

	// Ensure the queue exists (idempotent). Durable so messages survive
	// broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		p.reset()
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		p.reset()
		return err
	}
	return nil
}

// channel returns the cached channel, dialing the broker when needed.
// Callers must hold p.mu.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	p.ch = ch
	return ch, nil
}

// reset drops the cached connection so the next publish redials.
// Callers must hold p.mu.
func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
