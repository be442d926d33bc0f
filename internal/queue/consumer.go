package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer drains booking lifecycle events and appends a line per
// event to a log file.  It stands in for downstream consumers such as
// notification senders; the queue keeps the booking transaction free
// of slow side effects.
type Consumer struct {
	url     string
	logPath string
}

// NewConsumer returns a consumer connecting to the given AMQP URL and
// writing to logPath.
func NewConsumer(url, logPath string) *Consumer {
	return &Consumer{url: url, logPath: logPath}
}

// Run consumes both booking queues until ctx is cancelled, redialing
// with a backoff when the broker connection drops.
func (c *Consumer) Run(ctx context.Context) {
	for {
		if err := c.consume(ctx); err != nil {
			log.Printf("queue consumer: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel: %w", err)
	}
	defer ch.Close()

	deliveries := make(chan amqp.Delivery)
	for _, queue := range []string{BookingConfirmedQueue, BookingCancelledQueue} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare %s: %w", queue, err)
		}
		msgs, err := ch.Consume(queue, "", true, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("consume %s: %w", queue, err)
		}
		go func() {
			for m := range msgs {
				deliveries <- m
			}
		}()
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-closed:
			return fmt.Errorf("connection closed: %v", err)
		case m := <-deliveries:
			c.record(m)
		}
	}
}

func (c *Consumer) record(m amqp.Delivery) {
	line := formatEvent(m.RoutingKey, m.Body)
	if err := appendLine(c.logPath, line); err != nil {
		log.Printf("queue consumer: write log: %v", err)
	}
}

func formatEvent(queue string, body []byte) string {
	ts := time.Now().UTC().Format(time.RFC3339)
	switch queue {
	case BookingConfirmedQueue:
		var ev BookingConfirmedEvent
		if err := json.Unmarshal(body, &ev); err == nil {
			return fmt.Sprintf("%s CONFIRMED booking=%d user=%d movie=%q seats=%s total=%d method=%s",
				ts, ev.BookingID, ev.UserID, ev.MovieTitle, strings.Join(ev.SeatLabels, ","), ev.TotalPriceCents, ev.PaymentMethod)
		}
	case BookingCancelledQueue:
		var ev BookingCancelledEvent
		if err := json.Unmarshal(body, &ev); err == nil {
			return fmt.Sprintf("%s CANCELLED booking=%d user=%d seats=%s refund=%d",
				ts, ev.BookingID, ev.UserID, strings.Join(ev.SeatLabels, ","), ev.RefundCents)
		}
	}
	return fmt.Sprintf("%s %s %s", ts, strings.ToUpper(queue), body)
}

func appendLine(path, line string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, line)
	return err
}
