package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange and queue/routing key constants.
const (
	ExchangeName = "blackout"

	RoutingScheduleChanged = "alert.schedule_changed"
	RoutingShutdown        = "alert.upcoming_shutdown"
	RoutingRestoration     = "alert.upcoming_restoration"
	RoutingNewDates        = "alert.new_dates"

	QueueAlerts = "blackout.alerts"
)

// ── Message types ────────────────────────────────────────────────────

// ScheduleChangedMsg is published when a subscription's published
// schedule content changed between polls.
type ScheduleChangedMsg struct {
	Region     string    `json:"region"`
	RegionName string    `json:"region_name"`
	Queue      string    `json:"queue"`
	When       time.Time `json:"when"`
}

// UpcomingShutdownMsg warns that an outage window starts soon.
type UpcomingShutdownMsg struct {
	Region     string    `json:"region"`
	RegionName string    `json:"region_name"`
	Queue      string    `json:"queue"`
	Minutes    int       `json:"minutes"`
	When       time.Time `json:"when"`
}

// UpcomingRestorationMsg warns that the current outage ends soon.
type UpcomingRestorationMsg struct {
	Region     string    `json:"region"`
	RegionName string    `json:"region_name"`
	Queue      string    `json:"queue"`
	Minutes    int       `json:"minutes"`
	When       time.Time `json:"when"`
}

// NewDatesMsg announces newly published schedule dates.
type NewDatesMsg struct {
	Region     string    `json:"region"`
	RegionName string    `json:"region_name"`
	Queue      string    `json:"queue"`
	Dates      []string  `json:"dates"`
	When       time.Time `json:"when"`
}

// ── Topology setup ───────────────────────────────────────────────────

// SetupTopology declares the exchange, the alerts queue, and its binding.
// Safe to call multiple times (all declarations are idempotent).
func SetupTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(QueueAlerts, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", QueueAlerts, err)
	}
	// One queue receives every alert kind; consumers dispatch on routing key.
	if err := ch.QueueBind(QueueAlerts, "alert.*", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", QueueAlerts, err)
	}
	return nil
}

// ── Publisher ────────────────────────────────────────────────────────

// Publisher publishes messages to the RabbitMQ exchange.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher connects to RabbitMQ, sets up topology, and returns a Publisher.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := dialWithRetry(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := SetupTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

// Publish serializes msg to JSON and publishes it with the given routing key.
func (p *Publisher) Publish(ctx context.Context, routingKey string, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return p.ch.PublishWithContext(ctx, ExchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         data,
	})
}

// Close closes the channel and connection.
func (p *Publisher) Close() {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// ── Consumer ─────────────────────────────────────────────────────────

// Consumer consumes messages from RabbitMQ queues.
type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewConsumer connects to RabbitMQ, sets up topology, and returns a Consumer.
func NewConsumer(url string) (*Consumer, error) {
	conn, err := dialWithRetry(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := SetupTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	// Process one message at a time per consumer.
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &Consumer{conn: conn, ch: ch}, nil
}

// Consume starts consuming from the given queue and returns a delivery channel.
func (c *Consumer) Consume(queue string) (<-chan amqp.Delivery, error) {
	return c.ch.Consume(queue, "", false, false, false, false, nil)
}

// Close closes the channel and connection.
func (c *Consumer) Close() {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}

// ── Helpers ──────────────────────────────────────────────────────────

// dialWithRetry attempts to connect to RabbitMQ with exponential backoff.
func dialWithRetry(url string) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		wait := time.Duration(1<<uint(i)) * time.Second
		log.Printf("[mq] connection attempt %d failed: %v, retrying in %s", i+1, err, wait)
		time.Sleep(wait)
	}
	return nil, fmt.Errorf("connect to rabbitmq after 5 attempts: %w", err)
}
