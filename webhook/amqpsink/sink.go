// Package amqpsink publishes lifecycle envelopes to a RabbitMQ exchange.
package amqpsink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	credentials "github.com/goliatone/go-credentials"
	"github.com/goliatone/go-credentials/webhook"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher is the subset of *amqp.Channel the sink needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Sink publishes each envelope with routing key <prefix><event name>.
type Sink struct {
	ch       Publisher
	exchange string
	prefix   string
	name     string
	events   map[credentials.EventName]bool
	timeout  time.Duration
}

var _ webhook.Sink = (*Sink)(nil)

type Option func(*Sink)

// WithRoutingPrefix is prepended to the event name.
func WithRoutingPrefix(prefix string) Option {
	return func(s *Sink) {
		s.prefix = prefix
	}
}

// WithEvents restricts the sink to the given events. By default it takes
// every event.
func WithEvents(events ...credentials.EventName) Option {
	return func(s *Sink) {
		s.events = make(map[credentials.EventName]bool, len(events))
		for _, e := range events {
			s.events[e] = true
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Sink) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithName(name string) Option {
	return func(s *Sink) {
		if name != "" {
			s.name = name
		}
	}
}

func New(ch Publisher, exchange string, opts ...Option) *Sink {
	s := &Sink{
		ch:       ch,
		exchange: exchange,
		name:     "amqp://" + exchange,
		timeout:  credentials.DefaultWebhookTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) Name() string {
	return s.name
}

func (s *Sink) Accepts(event credentials.EventName) bool {
	if len(s.events) == 0 {
		return true
	}
	return s.events[event]
}

func (s *Sink) Timeout() time.Duration {
	return s.timeout
}

// RoutingKey returns the key used for event.
func (s *Sink) RoutingKey(event credentials.EventName) string {
	return s.prefix + string(event)
}

func (s *Sink) Deliver(ctx context.Context, env webhook.Envelope) (int, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return 0, fmt.Errorf("encode envelope: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    env.Timestamp,
		Type:         string(env.Event),
		Body:         body,
	}

	if err := s.ch.PublishWithContext(ctx, s.exchange, s.RoutingKey(env.Event), false, false, pub); err != nil {
		return 0, fmt.Errorf("amqp publish: %w", err)
	}
	return 0, nil
}

// Dial opens a connection and channel and declares a durable topic
// exchange. Close the connection when done.
func Dial(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp exchange declare: %w", err)
	}

	return conn, ch, nil
}
