// Package redissink publishes lifecycle envelopes on Redis pub/sub.
package redissink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	credentials "github.com/goliatone/go-credentials"
	"github.com/goliatone/go-credentials/webhook"
	"github.com/redis/go-redis/v9"
)

// Publisher is the subset of redis.UniversalClient the sink needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Sink publishes each envelope on channel <prefix><event name>.
type Sink struct {
	client  Publisher
	prefix  string
	events  map[credentials.EventName]bool
	timeout time.Duration
}

var _ webhook.Sink = (*Sink)(nil)

// New creates a sink. An empty prefix defaults to "credentials:".
func New(client Publisher, prefix string, events ...credentials.EventName) *Sink {
	if prefix == "" {
		prefix = "credentials:"
	}
	s := &Sink{
		client:  client,
		prefix:  prefix,
		timeout: credentials.DefaultWebhookTimeout,
	}
	if len(events) > 0 {
		s.events = make(map[credentials.EventName]bool, len(events))
		for _, e := range events {
			s.events[e] = true
		}
	}
	return s
}

// NewClient builds a client from a redis:// URL.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (s *Sink) Name() string {
	return "redis://" + s.prefix
}

func (s *Sink) Accepts(event credentials.EventName) bool {
	if s.events == nil {
		return true
	}
	return s.events[event]
}

func (s *Sink) Timeout() time.Duration {
	return s.timeout
}

// Channel returns the pub/sub channel for event.
func (s *Sink) Channel(event credentials.EventName) string {
	return s.prefix + string(event)
}

// Deliver publishes the envelope. The returned count is the number of
// subscribers that received it.
func (s *Sink) Deliver(ctx context.Context, env webhook.Envelope) (int, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return 0, fmt.Errorf("encode envelope: %w", err)
	}

	n, err := s.client.Publish(ctx, s.Channel(env.Event), body).Result()
	if err != nil {
		return 0, fmt.Errorf("redis publish: %w", err)
	}
	return int(n), nil
}
