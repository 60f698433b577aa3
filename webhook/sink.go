package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	credentials "github.com/goliatone/go-credentials"
)

// Sink is a delivery target.
type Sink interface {
	// Name identifies the target in envelopes and logs.
	Name() string
	Accepts(event credentials.EventName) bool
	// Timeout bounds a single attempt.
	Timeout() time.Duration
	Deliver(ctx context.Context, env Envelope) (int, error)
}

// HTTPSink posts envelopes to a webhook subscription.
type HTTPSink struct {
	sub       credentials.WebhookSubscription
	client    *http.Client
	userAgent string
}

// NewHTTPSink creates a sink for sub. A nil client uses http.DefaultClient.
func NewHTTPSink(sub credentials.WebhookSubscription, client *http.Client, userAgent string) *HTTPSink {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = credentials.DefaultWebhookUserAgent
	}
	return &HTTPSink{sub: sub, client: client, userAgent: userAgent}
}

func (s *HTTPSink) Name() string {
	return s.sub.Identifier()
}

func (s *HTTPSink) Accepts(event credentials.EventName) bool {
	return s.sub.Accepts(event)
}

func (s *HTTPSink) Timeout() time.Duration {
	return s.sub.EffectiveTimeout()
}

// Headers returns the default headers merged with the subscription
// headers. Subscription values win.
func (s *HTTPSink) Headers() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("User-Agent", s.userAgent)
	for k, v := range s.sub.Headers {
		h.Set(k, v)
	}
	return h
}

func (s *HTTPSink) Deliver(ctx context.Context, env Envelope) (int, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return 0, fmt.Errorf("encode envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.sub.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header = s.Headers()

	res, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return res.StatusCode, &StatusError{StatusCode: res.StatusCode}
	}
	return res.StatusCode, nil
}
