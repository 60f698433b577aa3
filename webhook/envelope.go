package webhook

import (
	"fmt"
	"time"

	credentials "github.com/goliatone/go-credentials"
)

// Envelope is the body delivered to every target.
type Envelope struct {
	Event     credentials.EventName    `json:"event"`
	Data      credentials.UserSnapshot `json:"data"`
	Timestamp time.Time                `json:"timestamp"`
	WebhookID string                   `json:"webhook_id"`
}

// NewEnvelope wraps event for the target identified by targetID. The
// timestamp is the delivery attempt time in UTC.
func NewEnvelope(event credentials.Event, targetID string, at time.Time) Envelope {
	return Envelope{
		Event:     event.Name,
		Data:      event.Data,
		Timestamp: at.UTC(),
		WebhookID: targetID,
	}
}

// Delivery is the settled outcome of one attempt.
type Delivery struct {
	Target     string
	Event      credentials.EventName
	StatusCode int
	Err        error
	StartedAt  time.Time
	Duration   time.Duration
}

// OK reports whether the attempt succeeded.
func (d Delivery) OK() bool {
	return d.Err == nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook responded with status %d", e.StatusCode)
}
