package credentials

import (
	"context"
	"time"
)

// EventName identifies a lifecycle event.
type EventName string

const (
	EventUserRegistered EventName = "user.registered"
	EventUserLogin      EventName = "user.login"
	EventUserVerified   EventName = "user.verified"
)

// KnownEvents lists every event the manager publishes.
func KnownEvents() []EventName {
	return []EventName{EventUserRegistered, EventUserLogin, EventUserVerified}
}

// IsValid checks the name belongs to the closed set.
func (n EventName) IsValid() bool {
	switch n {
	case EventUserRegistered, EventUserLogin, EventUserVerified:
		return true
	default:
		return false
	}
}

// Event is a lifecycle fact handed to the publisher. Data never carries
// secrets.
type Event struct {
	Name      EventName
	Data      UserSnapshot
	CreatedAt time.Time
}

// NewEvent builds an event for user.
func NewEvent(name EventName, user *User, at time.Time) Event {
	return Event{
		Name:      name,
		Data:      user.Snapshot(),
		CreatedAt: at,
	}
}

// PublisherFunc adapts a function to the EventPublisher interface.
type PublisherFunc func(ctx context.Context, event Event)

// Publish implements EventPublisher.
func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	if f == nil {
		return
	}
	f(ctx, event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Event) {}

func normalizePublisher(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
