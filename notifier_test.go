package credentials_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	credentials "github.com/goliatone/go-credentials"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNotification_Link(t *testing.T) {
	tests := []struct {
		name string
		n    credentials.Notification
		want string
	}{
		{"verification", credentials.Notification{Kind: credentials.NotifyVerification, BaseURL: "https://app.example.com", Token: "abc"}, "https://app.example.com/verify-email?token=abc"},
		{"reset with path", credentials.Notification{Kind: credentials.NotifyPasswordReset, BaseURL: "https://example.com/app", Token: "abc"}, "https://example.com/app/reset-password?token=abc"},
		{"no base url", credentials.Notification{Kind: credentials.NotifyVerification, Token: "a b"}, "/verify-email?token=a+b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.n.Link())
		})
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := credentials.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	credentials.NewLogNotifier(logger).Notify(context.Background(), credentials.Notification{
		Kind:    credentials.NotifyPasswordReset,
		User:    credentials.UserSnapshot{ID: uuid.New(), Email: "a@x.com"},
		Token:   "tkn",
		BaseURL: "https://app.example.com",
	})

	out := buf.String()
	assert.Contains(t, out, "password_reset")
	assert.Contains(t, out, "a@x.com")
	assert.Contains(t, out, "reset-password?token=tkn")
}

func TestNotifierFunc(t *testing.T) {
	var got credentials.Notification
	n := credentials.NotifierFunc(func(_ context.Context, n credentials.Notification) { got = n })
	n.Notify(context.Background(), credentials.Notification{Token: "x"})
	assert.Equal(t, "x", got.Token)

	assert.NotPanics(t, func() {
		credentials.NotifierFunc(nil).Notify(context.Background(), credentials.Notification{})
	})
}

func TestPublisherFunc(t *testing.T) {
	var got credentials.Event
	p := credentials.PublisherFunc(func(_ context.Context, e credentials.Event) { got = e })

	at := time.Now()
	p.Publish(context.Background(), credentials.NewEvent(credentials.EventUserLogin, &credentials.User{Email: "a@x.com"}, at))
	assert.Equal(t, credentials.EventUserLogin, got.Name)
	assert.Equal(t, "a@x.com", got.Data.Email)
	assert.Equal(t, at, got.CreatedAt)

	assert.True(t, credentials.EventUserVerified.IsValid())
	assert.False(t, credentials.EventName("user.deleted").IsValid())
	assert.Len(t, credentials.KnownEvents(), 3)
}

func TestSlogLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := credentials.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	logger.Debug("hidden %d", 1)
	logger.Info("shown %d", 2)
	logger.With("component", "test").Warn("warned %s", "x")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "warned x")
	assert.Contains(t, out, "component=test")
}
