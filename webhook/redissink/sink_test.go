package redissink_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	credentials "github.com/goliatone/go-credentials"
	"github.com/goliatone/go-credentials/webhook"
	"github.com/goliatone/go-credentials/webhook/redissink"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	channel string
	payload []byte
	err     error
}

func (f *fakeClient) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.channel = channel
	f.payload, _ = message.([]byte)
	return redis.NewIntResult(2, nil)
}

func TestSink_Deliver(t *testing.T) {
	client := &fakeClient{}
	sink := redissink.New(client, "")

	n, err := sink.Deliver(context.Background(), webhook.Envelope{
		Event:     credentials.EventUserVerified,
		Data:      credentials.UserSnapshot{Email: "a@x.com", IsVerified: true},
		Timestamp: time.Now(),
		WebhookID: sink.Name(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "credentials:user.verified", client.channel)

	var env webhook.Envelope
	require.NoError(t, json.Unmarshal(client.payload, &env))
	assert.True(t, env.Data.IsVerified)
	assert.Equal(t, "redis://credentials:", env.WebhookID)
}

func TestSink_Errors(t *testing.T) {
	sink := redissink.New(&fakeClient{err: errors.New("connection reset")}, "auth:", credentials.EventUserLogin)

	assert.True(t, sink.Accepts(credentials.EventUserLogin))
	assert.False(t, sink.Accepts(credentials.EventUserRegistered))
	assert.Equal(t, "auth:user.login", sink.Channel(credentials.EventUserLogin))

	_, err := sink.Deliver(context.Background(), webhook.Envelope{Event: credentials.EventUserLogin})
	assert.ErrorContains(t, err, "connection reset")
}

func TestNewClient(t *testing.T) {
	c, err := redissink.NewClient("redis://localhost:6379/2")
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, 2, c.Options().DB)

	_, err = redissink.NewClient("http://nope")
	assert.Error(t, err)
}
