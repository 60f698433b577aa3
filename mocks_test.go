package credentials_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	credentials "github.com/goliatone/go-credentials"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore implements credentials.CredentialStore
type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindByEmail(ctx context.Context, email string) (*credentials.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*credentials.User)
	return user, args.Error(1)
}

func (m *MockStore) FindByID(ctx context.Context, id uuid.UUID) (*credentials.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*credentials.User)
	return user, args.Error(1)
}

func (m *MockStore) Insert(ctx context.Context, user *credentials.User) (*credentials.User, error) {
	args := m.Called(ctx, user)
	out, _ := args.Get(0).(*credentials.User)
	return out, args.Error(1)
}

func (m *MockStore) UpdateByID(ctx context.Context, id uuid.UUID, update credentials.UserUpdate) (*credentials.User, error) {
	args := m.Called(ctx, id, update)
	out, _ := args.Get(0).(*credentials.User)
	return out, args.Error(1)
}

// MockHasher implements credentials.PasswordHasher
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(plaintext string) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Verify(plaintext, digest string) bool {
	args := m.Called(plaintext, digest)
	return args.Bool(0)
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []credentials.Event
}

func (c *capturingPublisher) Publish(_ context.Context, evt credentials.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
}

func (c *capturingPublisher) Events() []credentials.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]credentials.Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *capturingPublisher) Count(name credentials.EventName) int {
	n := 0
	for _, e := range c.Events() {
		if e.Name == name {
			n++
		}
	}
	return n
}

func quietLogger() credentials.Logger {
	return credentials.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
