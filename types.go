package credentials

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// CredentialStore persists user records.
//
// FindByEmail and FindByID return ErrUserNotFound on a miss. Insert returns
// ErrDuplicateEmail when the normalized email is already taken. UpdateByID
// applies a partial update atomically and returns the updated record.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Insert(ctx context.Context, user *User) (*User, error)
	UpdateByID(ctx context.Context, id uuid.UUID, update UserUpdate) (*User, error)
}

// PasswordHasher turns plaintext passwords into one way digests.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// Rehasher is implemented by hashers that can tell when a stored digest
// should be upgraded. Authenticate rehashes on successful login.
type Rehasher interface {
	NeedsRehash(digest string) bool
}

// EventPublisher accepts lifecycle events. Implementations must return
// without waiting for any downstream delivery.
type EventPublisher interface {
	Publish(ctx context.Context, event Event)
}

// Notifier hands tokens to the notification channel. It has no error
// return: delivery problems are the notifier's own concern.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] CREDENTIALS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] CREDENTIALS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] CREDENTIALS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] CREDENTIALS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

// DefaultLogger returns the logger used when none is configured.
func DefaultLogger() Logger {
	return defLogger{}
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
