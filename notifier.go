package credentials

import (
	"context"
	"net/url"
	"sync"

	"github.com/goliatone/go-print"
)

// NotificationKind tells the notifier which message to send.
type NotificationKind string

const (
	NotifyVerification  NotificationKind = "verification"
	NotifyPasswordReset NotificationKind = "password_reset"
)

// Notification carries a freshly minted token to the notifier.
type Notification struct {
	Kind    NotificationKind
	User    UserSnapshot
	Token   string
	BaseURL string
}

// Link builds the URL the recipient should follow, e.g.
// https://app.example.com/verify-email?token=...
func (n Notification) Link() string {
	path := "/verify-email"
	if n.Kind == NotifyPasswordReset {
		path = "/reset-password"
	}

	u, err := url.Parse(n.BaseURL)
	if err != nil || n.BaseURL == "" {
		return path + "?token=" + url.QueryEscape(n.Token)
	}
	u = u.JoinPath(path)
	q := u.Query()
	q.Set("token", n.Token)
	u.RawQuery = q.Encode()
	return u.String()
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	if f == nil {
		return
	}
	f(ctx, n)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notification) {}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// LogNotifier writes notifications to a logger. Useful in development where
// no mail transport exists. Tokens are logged, so never use it in
// production.
type LogNotifier struct {
	logger Logger
}

func NewLogNotifier(logger Logger) *LogNotifier {
	return &LogNotifier{logger: normalizeLogger(logger)}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	l.logger.Info("notification %s for %s: %s\n%s",
		n.Kind, n.User.Email, n.Link(), print.MaybePrettyJSON(n.User))
}

// MemoryNotifier records notifications, for tests and local tooling.
type MemoryNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (m *MemoryNotifier) Notify(_ context.Context, n Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
}

// Sent returns a copy of all recorded notifications.
func (m *MemoryNotifier) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, len(m.sent))
	copy(out, m.sent)
	return out
}

// Last returns the most recent notification of kind.
func (m *MemoryNotifier) Last(kind NotificationKind) (Notification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Kind == kind {
			return m.sent[i], true
		}
	}
	return Notification{}, false
}
