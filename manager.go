package credentials

import (
	"context"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Manager drives the credential lifecycle. It holds no locks of its own;
// concurrent operations on the same user are arbitrated by the store.
type Manager struct {
	store     CredentialStore
	hasher    PasswordHasher
	tokens    *TokenService
	publisher EventPublisher
	notifier  Notifier
	logger    Logger
	now       func() time.Time

	baseURL       string
	phoneRegion   string
	revokeOnReset bool
	maskReset     bool
	hashedIDs     bool

	comparisonOnce sync.Once
	comparison     string
}

// ManagerOption customizes manager construction.
type ManagerOption func(*Manager)

// WithEventPublisher sets where lifecycle events go.
func WithEventPublisher(p EventPublisher) ManagerOption {
	return func(m *Manager) {
		m.publisher = normalizePublisher(p)
	}
}

// WithNotifier sets the notification collaborator.
func WithNotifier(n Notifier) ManagerOption {
	return func(m *Manager) {
		m.notifier = normalizeNotifier(n)
	}
}

func WithManagerLogger(l Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = normalizeLogger(l)
	}
}

// WithManagerClock injects a custom clock (useful for tests).
func WithManagerClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithBaseURL is handed to the notifier to build links.
func WithBaseURL(u string) ManagerOption {
	return func(m *Manager) {
		m.baseURL = strings.TrimRight(u, "/")
	}
}

// WithPhoneRegion sets the region used to parse national phone numbers.
func WithPhoneRegion(region string) ManagerOption {
	return func(m *Manager) {
		if region != "" {
			m.phoneRegion = strings.ToUpper(region)
		}
	}
}

// WithSessionRevocationOnReset bumps the credentials version on password
// reset so older session tokens stop authorizing.
func WithSessionRevocationOnReset(enabled bool) ManagerOption {
	return func(m *Manager) {
		m.revokeOnReset = enabled
	}
}

// WithMaskedResetLookup makes RequestPasswordReset return nil for unknown
// emails.
func WithMaskedResetLookup(enabled bool) ManagerOption {
	return func(m *Manager) {
		m.maskReset = enabled
	}
}

// WithHashedIDs derives user ids from the normalized email.
func WithHashedIDs(enabled bool) ManagerOption {
	return func(m *Manager) {
		m.hashedIDs = enabled
	}
}

// NewManager wires the lifecycle manager.
func NewManager(store CredentialStore, hasher PasswordHasher, tokens *TokenService, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, goerrors.New("credential store is required", goerrors.CategoryBadInput)
	}
	if hasher == nil {
		return nil, goerrors.New("password hasher is required", goerrors.CategoryBadInput)
	}
	if tokens == nil {
		return nil, goerrors.New("token service is required", goerrors.CategoryBadInput)
	}

	m := &Manager{
		store:       store,
		hasher:      hasher,
		tokens:      tokens,
		publisher:   noopPublisher{},
		notifier:    noopNotifier{},
		logger:      defLogger{},
		now:         time.Now,
		phoneRegion: "US",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// NewManagerFromConfig validates cfg and builds the hasher, token service
// and manager from it.
func NewManagerFromConfig(cfg Config, store CredentialStore, publisher EventPublisher, notifier Notifier, logger Logger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hasher, err := NewBcryptHasher(cfg.PasswordCost)
	if err != nil {
		return nil, err
	}

	tokens, err := NewTokenService([]byte(cfg.SigningKey),
		WithTokenIssuer(cfg.Issuer),
		WithTokenPolicy(cfg.Tokens.Policy()),
		WithTokenLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return NewManager(store, hasher, tokens,
		WithEventPublisher(publisher),
		WithNotifier(notifier),
		WithManagerLogger(logger),
		WithBaseURL(cfg.BaseURL),
		WithSessionRevocationOnReset(cfg.RevokeSessionsOnReset),
		WithMaskedResetLookup(cfg.MaskResetLookup),
		WithHashedIDs(cfg.HashedIDs),
	)
}

// Tokens exposes the token service.
func (m *Manager) Tokens() *TokenService {
	return m.tokens
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// verifyToken collapses every token failure into ErrInvalidToken.
func (m *Manager) verifyToken(token string, purpose Purpose) (*TokenClaims, uuid.UUID, error) {
	claims, err := m.tokens.Verify(token, purpose)
	if err != nil {
		m.logger.Debug("%s token rejected: %v", purpose, err)
		return nil, uuid.Nil, ErrInvalidToken
	}
	id, err := claims.SubjectID()
	if err != nil {
		m.logger.Debug("%s token rejected: %v", purpose, err)
		return nil, uuid.Nil, ErrInvalidToken
	}
	return claims, id, nil
}

func (m *Manager) issueSession(user *User) (string, time.Time, error) {
	token, exp, err := m.tokens.IssueSession(user.ID.String(), user.CredentialsVersion)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// comparisonHash is verified against when a user does not exist, so both
// failure paths of Authenticate cost one hash comparison.
func (m *Manager) comparisonHash() string {
	m.comparisonOnce.Do(func() {
		h, err := m.hasher.Hash(uuid.NewString())
		if err != nil {
			m.logger.Error("failed to build comparison hash: %v", err)
			return
		}
		m.comparison = h
	})
	return m.comparison
}

func (m *Manager) publish(ctx context.Context, name EventName, user *User) {
	m.publisher.Publish(ctx, NewEvent(name, user, m.now()))
}

func (m *Manager) notify(ctx context.Context, kind NotificationKind, user *User, token string) {
	m.notifier.Notify(ctx, Notification{
		Kind:    kind,
		User:    user.Snapshot(),
		Token:   token,
		BaseURL: m.baseURL,
	})
}
