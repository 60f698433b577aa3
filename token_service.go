package credentials

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenClaims is the payload of every token we mint.
type TokenClaims struct {
	jwt.RegisteredClaims
	Purpose Purpose `json:"purpose"`
	// Version is the credentials version at issue time. Only session
	// tokens carry it.
	Version int `json:"ver,omitempty"`
}

// SubjectID parses the subject claim as a user id.
func (c *TokenClaims) SubjectID() (uuid.UUID, error) {
	if c == nil {
		return uuid.Nil, ErrInvalidSignature
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject: %w", ErrInvalidSignature, err)
	}
	return id, nil
}

// TokenService mints and verifies purpose-scoped HS256 tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	policy     TokenPolicy
	now        func() time.Time
	logger     Logger
}

// TokenServiceOption customizes the token service.
type TokenServiceOption func(*TokenService)

// WithTokenIssuer sets the iss claim and requires it on verification.
func WithTokenIssuer(issuer string) TokenServiceOption {
	return func(ts *TokenService) {
		ts.issuer = issuer
	}
}

// WithTokenPolicy overrides the per purpose lifetimes.
func WithTokenPolicy(policy TokenPolicy) TokenServiceOption {
	return func(ts *TokenService) {
		ts.policy = policy.withDefaults()
	}
}

// WithTokenClock injects a custom clock (useful for tests).
func WithTokenClock(clock func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		if clock != nil {
			ts.now = clock
		}
	}
}

// WithTokenLogger sets the logger.
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		ts.logger = normalizeLogger(logger)
	}
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, opts ...TokenServiceOption) (*TokenService, error) {
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("%w: signing key is required", ErrInvalidConfig)
	}

	key := make([]byte, len(signingKey))
	copy(key, signingKey)

	ts := &TokenService{
		signingKey: key,
		policy:     DefaultTokenPolicy(),
		now:        time.Now,
		logger:     defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}
	return ts, nil
}

// Policy returns the configured lifetimes.
func (ts *TokenService) Policy() TokenPolicy {
	return ts.policy
}

// IssueFor mints a token using the policy lifetime for purpose.
func (ts *TokenService) IssueFor(subjectID string, purpose Purpose) (string, time.Time, error) {
	ttl, err := ts.policy.TTL(purpose)
	if err != nil {
		return "", time.Time{}, err
	}
	return ts.Issue(subjectID, purpose, ttl)
}

// Issue mints a token for subjectID valid for ttl.
func (ts *TokenService) Issue(subjectID string, purpose Purpose, ttl time.Duration) (string, time.Time, error) {
	return ts.issue(subjectID, purpose, ttl, 0)
}

// IssueSession mints a session token bound to a credentials version.
func (ts *TokenService) IssueSession(subjectID string, version int) (string, time.Time, error) {
	return ts.issue(subjectID, PurposeSession, ts.policy.SessionTTL, version)
}

func (ts *TokenService) issue(subjectID string, purpose Purpose, ttl time.Duration, version int) (string, time.Time, error) {
	if subjectID == "" {
		return "", time.Time{}, goerrors.New("token subject is required", goerrors.CategoryBadInput)
	}
	if !purpose.IsValid() {
		return "", time.Time{}, goerrors.New(fmt.Sprintf("unknown token purpose %q", purpose), goerrors.CategoryBadInput)
	}
	if ttl <= 0 {
		return "", time.Time{}, goerrors.New("token TTL must be positive", goerrors.CategoryBadInput)
	}

	now := ts.now()
	expiresAt := now.Add(ttl)

	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Purpose: purpose,
	}
	if purpose == PurposeSession {
		claims.Version = version
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", time.Time{}, internal(err, "failed to sign token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks, in order, the signature and structure, the expiry and the
// purpose of token. Errors are ErrInvalidSignature, ErrTokenExpired or
// ErrWrongPurpose.
func (ts *TokenService) Verify(token string, expected Purpose) (*TokenClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Debug("token service rejected signing method %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidSignature
	}

	if claims.Purpose != expected {
		return nil, ErrWrongPurpose
	}

	return claims, nil
}
