package credentials

import (
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Purpose scopes a token to a single use.
type Purpose string

const (
	PurposeSession           Purpose = "session"
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
)

// IsValid checks the purpose belongs to the closed set.
func (p Purpose) IsValid() bool {
	switch p {
	case PurposeSession, PurposeEmailVerification, PurposePasswordReset:
		return true
	default:
		return false
	}
}

func (p Purpose) String() string {
	return string(p)
}

// Default token lifetimes.
const (
	DefaultSessionTTL      = 7 * 24 * time.Hour
	DefaultVerificationTTL = 24 * time.Hour
	DefaultResetTTL        = time.Hour
)

// TokenPolicy holds the lifetime of each token purpose. It is fixed at
// construction; callers cannot pick a TTL per operation.
type TokenPolicy struct {
	SessionTTL      time.Duration
	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

// DefaultTokenPolicy returns the stock lifetimes.
func DefaultTokenPolicy() TokenPolicy {
	return TokenPolicy{
		SessionTTL:      DefaultSessionTTL,
		VerificationTTL: DefaultVerificationTTL,
		ResetTTL:        DefaultResetTTL,
	}
}

// TTL returns the lifetime for purpose.
func (p TokenPolicy) TTL(purpose Purpose) (time.Duration, error) {
	switch purpose {
	case PurposeSession:
		return p.SessionTTL, nil
	case PurposeEmailVerification:
		return p.VerificationTTL, nil
	case PurposePasswordReset:
		return p.ResetTTL, nil
	}
	return 0, goerrors.New(fmt.Sprintf("unknown token purpose %q", purpose), goerrors.CategoryBadInput)
}

// withDefaults fills zero lifetimes with the stock values.
func (p TokenPolicy) withDefaults() TokenPolicy {
	d := DefaultTokenPolicy()
	if p.SessionTTL <= 0 {
		p.SessionTTL = d.SessionTTL
	}
	if p.VerificationTTL <= 0 {
		p.VerificationTTL = d.VerificationTTL
	}
	if p.ResetTTL <= 0 {
		p.ResetTTL = d.ResetTTL
	}
	return p
}
