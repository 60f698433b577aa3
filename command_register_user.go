package credentials

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// Password policy.
const (
	MinPasswordLength = 6
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72
)

// RegisterInput is the payload of Manager.Register.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (in RegisterInput) normalized() RegisterInput {
	in.Email = NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)
	return in
}

func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&in.Password, passwordRules...),
		validation.Field(&in.FirstName, validation.Length(0, 200)),
		validation.Field(&in.LastName, validation.Length(0, 200)),
		validation.Field(&in.Phone, validation.Length(0, 32)),
	)
}

var passwordRules = []validation.Rule{
	validation.Required,
	validation.RuneLength(MinPasswordLength, 0),
	validation.Length(0, MaxPasswordBytes),
}

// ValidatePassword applies the password policy.
func ValidatePassword(password string) error {
	if err := validation.Validate(password, passwordRules...); err != nil {
		return validation.Errors{"password": err}
	}
	return nil
}

// Register creates an unverified user, mints a session token plus a
// verification token and publishes user.registered.
func (m *Manager) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in = in.normalized()
	if err := in.Validate(); err != nil {
		return nil, invalidInput(err)
	}

	phone, err := m.normalizePhone(in.Phone)
	if err != nil {
		return nil, invalidInput(validation.Errors{"phone": err})
	}

	if _, err := m.store.FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, internal(err, "failed to look up email")
	}

	hash, err := m.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		return nil, internal(err, "failed to hash password")
	}

	id := uuid.New()
	if m.hashedIDs {
		if hid, err := hashid.NewUUID(in.Email); err == nil {
			id = hid
		} else {
			m.logger.Warn("hashid failed, falling back to random id: %v", err)
		}
	}

	now := m.now()
	user, err := m.store.Insert(ctx, &User{
		ID:           id,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        phone,
		IsVerified:   false,
		Role:         RoleStandard,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, internal(err, "failed to insert user")
	}

	session, expiresAt, err := m.issueSession(user)
	if err != nil {
		return nil, internal(err, "failed to issue session token")
	}

	verification, _, err := m.tokens.IssueFor(user.ID.String(), PurposeEmailVerification)
	if err != nil {
		return nil, internal(err, "failed to issue verification token")
	}

	m.notify(ctx, NotifyVerification, user, verification)
	m.publish(ctx, EventUserRegistered, user)

	m.logger.Info("registered user %s", user.ID)

	return &AuthResult{
		User:         user,
		SessionToken: session,
		ExpiresAt:    expiresAt,
	}, nil
}

func (m *Manager) normalizePhone(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	num, err := phonenumbers.Parse(raw, m.phoneRegion)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", errors.New("must be a valid phone number")
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
