package credentials

import (
	"context"
	"errors"
)

// VerifyEmail consumes an email verification token and marks the user
// verified. Concurrent calls with the same token publish user.verified at
// most once; the losers get ErrAlreadyVerified.
func (m *Manager) VerifyEmail(ctx context.Context, token string) (*User, error) {
	_, id, err := m.verifyToken(token, PurposeEmailVerification)
	if err != nil {
		return nil, err
	}

	user, err := m.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internal(err, "failed to load user for verification")
	}

	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}

	verified := true
	user, err = m.store.UpdateByID(ctx, id, UserUpdate{
		IsVerified:        &verified,
		RequireUnverified: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyVerified):
			return nil, ErrAlreadyVerified
		case errors.Is(err, ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, internal(err, "failed to mark user verified")
	}

	m.publish(ctx, EventUserVerified, user)

	return user, nil
}

// ResendVerification mints a fresh verification token for an unverified
// user and hands it to the notifier.
func (m *Manager) ResendVerification(ctx context.Context, email string) error {
	user, err := m.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return internal(err, "failed to load user for verification")
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	token, _, err := m.tokens.IssueFor(user.ID.String(), PurposeEmailVerification)
	if err != nil {
		return internal(err, "failed to issue verification token")
	}

	m.notify(ctx, NotifyVerification, user, token)
	return nil
}
