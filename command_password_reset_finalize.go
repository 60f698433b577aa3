package credentials

import (
	"context"
	"errors"
)

// ResetPassword consumes a password reset token and replaces the password
// hash. Outstanding session tokens stay valid unless the manager was built
// WithSessionRevocationOnReset.
func (m *Manager) ResetPassword(ctx context.Context, token, newPassword string) error {
	_, id, err := m.verifyToken(token, PurposePasswordReset)
	if err != nil {
		return err
	}

	if _, err := m.store.FindByID(ctx, id); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return internal(err, "could not retrieve user for password reset")
	}

	if err := ValidatePassword(newPassword); err != nil {
		return invalidInput(err)
	}

	hash, err := m.hasher.Hash(newPassword)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return err
		}
		return internal(err, "failed to hash new password")
	}

	_, err = m.store.UpdateByID(ctx, id, UserUpdate{
		PasswordHash:           &hash,
		BumpCredentialsVersion: m.revokeOnReset,
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return internal(err, "failed to update user password")
	}

	m.logger.Info("password reset for user %s", id)
	return nil
}
