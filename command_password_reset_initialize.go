package credentials

import (
	"context"
	"errors"
)

// RequestPasswordReset mints a reset token for email and hands it to the
// notifier. Unknown emails fail with ErrUserNotFound unless the manager
// was built WithMaskedResetLookup. No event is published and the record is
// left untouched.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return invalidInput(errors.New("email: cannot be blank"))
	}

	user, err := m.store.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return internal(err, "failed to load user for password reset")
		}
		if m.maskReset {
			m.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return ErrUserNotFound
	}

	token, _, err := m.tokens.IssueFor(user.ID.String(), PurposePasswordReset)
	if err != nil {
		return internal(err, "failed to issue password reset token")
	}

	m.notify(ctx, NotifyPasswordReset, user, token)
	return nil
}
