package credentials

import (
	"context"
	"errors"
)

// Authenticate checks email and password. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (m *Manager) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)

	user, err := m.store.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, internal(err, "failed to load user for authentication")
		}
		m.hasher.Verify(password, m.comparisonHash())
		return nil, ErrInvalidCredentials
	}

	if !m.hasher.Verify(password, user.PasswordHash) || len(password) > MaxPasswordBytes {
		return nil, ErrInvalidCredentials
	}

	now := m.now()
	update := UserUpdate{LastLoginAt: &now}
	if hash, ok := m.rehash(user, password); ok {
		update.PasswordHash = &hash
	}

	user, err = m.store.UpdateByID(ctx, user.ID, update)
	if err != nil {
		return nil, internal(err, "failed to record login")
	}

	session, expiresAt, err := m.issueSession(user)
	if err != nil {
		return nil, internal(err, "failed to issue session token")
	}

	m.publish(ctx, EventUserLogin, user)

	return &AuthResult{
		User:         user,
		SessionToken: session,
		ExpiresAt:    expiresAt,
	}, nil
}

// Authorize resolves a session token to the current principal.
func (m *Manager) Authorize(ctx context.Context, sessionToken string) (*Principal, error) {
	user, err := m.sessionUser(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	return &Principal{
		UserID:     user.ID,
		Role:       user.Role,
		IsVerified: user.IsVerified,
	}, nil
}

// CurrentUser returns the record behind a session token.
func (m *Manager) CurrentUser(ctx context.Context, sessionToken string) (*User, error) {
	return m.sessionUser(ctx, sessionToken)
}

// rehash returns a fresh digest when the hasher reports the stored one was
// produced with outdated parameters.
func (m *Manager) rehash(user *User, password string) (string, bool) {
	r, ok := m.hasher.(Rehasher)
	if !ok || !r.NeedsRehash(user.PasswordHash) {
		return "", false
	}
	hash, err := m.hasher.Hash(password)
	if err != nil {
		m.logger.Warn("failed to rehash password for user %s: %v", user.ID, err)
		return "", false
	}
	m.logger.Debug("rehashed password for user %s", user.ID)
	return hash, true
}

func (m *Manager) sessionUser(ctx context.Context, token string) (*User, error) {
	claims, id, err := m.verifyToken(token, PurposeSession)
	if err != nil {
		return nil, err
	}

	user, err := m.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, internal(err, "failed to load session user")
	}

	if m.revokeOnReset && claims.Version != user.CredentialsVersion {
		m.logger.Debug("session token for %s has stale credentials version %d", id, claims.Version)
		return nil, ErrInvalidToken
	}

	return user, nil
}
