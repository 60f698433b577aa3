package credentials_test

import (
	"encoding/json"
	"testing"
	"time"

	credentials "github.com/goliatone/go-credentials"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_SnapshotRedactsSecrets(t *testing.T) {
	login := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	user := &credentials.User{
		ID:                 uuid.New(),
		Email:              "a@x.com",
		PasswordHash:       "$2a$12$secret",
		FirstName:          "Ada",
		Role:               credentials.RoleAdmin,
		LastLoginAt:        &login,
		CredentialsVersion: 4,
	}

	snap := user.Snapshot()
	assert.Equal(t, user.ID, snap.ID)
	assert.Equal(t, credentials.RoleAdmin, snap.Role)
	require.NotNil(t, snap.LastLoginAt)
	assert.NotSame(t, user.LastLoginAt, snap.LastLoginAt)

	for _, v := range []any{user, snap} {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		assert.NotContains(t, string(b), "secret")
		assert.NotContains(t, string(b), "credentials_version")
	}
}

func TestUser_FullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&credentials.User{FirstName: "Ada", LastName: "Lovelace"}).FullName())
	assert.Equal(t, "Ada", (&credentials.User{FirstName: "Ada"}).FullName())
	assert.Equal(t, "Lovelace", (&credentials.User{LastName: "Lovelace"}).FullName())
}

func TestUserUpdate_Apply(t *testing.T) {
	now := time.Now()
	verified := true
	hash := "new-hash"
	user := &credentials.User{}

	assert.True(t, credentials.UserUpdate{RequireUnverified: true}.IsEmpty())

	update := credentials.UserUpdate{IsVerified: &verified, PasswordHash: &hash, LastLoginAt: &now, BumpCredentialsVersion: true}
	assert.False(t, update.IsEmpty())
	update.Apply(user, now)

	assert.True(t, user.IsVerified)
	assert.Equal(t, "new-hash", user.PasswordHash)
	assert.Equal(t, 1, user.CredentialsVersion)
	assert.Equal(t, now, user.UpdatedAt)
	assert.NotSame(t, &now, user.LastLoginAt)
}

func TestRole(t *testing.T) {
	for _, r := range []credentials.Role{credentials.RoleStandard, credentials.RoleModerator, credentials.RoleAdmin} {
		assert.True(t, r.IsValid(), r)
	}
	assert.False(t, credentials.Role("owner").IsValid())

	assert.True(t, credentials.RoleAdmin.IsAtLeast(credentials.RoleModerator))
	assert.False(t, credentials.RoleStandard.IsAtLeast(credentials.RoleModerator))

	r, ok := credentials.ParseRole(" Moderator ")
	assert.True(t, ok)
	assert.Equal(t, credentials.RoleModerator, r)

	r, ok = credentials.ParseRole("root")
	assert.False(t, ok)
	assert.Equal(t, credentials.RoleStandard, r)
}
