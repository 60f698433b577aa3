package credentials_test

import (
	"context"
	"errors"
	"testing"

	credentials "github.com/goliatone/go-credentials"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStructuredErrorProperties(t *testing.T) {
	t.Run("ErrInvalidInput", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryValidation, credentials.ErrInvalidInput.Category)
		assert.Equal(t, credentials.TextCodeInvalidInput, credentials.ErrInvalidInput.TextCode)
	})

	t.Run("ErrDuplicateEmail", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryConflict, credentials.ErrDuplicateEmail.Category)
		assert.Equal(t, credentials.TextCodeDuplicateEmail, credentials.ErrDuplicateEmail.TextCode)
	})

	t.Run("ErrAlreadyVerified", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryConflict, credentials.ErrAlreadyVerified.Category)
		assert.Equal(t, credentials.TextCodeAlreadyVerified, credentials.ErrAlreadyVerified.TextCode)
	})

	t.Run("ErrUserNotFound", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryNotFound, credentials.ErrUserNotFound.Category)
		assert.Equal(t, "user not found", credentials.ErrUserNotFound.Message)
	})

	t.Run("ErrInvalidCredentials", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, credentials.ErrInvalidCredentials.Category)
		assert.Equal(t, credentials.TextCodeInvalidCredentials, credentials.ErrInvalidCredentials.TextCode)
	})

	t.Run("ErrInvalidToken", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, credentials.ErrInvalidToken.Category)
		assert.Equal(t, credentials.TextCodeInvalidToken, credentials.ErrInvalidToken.TextCode)
	})

	t.Run("token errors", func(t *testing.T) {
		assert.Equal(t, credentials.TextCodeTokenMalformed, credentials.ErrInvalidSignature.TextCode)
		assert.Equal(t, credentials.TextCodeTokenExpired, credentials.ErrTokenExpired.TextCode)
		assert.Equal(t, credentials.TextCodeWrongPurpose, credentials.ErrWrongPurpose.TextCode)
	})
}

func TestInternalFailuresAreWrapped(t *testing.T) {
	store := &MockStore{}
	hasher := &MockHasher{}
	ts := newTokenService(t, newTestClock())
	mgr, err := credentials.NewManager(store, hasher, ts, credentials.WithManagerLogger(quietLogger()))
	require.NoError(t, err)

	boom := errors.New("connection reset")
	store.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, boom)

	err = mgr.RequestPasswordReset(context.Background(), "a@x.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryInternal, richErr.Category)
}

func TestValidationErrorsKeepSentinel(t *testing.T) {
	f := newFixture(t)

	_, err := f.mgr.Register(context.Background(), credentials.RegisterInput{Email: "nope", Password: "abcdef"})
	assert.ErrorIs(t, err, credentials.ErrInvalidInput)
	assert.True(t, errors.Is(err, credentials.ErrInvalidInput))
}
