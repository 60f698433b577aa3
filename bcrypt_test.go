package credentials_test

import (
	"strings"
	"testing"

	credentials "github.com/goliatone/go-credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	h, err := credentials.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	digest, err := h.Hash("abcdef")
	require.NoError(t, err)
	assert.NotEqual(t, "abcdef", digest)
	assert.True(t, h.Verify("abcdef", digest))
	assert.False(t, h.Verify("abcdeg", digest))

	again, err := h.Hash("abcdef")
	require.NoError(t, err)
	assert.NotEqual(t, digest, again, "salt must differ between hashes")
}

func TestBcryptHasher_VerifyMalformedDigest(t *testing.T) {
	h, err := credentials.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	for _, digest := range []string{"", "plain", "$2a$04$short", strings.Repeat("x", 60)} {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("abcdef", digest))
		})
	}
}

func TestBcryptHasher_Errors(t *testing.T) {
	h, err := credentials.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	_, err = h.Hash("")
	assert.ErrorIs(t, err, credentials.ErrInvalidInput)

	_, err = h.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, credentials.ErrInvalidInput)
}

func TestNewBcryptHasher_Cost(t *testing.T) {
	h, err := credentials.NewBcryptHasher(0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, h.Cost(), bcrypt.DefaultCost)

	_, err = credentials.NewBcryptHasher(bcrypt.MaxCost + 1)
	assert.ErrorIs(t, err, credentials.ErrInvalidConfig)

	_, err = credentials.NewBcryptHasher(1)
	assert.ErrorIs(t, err, credentials.ErrInvalidConfig)
}

func TestBcryptHasher_NeedsRehash(t *testing.T) {
	low, err := credentials.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	high, err := credentials.NewBcryptHasher(bcrypt.MinCost + 1)
	require.NoError(t, err)

	digest, err := low.Hash("abcdef")
	require.NoError(t, err)

	assert.False(t, low.NeedsRehash(digest))
	assert.True(t, high.NeedsRehash(digest))
	assert.True(t, low.NeedsRehash("garbage"))
}

func TestBcryptHasher_VerifyRejectsOverlongInput(t *testing.T) {
	h, err := credentials.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	password := strings.Repeat("a", credentials.MaxPasswordBytes)
	digest, err := h.Hash(password)
	require.NoError(t, err)

	assert.True(t, h.Verify(password, digest))
	assert.False(t, h.Verify(password+"-anything-appended", digest))
	assert.False(t, h.Verify(password+"a", digest))
}
