package credentials

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to the sentinel errors.
const (
	TextCodeInvalidInput       = "INVALID_INPUT"
	TextCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	TextCodeUserNotFound       = "USER_NOT_FOUND"
	TextCodeAlreadyVerified    = "ALREADY_VERIFIED"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeInvalidToken       = "INVALID_TOKEN"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeWrongPurpose       = "TOKEN_WRONG_PURPOSE"
	TextCodeInvalidConfig      = "INVALID_CONFIG"
)

// ErrInvalidInput is returned when a payload fails validation or the
// password policy.
var ErrInvalidInput = goerrors.New("invalid input", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidInput).
	WithCode(goerrors.CodeBadRequest)

// ErrDuplicateEmail is returned when the normalized email is already
// registered.
var ErrDuplicateEmail = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrUserNotFound is returned when no record matches a lookup.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrAlreadyVerified is returned when verifying an already verified user.
var ErrAlreadyVerified = goerrors.New("email already verified", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials covers both unknown email and wrong password.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidToken is the opaque error for any token failure.
var ErrInvalidToken = goerrors.New("invalid token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// Errors returned by TokenService.Verify. Manager collapses all of them into
// ErrInvalidToken.
var ErrInvalidSignature = goerrors.New("token signature or structure invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed)

var ErrTokenExpired = goerrors.New("token expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

var ErrWrongPurpose = goerrors.New("token purpose mismatch", goerrors.CategoryAuth).
	WithTextCode(TextCodeWrongPurpose)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = goerrors.New("invalid configuration", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidConfig)

// IsTokenError reports whether err came from token verification.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrWrongPurpose)
}

func invalidInput(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// internal wraps an unexpected store, hasher or signer failure.
func internal(err error, message string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, message)
}
