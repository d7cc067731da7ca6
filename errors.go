package bakery

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeInvalidCreds is returned for any credential mismatch
	TextCodeInvalidCreds = "INVALID_CREDENTIALS"
	// TextCodeAccountDisabled flags an admin-disabled account
	TextCodeAccountDisabled = "ACCOUNT_DISABLED"
	// TextCodeEmailNotVerified flags a login before email verification
	TextCodeEmailNotVerified = "EMAIL_NOT_VERIFIED"
	// TextCodeInvalidToken flags a confirmation token that failed validation
	TextCodeInvalidToken = "INVALID_TOKEN"
	// TextCodeTokenExpired flags a confirmation token past its window
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTooManyAttempts flags the login cool-down
	TextCodeTooManyAttempts = "TOO_MANY_ATTEMPTS"
	// TextCodeEmptyPassword flags an empty credential input
	TextCodeEmptyPassword = "EMPTY_PASSWORD"
	// TextCodeSessionNotFound flags a request without a usable credential
	TextCodeSessionNotFound = "SESSION_NOT_FOUND"
)

// ErrInvalidCredentials is the single message for wrong email or password
var ErrInvalidCredentials = goerrors.New("invalid credentials, try again", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrAccountDisabled is returned when an admin deactivated the account
var ErrAccountDisabled = goerrors.New("account disabled, contact admin", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled)

// ErrEmailNotVerified is returned when the activation link was never used
var ErrEmailNotVerified = goerrors.New("email is not verified", goerrors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified)

// ErrUserNotFound is the error we return for unknown accounts
var ErrUserNotFound = goerrors.New("user does not exist", goerrors.CategoryNotFound)

// ErrAlreadyVerified rejects a new activation link for a verified account
var ErrAlreadyVerified = goerrors.New("email is already verified", goerrors.CategoryConflict)

// ErrInvalidToken covers signature, purpose, state and decode failures
var ErrInvalidToken = goerrors.New("invalid token, try again", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken)

// ErrResetLinkInvalid is the catch-all for the reset finalize path
var ErrResetLinkInvalid = goerrors.New("the reset link is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken)

// ErrTooManyLoginAttempts enforces the login cool-down window
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts, try again later", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrMismatchedHashAndPassword is the bcrypt comparison failure
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// ErrUnableToFindSession is returned when a request carries no credential
var ErrUnableToFindSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound)

// ErrCredentialExpired is returned for a session token past its TTL
var ErrCredentialExpired = goerrors.New("session credential has expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound)

// ErrWrongPassword rejects a password change with a bad current password
var ErrWrongPassword = goerrors.New("wrong password", goerrors.CategoryValidation)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
