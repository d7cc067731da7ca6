package bakery

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenPurpose scopes a confirmation token to a single use case. A token
// minted for one purpose never validates for another.
type TokenPurpose string

const (
	// PurposeActivation covers the email verification link
	PurposeActivation TokenPurpose = "activate"
	// PurposePasswordReset covers the password reset link
	PurposePasswordReset TokenPurpose = "password-reset"
)

// ConfirmationClaims is the signed payload of a confirmation token. State
// is a digest of the account fields the purpose cares about, so any
// mutation of those fields invalidates outstanding tokens without any
// server-side bookkeeping.
type ConfirmationClaims struct {
	Purpose string `json:"purpose"`
	State   string `json:"state"`
	jwt.RegisteredClaims
}

// TokenCodec mints and validates confirmation tokens. It is stateless:
// validation only needs the signing key and the current account record.
type TokenCodec struct {
	signingKey    []byte
	activationTTL time.Duration
	resetTTL      time.Duration
	logger        Logger
}

// NewTokenCodec creates a codec with per-purpose TTLs.
func NewTokenCodec(signingKey []byte, activationTTL, resetTTL time.Duration, logger Logger) *TokenCodec {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenCodec{
		signingKey:    signingKey,
		activationTTL: activationTTL,
		resetTTL:      resetTTL,
		logger:        logger,
	}
}

// Generate mints a signed confirmation token bound to the user's current
// state for the given purpose.
func (c *TokenCodec) Generate(user *User, purpose TokenPurpose) (string, error) {
	now := time.Now()
	claims := &ConfirmationClaims{
		Purpose: string(purpose),
		State:   userStateDigest(user, purpose),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttlFor(purpose))),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign confirmation token")
	}

	return signed, nil
}

// Validate checks signature, expiry, purpose and that the account state
// the token was bound to has not changed since issuance. All failures
// collapse into ErrInvalidToken; the cause is only logged.
func (c *TokenCodec) Validate(user *User, tokenString string, purpose TokenPurpose) error {
	claims := &ConfirmationClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.signingKey, nil
	})

	if err != nil || !token.Valid {
		c.logger.Debug("confirmation token rejected", "purpose", purpose, "error", err)
		return ErrInvalidToken
	}

	if claims.Purpose != string(purpose) {
		c.logger.Debug("confirmation token purpose mismatch",
			"want", purpose,
			"got", claims.Purpose,
		)
		return ErrInvalidToken
	}

	if claims.Subject != user.Email {
		return ErrInvalidToken
	}

	expected := userStateDigest(user, purpose)
	if subtle.ConstantTimeCompare([]byte(claims.State), []byte(expected)) != 1 {
		c.logger.Debug("confirmation token state changed since issuance", "purpose", purpose)
		return ErrInvalidToken
	}

	return nil
}

// Subject verifies signature and expiry and returns the email the token
// was issued for, without checking purpose or account state. Callers use
// it to locate the account, then run Validate against the loaded record.
func (c *TokenCodec) Subject(tokenString string) (string, error) {
	claims := &ConfirmationClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.signingKey, nil
	})

	if err != nil || !token.Valid {
		c.logger.Debug("confirmation token rejected", "error", err)
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

func (c *TokenCodec) ttlFor(purpose TokenPurpose) time.Duration {
	if purpose == PurposePasswordReset {
		return c.resetTTL
	}
	return c.activationTTL
}

// userStateDigest hashes the account fields whose mutation should revoke
// tokens of the given purpose: the verification flag for activation links,
// the login timestamp for reset links, and the password hash for both.
func userStateDigest(user *User, purpose TokenPurpose) string {
	lastLogin := ""
	if user.LoggedInAt != nil {
		lastLogin = user.LoggedInAt.UTC().Format(time.RFC3339Nano)
	}

	var payload string
	switch purpose {
	case PurposeActivation:
		payload = fmt.Sprintf("%s|%s|%t", user.Email, user.PasswordHash, user.IsVerified)
	default:
		payload = fmt.Sprintf("%s|%s|%s", user.Email, user.PasswordHash, lastLogin)
	}

	sum := sha256.Sum256(append([]byte(string(purpose)+"|"), payload...))
	return hex.EncodeToString(sum[:12])
}
