package bakery

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CredentialTokenLength is the byte length of the random session
// credential before hex encoding; clients see twice as many characters.
var CredentialTokenLength = 32

// TokenDigest is the at-rest form of a session credential. Only the
// digest is stored, so a database leak does not leak usable credentials.
func TokenDigest(token string) string {
	sum := sha512.Sum512([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CredentialIssuer mints, verifies, and revokes opaque session
// credentials. The cleartext token is returned exactly once at issuance.
type CredentialIssuer struct {
	repo   RepositoryManager
	ttl    time.Duration
	logger Logger
}

func NewCredentialIssuer(repo RepositoryManager, ttl time.Duration, logger Logger) *CredentialIssuer {
	if logger == nil {
		logger = defLogger{}
	}
	return &CredentialIssuer{repo: repo, ttl: ttl, logger: logger}
}

// Issue creates a fresh credential for the user and returns its
// cleartext form.
func (s *CredentialIssuer) Issue(ctx context.Context, user *User) (string, error) {
	var token string
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		token, err = s.IssueTx(ctx, tx, user)
		return err
	})
	return token, err
}

// IssueTx is Issue inside an existing transaction.
func (s *CredentialIssuer) IssueTx(ctx context.Context, tx bun.Tx, user *User) (string, error) {
	buf := make([]byte, CredentialTokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate session credential")
	}
	token := hex.EncodeToString(buf)

	record := &AuthToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Digest:    TokenDigest(token),
		ExpiresAt: time.Now().Add(s.ttl),
	}

	if _, err := s.repo.AuthTokens().CreateTx(ctx, tx, record); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store session credential")
	}

	return token, nil
}

// Verify resolves a cleartext credential to its user. Expired
// credentials are deleted on sight.
func (s *CredentialIssuer) Verify(ctx context.Context, token string) (*User, error) {
	record, err := s.repo.AuthTokens().FindByDigest(ctx, TokenDigest(token))
	if err != nil {
		return nil, ErrUnableToFindSession
	}

	if record.Expired() {
		if derr := s.repo.AuthTokens().DeleteByDigest(ctx, record.Digest); derr != nil {
			s.logger.Error("failed to delete expired credential", "error", derr)
		}
		return nil, ErrCredentialExpired
	}

	if record.User == nil {
		return nil, ErrUnableToFindSession
	}

	return record.User, nil
}

// RevokeAll drops every outstanding credential for the user, e.g. after
// a password change.
func (s *CredentialIssuer) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.repo.AuthTokens().RevokeAllTx(ctx, tx, userID)
	})
}

// RevokeAllTx is RevokeAll inside an existing transaction.
func (s *CredentialIssuer) RevokeAllTx(ctx context.Context, tx bun.Tx, userID uuid.UUID) error {
	return s.repo.AuthTokens().RevokeAllTx(ctx, tx, userID)
}
