package bakery

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type VerifyEmailMessage struct {
	Token      string `json:"token"`
	UID        string `json:"uid"`
	OnResponse func(user *User)
}

func (e VerifyEmailMessage) Type() string { return "user.verify_email" }

// VerifyEmailHandler flips the verification flag for the account an
// activation token was minted for. Re-running it against an already
// verified account succeeds without touching the record.
type VerifyEmailHandler struct {
	repo  RepositoryManager
	codec *TokenCodec
}

func NewVerifyEmailHandler(repo RepositoryManager, codec *TokenCodec) *VerifyEmailHandler {
	return &VerifyEmailHandler{repo: repo, codec: codec}
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// Signature and expiry hold regardless of account state; a garbage
	// token never verifies, not even for an already verified account.
	subject, err := h.codec.Subject(event.Token)
	if err != nil {
		return err
	}

	// The uid travels beside the token on the wire. Older links carry
	// only the token; for those the account comes from the token subject.
	email := subject
	if event.UID != "" {
		if email, err = DecodeUID(event.UID); err != nil {
			return ErrInvalidToken
		}
		if email != subject {
			return ErrInvalidToken
		}
	}

	user, err := h.repo.Users().GetByIdentifier(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrInvalidToken
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for verification")
	}

	if user.IsVerified {
		event.OnResponse(user)
		return nil
	}

	if err := h.codec.Validate(user, event.Token, PurposeActivation); err != nil {
		return err
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.Users().MarkVerifiedTx(ctx, tx, user.ID)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark user verified")
	}

	user.IsVerified = true
	event.OnResponse(user)

	return nil
}
