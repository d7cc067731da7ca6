package bakery

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	UID        string `json:"uidb64"`
	Token      string `json:"token"`
	Password   string `json:"password"`
	OnResponse func(user *User)
}

func (e FinalizePasswordResetMessage) Type() string { return "user.password_reset_finalize" }

// FinalizePasswordResetHandler sets the new password once the uid/token
// pair checks out. Every outstanding session is revoked in the same
// transaction, and the new password hash invalidates the token itself.
type FinalizePasswordResetHandler struct {
	repo  RepositoryManager
	codec *TokenCodec
}

func NewFinalizePasswordResetHandler(repo RepositoryManager, codec *TokenCodec) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{repo: repo, codec: codec}
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email, err := DecodeUID(event.UID)
	if err != nil {
		return ErrResetLinkInvalid
	}

	user, err := h.repo.Users().GetByIdentifier(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrResetLinkInvalid
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for reset")
	}

	if err := h.codec.Validate(user, event.Token, PurposePasswordReset); err != nil {
		return ErrResetLinkInvalid
	}

	if err := ValidatePasswordStrength(event.Password, user); err != nil {
		return err
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.Users().ResetPasswordTx(ctx, tx, user.ID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
		}

		return h.repo.AuthTokens().RevokeAllTx(ctx, tx, user.ID)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset transaction failed")
	}

	user.PasswordHash = hash
	event.OnResponse(user)

	return nil
}
