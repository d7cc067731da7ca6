package bakery

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ChangePasswordMessage struct {
	User        *User
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
	OnResponse  func(token string)
}

func (e ChangePasswordMessage) Type() string { return "user.change_password" }

// ChangePasswordHandler rotates an authenticated user's password. All
// existing sessions are revoked and a fresh credential is issued, so the
// caller stays logged in while every other device is kicked out.
type ChangePasswordHandler struct {
	repo   RepositoryManager
	issuer *CredentialIssuer
}

func NewChangePasswordHandler(repo RepositoryManager, issuer *CredentialIssuer) *ChangePasswordHandler {
	return &ChangePasswordHandler{repo: repo, issuer: issuer}
}

func (h *ChangePasswordHandler) Execute(ctx context.Context, event ChangePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password change",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangePasswordHandler) execute(ctx context.Context, event ChangePasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user := event.User
	if user == nil {
		return goerrors.New("no authenticated user for password change", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}

	if err := ComparePasswordAndHash(event.OldPassword, user.PasswordHash); err != nil {
		return ErrWrongPassword
	}

	if err := ValidatePasswordStrength(event.NewPassword, user); err != nil {
		return err
	}

	hash, err := HashPassword(event.NewPassword)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	var token string

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.Users().ResetPasswordTx(ctx, tx, user.ID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
		}

		if err := h.repo.AuthTokens().RevokeAllTx(ctx, tx, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to revoke sessions")
		}

		token, err = h.issuer.IssueTx(ctx, tx, user)
		return err
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password change transaction failed")
	}

	user.PasswordHash = hash
	event.OnResponse(token)

	return nil
}
