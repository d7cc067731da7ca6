package bakery

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type CheckPasswordResetMessage struct {
	UID   string
	Token string
	// RedirectURL is the per-request target carried on the reset link;
	// empty falls back to the configured frontend URL.
	RedirectURL string
	OnResponse  func(redirectURL string)
}

func (e CheckPasswordResetMessage) Type() string { return "user.password_reset_check" }

// CheckPasswordResetHandler validates the uid/token pair from a reset
// email and resolves where the browser should be redirected. It never
// errors on a bad pair: the invalid redirect is the answer.
type CheckPasswordResetHandler struct {
	repo   RepositoryManager
	codec  *TokenCodec
	links  LinkBuilder
	logger Logger
}

func NewCheckPasswordResetHandler(repo RepositoryManager, codec *TokenCodec, links LinkBuilder, logger Logger) *CheckPasswordResetHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &CheckPasswordResetHandler{
		repo:   repo,
		codec:  codec,
		links:  links,
		logger: logger,
	}
}

func (h *CheckPasswordResetHandler) Execute(ctx context.Context, event CheckPasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset check",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CheckPasswordResetHandler) execute(ctx context.Context, event CheckPasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email, err := DecodeUID(event.UID)
	if err != nil {
		event.OnResponse(h.links.ResetRedirect(event.RedirectURL, false))
		return nil
	}

	user, err := h.repo.Users().GetByIdentifier(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			event.OnResponse(h.links.ResetRedirect(event.RedirectURL, false))
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for reset check")
	}

	if err := h.codec.Validate(user, event.Token, PurposePasswordReset); err != nil {
		h.logger.Debug("reset link rejected", "email", email, "error", err)
		event.OnResponse(h.links.ResetRedirect(event.RedirectURL, false))
		return nil
	}

	event.OnResponse(h.links.ResetRedirectValid(event.RedirectURL, event.UID, event.Token))

	return nil
}
