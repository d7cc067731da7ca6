package bakery

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type RequestPasswordResetMessage struct {
	Email string `json:"email"`
	// RedirectURL optionally overrides the configured frontend target
	// the check handler redirects to.
	RedirectURL string `json:"redirect_url"`
	OnResponse  func()
}

func (e RequestPasswordResetMessage) Type() string { return "user.password_reset_request" }

// RequestPasswordResetHandler mails a reset link to a known address.
// Unknown addresses complete silently so the endpoint cannot be used to
// enumerate which emails hold an account.
type RequestPasswordResetHandler struct {
	repo       RepositoryManager
	codec      *TokenCodec
	links      LinkBuilder
	dispatcher *Dispatcher
	logger     Logger
}

func NewRequestPasswordResetHandler(repo RepositoryManager, codec *TokenCodec, links LinkBuilder, dispatcher *Dispatcher, logger Logger) *RequestPasswordResetHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &RequestPasswordResetHandler{
		repo:       repo,
		codec:      codec,
		links:      links,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (h *RequestPasswordResetHandler) Execute(ctx context.Context, event RequestPasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestPasswordResetHandler) execute(ctx context.Context, event RequestPasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByIdentifier(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			event.OnResponse()
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	token, err := h.codec.Generate(user, PurposePasswordReset)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate reset token")
	}

	uid := EncodeUID(user.Email)

	err = h.dispatcher.Enqueue(Notification{
		To:      user.Email,
		Subject: "Reset your password",
		Body: fmt.Sprintf(
			"Hello, use the link below to reset your password\n%s",
			h.links.ResetCheckLink(uid, token, event.RedirectURL),
		),
	})
	if err != nil {
		h.logger.Error("failed to queue reset email", "email", user.Email, "error", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to queue reset email")
	}

	event.OnResponse()

	return nil
}
