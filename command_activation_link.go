package bakery

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type ActivationLinkMessage struct {
	Email      string `json:"email"`
	OnResponse func(user *User)
}

func (e ActivationLinkMessage) Type() string { return "user.activation_link" }

// ActivationLinkHandler re-issues the verification email for an account
// that registered but never followed the original link.
type ActivationLinkHandler struct {
	repo       RepositoryManager
	codec      *TokenCodec
	links      LinkBuilder
	dispatcher *Dispatcher
	logger     Logger
}

func NewActivationLinkHandler(repo RepositoryManager, codec *TokenCodec, links LinkBuilder, dispatcher *Dispatcher, logger Logger) *ActivationLinkHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &ActivationLinkHandler{
		repo:       repo,
		codec:      codec,
		links:      links,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (h *ActivationLinkHandler) Execute(ctx context.Context, event ActivationLinkMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during activation link request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ActivationLinkHandler) execute(ctx context.Context, event ActivationLinkMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByIdentifier(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for activation link")
	}

	if user.IsVerified {
		return ErrAlreadyVerified
	}

	token, err := h.codec.Generate(user, PurposeActivation)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate activation token")
	}

	err = h.dispatcher.Enqueue(Notification{
		To:      user.Email,
		Subject: "Verify your email",
		Body: fmt.Sprintf(
			"Hi %s, use the link below to verify your email\n%s",
			user.FirstName,
			h.links.ActivationLink(EncodeUID(user.Email), token),
		),
	})
	if err != nil {
		h.logger.Error("failed to queue activation email", "email", user.Email, "error", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to queue activation email")
	}

	event.OnResponse(user)

	return nil
}
