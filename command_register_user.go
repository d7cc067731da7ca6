package bakery

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	OnResponse func(user *User)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserHandler struct {
	repo       RepositoryManager
	codec      *TokenCodec
	links      LinkBuilder
	dispatcher *Dispatcher
	logger     Logger
}

func NewRegisterUserHandler(repo RepositoryManager, codec *TokenCodec, links LinkBuilder, dispatcher *Dispatcher, logger Logger) *RegisterUserHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &RegisterUserHandler{
		repo:       repo,
		codec:      codec,
		links:      links,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{
		Email:     event.Email,
		Phone:     event.Phone,
		FirstName: event.FirstName,
		LastName:  event.LastName,
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := ValidatePasswordStrength(event.Password, user); err != nil {
		return err
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.IsActive = true
		user.IsVerified = false

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if err := h.sendActivationEmail(user); err != nil {
		h.logger.Error("failed to queue activation email", "email", user.Email, "error", err)
	}

	event.OnResponse(user)

	return nil
}

func (h *RegisterUserHandler) sendActivationEmail(user *User) error {
	token, err := h.codec.Generate(user, PurposeActivation)
	if err != nil {
		return err
	}

	return h.dispatcher.Enqueue(Notification{
		To:      user.Email,
		Subject: "Verify your email",
		Body: fmt.Sprintf(
			"Hi %s, use the link below to verify your email\n%s",
			user.FirstName,
			h.links.ActivationLink(EncodeUID(user.Email), token),
		),
	})
}
