package bakery

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// Controller holds the wiring the HTTP handlers need.
type Controller struct {
	Debug      bool
	Logger     Logger
	Repo       RepositoryManager
	Codec      *TokenCodec
	Issuer     *CredentialIssuer
	Dispatcher *Dispatcher
	Links      LinkBuilder
	Auther     *Auther
}

// RegisterPayload is the registration request body
type RegisterPayload struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone_number"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate will validate the payload
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Required, validation.By(ValidatePhoneNumber())),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *Controller) Register(c *fiber.Ctx) error {
	payload := new(RegisterPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	var created *User

	msg := RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Phone:     payload.Phone,
		Password:  payload.Password,
		OnResponse: func(user *User) {
			created = user
		},
	}

	ph := NewRegisterUserHandler(a.Repo, a.Codec, a.Links, a.Dispatcher, a.Logger)

	if err := ph.Execute(c.UserContext(), msg); err != nil {
		return err
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(created.Public()))
	}

	return c.Status(fiber.StatusCreated).JSON(created.Public())
}

// LoginPayload is the login request body
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will validate the payload
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *Controller) Login(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	result, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

func (a *Controller) VerifyEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return ErrInvalidToken
	}

	var verified *User

	msg := VerifyEmailMessage{
		Token: token,
		UID:   c.Query("uid"),
		OnResponse: func(user *User) {
			verified = user
		},
	}

	ph := NewVerifyEmailHandler(a.Repo, a.Codec)

	if err := ph.Execute(c.UserContext(), msg); err != nil {
		return err
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(verified.Public()))
	}

	return c.JSON(fiber.Map{
		"message": "successfully activated",
	})
}

// EmailPayload carries a bare email address
type EmailPayload struct {
	Email string `json:"email"`
}

// Validate will validate the payload
func (r EmailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *Controller) ResendActivationLink(c *fiber.Ctx) error {
	payload := new(EmailPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("activation link parse payload", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	msg := ActivationLinkMessage{
		Email:      payload.Email,
		OnResponse: func(user *User) {},
	}

	ph := NewActivationLinkHandler(a.Repo, a.Codec, a.Links, a.Dispatcher, a.Logger)

	if err := ph.Execute(c.UserContext(), msg); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "verification email sent",
	})
}

// ResetRequestPayload is the reset request body. The optional
// redirect_url overrides where the reset link sends the browser.
type ResetRequestPayload struct {
	Email       string `json:"email"`
	RedirectURL string `json:"redirect_url"`
}

// Validate will validate the payload
func (r ResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.RedirectURL, is.URL),
	)
}

func (a *Controller) RequestPasswordReset(c *fiber.Ctx) error {
	payload := new(ResetRequestPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("reset request parse payload", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	msg := RequestPasswordResetMessage{
		Email:       payload.Email,
		RedirectURL: payload.RedirectURL,
		OnResponse:  func() {},
	}

	ph := NewRequestPasswordResetHandler(a.Repo, a.Codec, a.Links, a.Dispatcher, a.Logger)

	if err := ph.Execute(c.UserContext(), msg); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": "we have sent you a link to reset your password",
	})
}

func (a *Controller) CheckPasswordReset(c *fiber.Ctx) error {
	var redirect string

	msg := CheckPasswordResetMessage{
		UID:         c.Params("uidb64"),
		Token:       c.Params("token"),
		RedirectURL: c.Query("redirect_url"),
		OnResponse: func(redirectURL string) {
			redirect = redirectURL
		},
	}

	ph := NewCheckPasswordResetHandler(a.Repo, a.Codec, a.Links, a.Logger)

	if err := ph.Execute(c.UserContext(), msg); err != nil {
		return err
	}

	return c.Redirect(redirect, fiber.StatusFound)
}

// ResetCompletePayload is the final step of the reset flow
type ResetCompletePayload struct {
	UID             string `json:"uidb64"`
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate will validate the payload
func (r ResetCompletePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UID, validation.Required),
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *Controller) FinalizePasswordReset(c *fiber.Ctx) error {
	payload := new(ResetCompletePayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("reset complete parse payload", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	msg := FinalizePasswordResetMessage{
		UID:        payload.UID,
		Token:      payload.Token,
		Password:   payload.Password,
		OnResponse: func(user *User) {},
	}

	ph := NewFinalizePasswordResetHandler(a.Repo, a.Codec)

	if err := ph.Execute(c.UserContext(), msg); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "password reset success",
	})
}

// ChangePasswordPayload rotates the password of a logged in user
type ChangePasswordPayload struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate will validate the payload
func (r ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.NewPassword)),
		),
	)
}

func (a *Controller) ChangePassword(c *fiber.Ctx) error {
	user, ok := FromContext(c.UserContext())
	if !ok {
		return ErrUnableToFindSession
	}

	payload := new(ChangePasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("change password parse payload", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	var token string

	msg := ChangePasswordMessage{
		User:        user,
		OldPassword: payload.OldPassword,
		NewPassword: payload.NewPassword,
		OnResponse: func(t string) {
			token = t
		},
	}

	ph := NewChangePasswordHandler(a.Repo, a.Issuer)

	if err := ph.Execute(c.UserContext(), msg); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"token": token,
	})
}

func (a *Controller) Logout(c *fiber.Ctx) error {
	token, ok := c.Locals(credentialLocalKey).(string)
	if !ok || token == "" {
		return ErrUnableToFindSession
	}

	if err := a.Repo.AuthTokens().DeleteByDigest(c.UserContext(), TokenDigest(token)); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to revoke credential")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (a *Controller) LogoutAll(c *fiber.Ctx) error {
	user, ok := FromContext(c.UserContext())
	if !ok {
		return ErrUnableToFindSession
	}

	if err := a.Repo.AuthTokens().RevokeAll(c.UserContext(), user.ID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to revoke credentials")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
