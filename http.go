package bakery

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// NewApp builds the fiber application with routes and error handling
// wired in.
func NewApp(ctrl *Controller) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "bakery-api",
		ErrorHandler: ErrorHandler(ctrl.Logger),
	})

	RegisterRoutes(app, ctrl)

	return app
}

// RegisterRoutes mounts the API surface on the given app.
func RegisterRoutes(app *fiber.App, ctrl *Controller) {
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register/", ctrl.Register)
	auth.Post("/login/", ctrl.Login)
	auth.Get("/verify-email/", ctrl.VerifyEmail)
	auth.Post("/new-registration-link/", ctrl.ResendActivationLink)
	auth.Post("/request-password-reset/", ctrl.RequestPasswordReset)
	auth.Get("/password-reset/:uidb64/:token/", ctrl.CheckPasswordReset)
	auth.Patch("/password-reset-complete/", ctrl.FinalizePasswordReset)

	protected := auth.Group("", RequireAuth(ctrl.Issuer, ctrl.Logger))
	protected.Patch("/change-password/", ctrl.ChangePassword)
	protected.Post("/logout/", ctrl.Logout)
	protected.Post("/logout-all/", ctrl.LogoutAll)
}

const credentialLocalKey = "credential"

// RequireAuth resolves the bearer credential, loads the account, and
// stashes it in the request context. The scheme accepts both "Token"
// and "Bearer" prefixes.
func RequireAuth(issuer *CredentialIssuer, logger Logger) fiber.Handler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx) error {
		token, err := credentialFromHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}

		user, err := issuer.Verify(c.UserContext(), token)
		if err != nil {
			logger.Debug("credential rejected", "error", err)
			return ErrUnableToFindSession
		}

		if !user.IsActive {
			return ErrAccountDisabled
		}

		c.Locals(credentialLocalKey, token)
		c.SetUserContext(WithContext(c.UserContext(), user))

		return c.Next()
	}
}

func credentialFromHeader(header string) (string, error) {
	if header == "" {
		return "", ErrUnableToFindSession
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", ErrUnableToFindSession
	}

	scheme := strings.ToLower(parts[0])
	if scheme != "token" && scheme != "bearer" {
		return "", ErrUnableToFindSession
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrUnableToFindSession
	}

	return token, nil
}

// ErrorHandler maps application errors onto JSON responses. Validation
// failures serialize field by field; everything else lands under an
// "error" key with a status derived from the error category.
func ErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var vErrs validation.Errors
		if errors.As(err, &vErrs) {
			return c.Status(fiber.StatusBadRequest).JSON(vErrs)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiberErr.Message,
			})
		}

		if repository.IsRecordNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "record not found",
			})
		}

		status := fiber.StatusInternalServerError
		message := "internal server error"

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			status = statusFromCategory(richErr.Category)
			message = richErr.Message
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed", "path", c.Path(), "error", err)
			message = "internal server error"
		}

		return c.Status(status).JSON(fiber.Map{
			"error": message,
		})
	}
}

func statusFromCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	case goerrors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}
