package bakery

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// UserTracker is a store we can use to retrieve users
type UserTracker interface {
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// SessionIssuer mints opaque session credentials for a verified login.
type SessionIssuer interface {
	Issue(ctx context.Context, user *User) (string, error)
}

// MaxLoginAttempts is the maximun number of attempts a user gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// Auther verifies credentials and issues session tokens.
type Auther struct {
	store  UserTracker
	issuer SessionIssuer
	logger Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store UserTracker, issuer SessionIssuer) *Auther {
	return &Auther{
		store:  store,
		issuer: issuer,
		logger: defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// Login verifies the email and password pair and, when the account is
// active and verified, issues a fresh session credential. The three
// failure modes stay distinct so clients can tell a bad password from a
// blocked account.
func (s *Auther) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.verifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Error("login verify identity error", "error", err)
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if !user.IsVerified {
		return nil, ErrEmailNotVerified
	}

	token, err := s.issuer.Issue(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue session credential")
	}

	return &LoginResult{
		Email: user.Email,
		Token: token,
	}, nil
}

func (s *Auther) verifyIdentity(ctx context.Context, email, password string) (*User, error) {
	user, err := s.store.GetByIdentifier(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			user.LoginAttempts = 0
		}
	}

	//if we have too many attempts in the given window, cool off!
	if user.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		// We have to increment the login_attempts counter and login_attempt_at
		if err2 := s.store.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrInvalidCredentials
	}

	// reset the login_attempts counter and login_attempt_at
	if err := s.store.TrackSuccessfulLogin(ctx, user); err != nil {
		s.logger.Error("failed to track successful login", "error", err)
	}

	return user, nil
}
