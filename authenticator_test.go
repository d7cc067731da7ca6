package bakery_test

import (
	"context"
	"testing"
	"time"

	bakery "github.com/seun-beta/bakery-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// the users repository must be usable as the authenticator's store
var _ bakery.UserTracker = (bakery.Users)(nil)

func authTestUser(t *testing.T, password string) *bakery.User {
	t.Helper()

	hash, err := bakery.HashPassword(password)
	require.NoError(t, err)

	return &bakery.User{
		Email:        "pepe.rone@example.com",
		PasswordHash: hash,
		IsActive:     true,
		IsVerified:   true,
	}
}

func TestLoginSuccess(t *testing.T) {
	user := authTestUser(t, "correct-horse-battery")

	store := new(MockUserTracker)
	store.On("GetByIdentifier", mock.Anything, user.Email).Return(user, nil)
	store.On("TrackSuccessfulLogin", mock.Anything, user).Return(nil)

	issuer := new(MockSessionIssuer)
	issuer.On("Issue", mock.Anything, user).Return("sessiontoken", nil)

	auther := bakery.NewAuthenticator(store, issuer)

	result, err := auther.Login(context.Background(), user.Email, "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, user.Email, result.Email)
	assert.Equal(t, "sessiontoken", result.Token)

	store.AssertExpectations(t)
	issuer.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	user := authTestUser(t, "correct-horse-battery")

	store := new(MockUserTracker)
	store.On("GetByIdentifier", mock.Anything, user.Email).Return(user, nil)
	store.On("TrackAttemptedLogin", mock.Anything, user).Return(nil)

	issuer := new(MockSessionIssuer)

	auther := bakery.NewAuthenticator(store, issuer)

	_, err := auther.Login(context.Background(), user.Email, "not-the-password")
	assert.ErrorIs(t, err, bakery.ErrInvalidCredentials)

	store.AssertCalled(t, "TrackAttemptedLogin", mock.Anything, user)
	issuer.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
}

func TestLoginUnknownUser(t *testing.T) {
	store := new(MockUserTracker)
	store.On("GetByIdentifier", mock.Anything, "ghost@example.com").
		Return(nil, bakery.ErrUserNotFound)

	auther := bakery.NewAuthenticator(store, new(MockSessionIssuer))

	_, err := auther.Login(context.Background(), "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, bakery.ErrInvalidCredentials)
}

func TestLoginDisabledAccount(t *testing.T) {
	user := authTestUser(t, "correct-horse-battery")
	user.IsActive = false

	store := new(MockUserTracker)
	store.On("GetByIdentifier", mock.Anything, user.Email).Return(user, nil)
	store.On("TrackSuccessfulLogin", mock.Anything, user).Return(nil)

	auther := bakery.NewAuthenticator(store, new(MockSessionIssuer))

	_, err := auther.Login(context.Background(), user.Email, "correct-horse-battery")
	assert.ErrorIs(t, err, bakery.ErrAccountDisabled)
}

func TestLoginUnverifiedEmail(t *testing.T) {
	user := authTestUser(t, "correct-horse-battery")
	user.IsVerified = false

	store := new(MockUserTracker)
	store.On("GetByIdentifier", mock.Anything, user.Email).Return(user, nil)
	store.On("TrackSuccessfulLogin", mock.Anything, user).Return(nil)

	auther := bakery.NewAuthenticator(store, new(MockSessionIssuer))

	_, err := auther.Login(context.Background(), user.Email, "correct-horse-battery")
	assert.ErrorIs(t, err, bakery.ErrEmailNotVerified)
}

func TestLoginThrottled(t *testing.T) {
	user := authTestUser(t, "correct-horse-battery")
	user.LoginAttempts = bakery.MaxLoginAttempts + 1
	now := time.Now()
	user.LoginAttemptAt = &now

	store := new(MockUserTracker)
	store.On("GetByIdentifier", mock.Anything, user.Email).Return(user, nil)

	auther := bakery.NewAuthenticator(store, new(MockSessionIssuer))

	_, err := auther.Login(context.Background(), user.Email, "correct-horse-battery")
	assert.ErrorIs(t, err, bakery.ErrTooManyLoginAttempts)
}

func TestLoginThrottleResetsAfterCoolDown(t *testing.T) {
	user := authTestUser(t, "correct-horse-battery")
	user.LoginAttempts = bakery.MaxLoginAttempts + 1
	stale := time.Now().Add(-48 * time.Hour)
	user.LoginAttemptAt = &stale

	store := new(MockUserTracker)
	store.On("GetByIdentifier", mock.Anything, user.Email).Return(user, nil)
	store.On("TrackSuccessfulLogin", mock.Anything, user).Return(nil)

	issuer := new(MockSessionIssuer)
	issuer.On("Issue", mock.Anything, user).Return("sessiontoken", nil)

	auther := bakery.NewAuthenticator(store, issuer)

	result, err := auther.Login(context.Background(), user.Email, "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, "sessiontoken", result.Token)
}
