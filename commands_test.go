package bakery_test

import (
	"context"
	"testing"
	"time"

	bakery "github.com/seun-beta/bakery-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLinks = bakery.LinkBuilder{
	Scheme:      "https",
	Host:        "api.bakery.test",
	FrontendURL: "https://app.bakery.test/reset",
}

type commandFixture struct {
	repo       bakery.RepositoryManager
	codec      *bakery.TokenCodec
	issuer     *bakery.CredentialIssuer
	mailer     *fakeMailer
	dispatcher *bakery.Dispatcher
}

func newCommandFixture(t *testing.T) *commandFixture {
	t.Helper()

	_, repo := newTestDB(t)
	mailer := &fakeMailer{}

	d := bakery.NewDispatcher(mailer, "noreply@bakery.test", testDispatcherOptions(), nil)
	d.Start(context.Background())

	return &commandFixture{
		repo:       repo,
		codec:      bakery.NewTokenCodec([]byte("test-signing-secret"), time.Hour, time.Hour, nil),
		issuer:     bakery.NewCredentialIssuer(repo, time.Hour, nil),
		mailer:     mailer,
		dispatcher: d,
	}
}

func TestRegisterUser(t *testing.T) {
	f := newCommandFixture(t)
	ctx := context.Background()

	var created *bakery.User

	h := bakery.NewRegisterUserHandler(f.repo, f.codec, testLinks, f.dispatcher, nil)
	err := h.Execute(ctx, bakery.RegisterUserMessage{
		FirstName: "Pepe",
		LastName:  "Rone",
		Email:     "pepe.rone@example.com",
		Password:  "correct-horse-battery",
		OnResponse: func(user *bakery.User) {
			created = user
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.True(t, created.IsActive)
	assert.False(t, created.IsVerified)
	assert.NotEqual(t, "correct-horse-battery", created.PasswordHash)

	f.dispatcher.Stop()
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "pepe.rone@example.com", sent[0].To)
	assert.Contains(t, sent[0].Text, "https://api.bakery.test/api/v1/auth/verify-email/")
}

func TestRegisterUserDuplicateEmail(t *testing.T) {
	f := newCommandFixture(t)
	ctx := context.Background()

	createTestUser(t, f.repo, userSpec{
		Email:    "pepe.rone@example.com",
		Password: "correct-horse-battery",
		Active:   true,
	})

	h := bakery.NewRegisterUserHandler(f.repo, f.codec, testLinks, f.dispatcher, nil)
	err := h.Execute(ctx, bakery.RegisterUserMessage{
		FirstName:  "Pepe",
		LastName:   "Rone",
		Email:      "pepe.rone@example.com",
		Password:   "correct-horse-battery",
		OnResponse: func(user *bakery.User) {},
	})
	assert.Error(t, err)
}

func TestRegisterUserWeakPassword(t *testing.T) {
	f := newCommandFixture(t)

	h := bakery.NewRegisterUserHandler(f.repo, f.codec, testLinks, f.dispatcher, nil)
	err := h.Execute(context.Background(), bakery.RegisterUserMessage{
		FirstName:  "Pepe",
		LastName:   "Rone",
		Email:      "pepe.rone@example.com",
		Password:   "12345678",
		OnResponse: func(user *bakery.User) {},
	})
	assert.Error(t, err)
}

func TestVerifyEmail(t *testing.T) {
	f := newCommandFixture(t)
	ctx := context.Background()

	user := createTestUser(t, f.repo, userSpec{
		Email:    "pepe.rone@example.com",
		Password: "correct-horse-battery",
		Active:   true,
	})

	token, err := f.codec.Generate(user, bakery.PurposeActivation)
	require.NoError(t, err)

	var verified *bakery.User
	h := bakery.NewVerifyEmailHandler(f.repo, f.codec)
	err = h.Execute(ctx, bakery.VerifyEmailMessage{
		Token: token,
		OnResponse: func(u *bakery.User) {
			verified = u
		},
	})
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)

	stored, err := f.repo.Users().GetByIdentifier(ctx, user.Email)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)

	// re-running against an already verified account still succeeds
	err = h.Execute(ctx, bakery.VerifyEmailMessage{
		Token:      token,
		OnResponse: func(u *bakery.User) {},
	})
	assert.NoError(t, err)
}

func TestVerifyEmailRejectsGarbageForVerifiedAccount(t *testing.T) {
	f := newCommandFixture(t)
	ctx := context.Background()

	createTestUser(t, f.repo, userSpec{
		Email:    "pepe.rone@example.com",
		Password: "correct-horse-battery",
		Active:   true,
		Verified: true,
	})

	// already verified is not a free pass: the token still has to parse
	h := bakery.NewVerifyEmailHandler(f.repo, f.codec)
	err := h.Execute(ctx, bakery.VerifyEmailMessage{
		Token:      "not-a-token",
		UID:        bakery.EncodeUID("pepe.rone@example.com"),
		OnResponse: func(u *bakery.User) {},
	})
	assert.ErrorIs(t, err, bakery.ErrInvalidToken)
}

func TestVerifyEmailWithUID(t *testing.T) {
	f := newCommandFixture(t)
	ctx := context.Background()

	user := createTestUser(t, f.repo, userSpec{
		Email:    "pepe.rone@example.com",
		Password: "correct-horse-battery",
		Active:   true,
	})

	token, err := f.codec.Generate(user, bakery.PurposeActivation)
	require.NoError(t, err)

	h := bakery.NewVerifyEmailHandler(f.repo, f.codec)
	err = h.Execute(ctx, bakery.VerifyEmailMessage{
		Token:      token,
		UID:        bakery.EncodeUID(user.Email),
		OnResponse: func(u *bakery.User) {},
	})
	require.NoError(t, err)

	stored, err := f.repo.Users().GetByIdentifier(ctx, user.Email)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)

	// a uid that decodes to a different account cannot redeem the token
	other := createTestUser(t, f.repo, userSpec{
		Email:    "mari.nara@example.com",
		Password: "correct-horse-battery",
		Active:   true,
	})
	token2, err := f.codec.Generate(other, bakery.PurposeActivation)
	require.NoError(t, err)

	err = h.Execute(ctx, bakery.VerifyEmailMessage{
		Token:      token2,
		UID:        bakery.EncodeUID("who.dis@example.com"),
		OnResponse: func(u *bakery.User) {},
	})
	assert.ErrorIs(t, err, bakery.ErrInvalidToken)
}

func TestVerifyEmailBadToken(t *testing.T) {
	f := newCommandFixture(t)

	h := bakery.NewVerifyEmailHandler(f.repo, f.codec)
	err := h.Execute(context.Background(), bakery.VerifyEmailMessage{
		Token:      "not-a-token",
		OnResponse: func(u *bakery.User) {},
	})
	assert.ErrorIs(t, err, bakery.ErrInvalidToken)
}

func TestActivationLinkReissue(t *testing.T) {
	f := newCommandFixture(t)
	ctx := context.Background()

	createTestUser(t, f.repo, userSpec{
		Email:    "pepe.rone@example.com",
		Password: "correct-horse-battery",
		Active:   true,
	})

	h := bakery.NewActivationLinkHandler(f.repo, f.codec, testLinks, f.dispatcher, nil)
	err := h.Execute(ctx, bakery.ActivationLinkMessage{
		Email:      "pepe.rone@example.com",
		OnResponse: func(u *bakery.User) {},
	})
	require.NoError(t, err)

	f.dispatcher.Stop()
	require.Len(t, f.mailer.Sent(), 1)
}

func TestActivationLinkUnknownEmail(t *testing.T) {
	f := newCommandFixture(t)

	h := bakery.NewActivationLinkHandler(f.repo, f.codec, testLinks, f.dispatcher, nil)
	err := h.Execute(context.Background(), bakery.ActivationLinkMessage{
		Email:      "ghost@example.com",
		OnResponse: func(u *bakery.User) {},
	})
	assert.ErrorIs(t, err, bakery.ErrUserNotFound)
}

func TestActivationLinkAlreadyVerified(t *testing.T) {
	f := newCommandFixture(t)

	createTestUser(t, f.repo, userSpec{
		Email:    "pepe.rone@example.com",
		Password: "correct-horse-battery",
		Active:   true,
		Verified: true,
	})

	h := bakery.NewActivationLinkHandler(f.repo, f.codec, testLinks, f.dispatcher, nil)
	err := h.Execute(context.Background(), bakery.ActivationLinkMessage{
		Email:      "pepe.rone@example.com",
		OnResponse: func(u *bakery.User) {},
	})
	assert.ErrorIs(t, err, bakery.ErrAlreadyVerified)
}

func TestPasswordResetRequestUnknownEmailIsSilent(t *testing.T) {
	f := newCommandFixture(t)

	responded := false
	h := bakery.NewRequestPasswordResetHandler(f.repo, f.codec, testLinks, f.dispatcher, nil)
	err := h.Execute(context.Background(), bakery.RequestPasswordResetMessage{
		Email:      "ghost@example.com",
		OnResponse: func() { responded = true },
	})
	require.NoError(t, err)
	assert.True(t, responded)

	f.dispatcher.Stop()
	assert.Empty(t, f.mailer.Sent())
}

func TestPasswordResetRequestSendsLink(t *testing.T) {
	f := newCommandFixture(t)

	createTestUser(t, f.repo, userSpec{
		Email:    "pepe.rone@example.com",
		Password: "correct-horse-battery",
		Active:   true,
		Verified: true,
	})

	h := bakery.NewRequestPasswordResetHandler(f.repo, f.codec, testLinks, f.dispatcher, nil)
	err := h.Execute(context.Background(), bakery.RequestPasswordResetMessage{
		Email:      "pepe.rone@example.com",
		OnResponse: func() {},
	})
	require.NoError(t, err)

	f.dispatcher.Stop()
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "https://api.bakery.test/api/v1/auth/password-reset/")
	assert.Contains(t, sent[0].Text, bakery.EncodeUID("pepe.rone@example.com"))
}

func TestPasswordResetRedirectURL(t *testing.T) {
	f := newCommandFixture(t)
	ctx := context.Background()

	user := createTestUser(t, f.repo, userSpec{
		Email:    "pepe.rone@example.com",
		Password: "correct-horse-battery",
		Active:   true,
		Verified: true,
	})

	// the requested target rides along on the mailed link
	rh := bakery.NewRequestPasswordResetHandler(f.repo, f.codec, testLinks, f.dispatcher, nil)
	err := rh.Execute(ctx, bakery.RequestPasswordResetMessage{
		Email:       user.Email,
		RedirectURL: "https://shop.bakery.test/pw",
		OnResponse:  func() {},
	})
	require.NoError(t, err)

	f.dispatcher.Stop()
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "redirect_url=https%3A%2F%2Fshop.bakery.test%2Fpw")

	token, err := f.codec.Generate(user, bakery.PurposePasswordReset)
	require.NoError(t, err)
	uid := bakery.EncodeUID(user.Email)

	h := bakery.NewCheckPasswordResetHandler(f.repo, f.codec, testLinks, nil)

	t.Run("check honors the requested target", func(t *testing.T) {
		var redirect string
		err := h.Execute(ctx, bakery.CheckPasswordResetMessage{
			UID:         uid,
			Token:       token,
			RedirectURL: "https://shop.bakery.test/pw",
			OnResponse: func(u string) {
				redirect = u
			},
		})
		require.NoError(t, err)
		assert.Contains(t, redirect, "https://shop.bakery.test/pw?")
		assert.Contains(t, redirect, "token_valid=true")
	})

	t.Run("invalid pair keeps the requested target", func(t *testing.T) {
		var redirect string
		err := h.Execute(ctx, bakery.CheckPasswordResetMessage{
			UID:         "%%%%",
			Token:       token,
			RedirectURL: "https://shop.bakery.test/pw",
			OnResponse: func(u string) {
				redirect = u
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://shop.bakery.test/pw?token_valid=false", redirect)
	})

	t.Run("empty target falls back to the configured frontend", func(t *testing.T) {
		var redirect string
		err := h.Execute(ctx, bakery.CheckPasswordResetMessage{
			UID:   uid,
			Token: token,
			OnResponse: func(u string) {
				redirect = u
			},
		})
		require.NoError(t, err)
		assert.Contains(t, redirect, testLinks.FrontendURL+"?")
	})
}

func TestPasswordResetCheck(t *testing.T) {
	f := newCommandFixture(t)
	ctx := context.Background()

	user := createTestUser(t, f.repo, userSpec{
		Email:    "pepe.rone@example.com",
		Password: "correct-horse-battery",
		Active:   true,
		Verified: true,
	})

	token, err := f.codec.Generate(user, bakery.PurposePasswordReset)
	require.NoError(t, err)
	uid := bakery.EncodeUID(user.Email)

	h := bakery.NewCheckPasswordResetHandler(f.repo, f.codec, testLinks, nil)

	t.Run("valid pair redirects forward", func(t *testing.T) {
		var redirect string
		err := h.Execute(ctx, bakery.CheckPasswordResetMessage{
			UID:   uid,
			Token: token,
			OnResponse: func(u string) {
				redirect = u
			},
		})
		require.NoError(t, err)
		assert.Contains(t, redirect, "token_valid=true")
		assert.Contains(t, redirect, "uid="+uid)
	})

	t.Run("garbage uid redirects invalid", func(t *testing.T) {
		var redirect string
		err := h.Execute(ctx, bakery.CheckPasswordResetMessage{
			UID:   "%%%%",
			Token: token,
			OnResponse: func(u string) {
				redirect = u
			},
		})
		require.NoError(t, err)
		assert.Contains(t, redirect, "token_valid=false")
	})

	t.Run("unknown account redirects invalid", func(t *testing.T) {
		var redirect string
		err := h.Execute(ctx, bakery.CheckPasswordResetMessage{
			UID:   bakery.EncodeUID("ghost@example.com"),
			Token: token,
			OnResponse: func(u string) {
				redirect = u
			},
		})
		require.NoError(t, err)
		assert.Contains(t, redirect, "token_valid=false")
	})
}

func TestPasswordResetFinalize(t *testing.T) {
	f := newCommandFixture(t)
	ctx := context.Background()

	user := createTestUser(t, f.repo, userSpec{
		Email:    "pepe.rone@example.com",
		Password: "correct-horse-battery",
		Active:   true,
		Verified: true,
	})

	// an outstanding session that must die with the old password
	session, err := f.issuer.Issue(ctx, user)
	require.NoError(t, err)

	token, err := f.codec.Generate(user, bakery.PurposePasswordReset)
	require.NoError(t, err)
	uid := bakery.EncodeUID(user.Email)

	h := bakery.NewFinalizePasswordResetHandler(f.repo, f.codec)
	err = h.Execute(ctx, bakery.FinalizePasswordResetMessage{
		UID:        uid,
		Token:      token,
		Password:   "brand-new-password",
		OnResponse: func(u *bakery.User) {},
	})
	require.NoError(t, err)

	stored, err := f.repo.Users().GetByIdentifier(ctx, user.Email)
	require.NoError(t, err)
	assert.NoError(t, bakery.ComparePasswordAndHash("brand-new-password", stored.PasswordHash))

	_, err = f.issuer.Verify(ctx, session)
	assert.Error(t, err)

	// the link is single use: the new hash breaks the state binding
	err = h.Execute(ctx, bakery.FinalizePasswordResetMessage{
		UID:        uid,
		Token:      token,
		Password:   "yet-another-password",
		OnResponse: func(u *bakery.User) {},
	})
	assert.ErrorIs(t, err, bakery.ErrResetLinkInvalid)
}

func TestChangePassword(t *testing.T) {
	f := newCommandFixture(t)
	ctx := context.Background()

	user := createTestUser(t, f.repo, userSpec{
		Email:    "pepe.rone@example.com",
		Password: "correct-horse-battery",
		Active:   true,
		Verified: true,
	})

	oldSession, err := f.issuer.Issue(ctx, user)
	require.NoError(t, err)

	var fresh string
	h := bakery.NewChangePasswordHandler(f.repo, f.issuer)
	err = h.Execute(ctx, bakery.ChangePasswordMessage{
		User:        user,
		OldPassword: "correct-horse-battery",
		NewPassword: "brand-new-password",
		OnResponse: func(token string) {
			fresh = token
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, fresh)

	// old session revoked, fresh one works
	_, err = f.issuer.Verify(ctx, oldSession)
	assert.Error(t, err)
	_, err = f.issuer.Verify(ctx, fresh)
	assert.NoError(t, err)

	stored, err := f.repo.Users().GetByIdentifier(ctx, user.Email)
	require.NoError(t, err)
	assert.NoError(t, bakery.ComparePasswordAndHash("brand-new-password", stored.PasswordHash))
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	f := newCommandFixture(t)

	user := createTestUser(t, f.repo, userSpec{
		Email:    "pepe.rone@example.com",
		Password: "correct-horse-battery",
		Active:   true,
		Verified: true,
	})

	h := bakery.NewChangePasswordHandler(f.repo, f.issuer)
	err := h.Execute(context.Background(), bakery.ChangePasswordMessage{
		User:        user,
		OldPassword: "not-the-password",
		NewPassword: "brand-new-password",
		OnResponse:  func(token string) {},
	})
	assert.ErrorIs(t, err, bakery.ErrWrongPassword)
}
