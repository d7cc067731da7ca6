package bakery

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// EncodeUID turns an email address into the opaque uid segment used in
// confirmation links.
func EncodeUID(email string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(email))
}

// DecodeUID reverses EncodeUID. Padding variants are tolerated since
// clients sometimes re-encode the segment.
func DecodeUID(uid string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(uid, "="))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryBadInput, "malformed uid segment").
			WithTextCode(TextCodeInvalidToken)
	}
	return string(raw), nil
}

// LinkBuilder renders the absolute URLs embedded in outgoing email. The
// scheme and host identify this API; FrontendURL is where the reset
// redirect sends the browser.
type LinkBuilder struct {
	Scheme      string
	Host        string
	FrontendURL string
}

// ActivationLink is the URL a new user follows to verify their address.
func (b LinkBuilder) ActivationLink(uid, token string) string {
	u := url.URL{
		Scheme:   b.Scheme,
		Host:     b.Host,
		Path:     "/api/v1/auth/verify-email/",
		RawQuery: url.Values{"token": {token}, "uid": {uid}}.Encode(),
	}
	return u.String()
}

// ResetCheckLink is the URL a user follows from the reset email. The
// handler behind it validates the pair and redirects to the frontend.
// A non-empty redirectURL rides along so the check handler knows where
// the request wants the browser sent.
func (b LinkBuilder) ResetCheckLink(uid, token, redirectURL string) string {
	u := url.URL{
		Scheme: b.Scheme,
		Host:   b.Host,
		Path:   fmt.Sprintf("/api/v1/auth/password-reset/%s/%s/", uid, token),
	}
	if redirectURL != "" {
		u.RawQuery = url.Values{"redirect_url": {redirectURL}}.Encode()
	}
	return u.String()
}

// resetBase prefers the caller-supplied redirect target over the
// configured frontend URL.
func (b LinkBuilder) resetBase(redirectURL string) string {
	if redirectURL != "" {
		return redirectURL
	}
	return b.FrontendURL
}

// ResetRedirect builds the frontend URL for an invalid link.
func (b LinkBuilder) ResetRedirect(redirectURL string, valid bool) string {
	return fmt.Sprintf("%s?token_valid=%t", b.resetBase(redirectURL), valid)
}

// ResetRedirectValid builds the frontend URL carrying the still-valid
// uid/token pair forward so the client can submit the new password.
func (b LinkBuilder) ResetRedirectValid(redirectURL, uid, token string) string {
	q := url.Values{
		"token_valid": {"true"},
		"message":     {"Credentials Valid"},
		"uid":         {uid},
		"token":       {token},
	}
	return fmt.Sprintf("%s?%s", b.resetBase(redirectURL), q.Encode())
}
