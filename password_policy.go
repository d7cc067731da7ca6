package bakery

import (
	"strings"
	"unicode"

	goerrors "github.com/goliatone/go-errors"
)

// MinPasswordLength mirrors the minimum-length rule of the account policy.
var MinPasswordLength = 8

// commonPasswords is a short deny list of passwords seen in every breach
// corpus. Anything here is rejected regardless of length.
var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"passw0rd":    {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"iloveyou":    {},
	"sunshine":    {},
	"princess":    {},
	"football":    {},
	"baseball":    {},
	"welcome1":    {},
	"admin123":    {},
	"letmein1":    {},
	"monkey12":    {},
	"dragon12":    {},
	"trustno1":    {},
}

// ValidatePasswordStrength enforces the password policy: minimum length,
// not entirely numeric, not a known common password and not too similar
// to the account's own attributes. user may be nil when no account exists
// yet for the attribute similarity check.
func ValidatePasswordStrength(password string, user *User) error {
	if len(password) < MinPasswordLength {
		return goerrors.New("this password is too short, it must contain at least 8 characters", goerrors.CategoryValidation)
	}

	if isEntirelyNumeric(password) {
		return goerrors.New("this password is entirely numeric", goerrors.CategoryValidation)
	}

	if _, found := commonPasswords[strings.ToLower(password)]; found {
		return goerrors.New("this password is too common", goerrors.CategoryValidation)
	}

	if user != nil && similarToUserAttributes(password, user) {
		return goerrors.New("the password is too similar to your personal information", goerrors.CategoryValidation)
	}

	return nil
}

func isEntirelyNumeric(password string) bool {
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(password) > 0
}

func similarToUserAttributes(password string, user *User) bool {
	needle := strings.ToLower(password)

	attrs := []string{user.FirstName, user.LastName}
	if at := strings.IndexByte(user.Email, '@'); at > 0 {
		attrs = append(attrs, user.Email[:at])
	} else {
		attrs = append(attrs, user.Email)
	}

	for _, attr := range attrs {
		attr = strings.ToLower(strings.TrimSpace(attr))
		// short attributes match too easily to be a useful signal
		if len(attr) < 4 {
			continue
		}
		if strings.Contains(needle, attr) || strings.Contains(attr, needle) {
			return true
		}
	}

	return false
}
