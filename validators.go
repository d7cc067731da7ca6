package bakery

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nyaruka/phonenumbers"
)

// ValidateStringEquals builds a rule asserting the value equals str.
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// ValidatePhoneNumber parses the value as an international phone number.
// Numbers must carry a country code, e.g. +250788123456.
func ValidatePhoneNumber() validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}

		num, err := phonenumbers.Parse(s, "")
		if err != nil {
			return errors.New("must be a valid international phone number")
		}

		if !phonenumbers.IsValidNumber(num) {
			return errors.New("must be a valid international phone number")
		}

		return nil
	}
}
