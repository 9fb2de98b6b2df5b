package validation

import (
	"errors"
	"net/mail"
)

const maxEmailLength = 254

// ValidateEmail accepts a bare RFC 5322 address. Display-name forms
// such as "Alice <alice@example.com>" are rejected.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}
	if len(email) > maxEmailLength {
		return errors.New("email address is too long (max 254 characters)")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email address format")
	}

	return nil
}
