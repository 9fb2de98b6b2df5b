package validation

import (
	"errors"
)

// ValidatePassword checks the password length in bytes: 6 to 255.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}

	if len(password) > 255 {
		return errors.New("password must not exceed 255 characters")
	}

	return nil
}
