package validation

import (
	"errors"
	"regexp"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ValidateUsername accepts 3 to 31 characters of lower case letters, digits, underscore and hyphen.
func ValidateUsername(username string) error {
	if len(username) < 3 || len(username) > 31 {
		return errors.New("username must be between 3 and 31 characters")
	}

	if !usernamePattern.MatchString(username) {
		return errors.New("username may only contain lower case letters, digits, '_' and '-'")
	}

	return nil
}
