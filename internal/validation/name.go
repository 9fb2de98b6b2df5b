package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidateName validates a display name (user, restaurant or category).
func ValidateName(field, name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return fmt.Errorf("%s is required", field)
	}

	if utf8.RuneCountInString(trimmed) > 100 {
		return fmt.Errorf("%s is too long (max 100 characters)", field)
	}

	return nil
}

// ValidateAge accepts ages a person could plausibly have.
func ValidateAge(age int) error {
	if age < 0 || age > 150 {
		return errors.New("age must be between 0 and 150")
	}
	return nil
}
