package validation

import (
	"errors"
	"fmt"
	"net/url"
	"unicode/utf8"
)

func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	return nil
}

func ValidatePriceRange(priceRange int) error {
	if priceRange < 1 || priceRange > 4 {
		return errors.New("price range must be between 1 and 4")
	}
	return nil
}

func ValidateCoordinates(latitude, longitude *float64) error {
	if latitude != nil && (*latitude < -90 || *latitude > 90) {
		return errors.New("latitude must be between -90 and 90")
	}
	if longitude != nil && (*longitude < -180 || *longitude > 180) {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateText bounds optional free text such as review content.
func ValidateText(field string, text *string, max int) error {
	if text != nil && utf8.RuneCountInString(*text) > max {
		return fmt.Errorf("%s is too long (max %d characters)", field, max)
	}
	return nil
}

// ValidateURL accepts absolute http and https URLs.
func ValidateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL", field)
	}
	return nil
}
