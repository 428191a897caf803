// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"net/url"
	"regexp"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}

	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}

	return nil
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}

	if len(username) > 30 {
		return fmt.Errorf("username must not exceed 30 characters")
	}

	// Only allow alphanumeric, underscores, and hyphens
	if !regexp.MustCompile(`^[a-zA-Z0-9_-]+$`).MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}

	return nil
}

// ValidatePassword checks password length bounds. The minimum mirrors the
// account data model (4 characters before hashing); the maximum bounds
// bcrypt input.
func ValidatePassword(password string) error {
	if len(password) < 4 {
		return fmt.Errorf("password must be at least 4 characters long")
	}

	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}

	return nil
}

// ValidatePostURL checks that a submitted link is a syntactically valid
// absolute http(s) URL.
func ValidatePostURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("post_url is required")
	}

	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("post_url must be a valid URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("post_url must be an absolute http or https URL")
	}

	return nil
}
