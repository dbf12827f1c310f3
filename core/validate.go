package core

import (
	"fmt"
	"net/mail"
	"strings"
)

// NormalizeEmail lowercases and trims an email address. All lookups and inserts
// go through this so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the address is syntactically valid.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// ValidateSignupInput checks signup fields against every rule and returns the
// full list of violations so the caller gets them in one round-trip. An empty
// slice means the input is valid. Email uniqueness is the store's concern, not
// checked here.
func ValidateSignupInput(name, email, password, confirmPassword string, minPasswordLength int) []string {
	var details []string
	if strings.TrimSpace(name) == "" {
		details = append(details, "name is required")
	}
	if email = NormalizeEmail(email); email == "" {
		details = append(details, "email is required")
	} else if !ValidEmail(email) {
		details = append(details, "email is not a valid address")
	}
	if password == "" {
		details = append(details, "password is required")
	} else if len(password) < minPasswordLength {
		details = append(details, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if password != confirmPassword {
		details = append(details, "passwords do not match")
	}
	return details
}
