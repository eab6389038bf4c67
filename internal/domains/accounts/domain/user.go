package domain

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrInvalidEmail   = errors.New("a valid email address is required")
	ErrWeakPassword   = errors.New("password must be at least 8 characters")
	ErrEmptyCode      = errors.New("confirmation code is required")
	ErrEmptyGivenName = errors.New("first name is required")
)

// MinPasswordLength mirrors the identity provider's password policy.
const MinPasswordLength = 8

// User is the identity of a signed-in portal user. ID is the provider subject.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	EmailVerified bool   `json:"email_verified"`
}

// DisplayName is the greeting name shown on profile pages.
func (u User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.GivenName) + " " + strings.TrimSpace(u.FamilyName))
	if name == "" {
		return u.Email
	}
	return name
}

// Attributes are the editable profile attributes.
type Attributes struct {
	Email      string `json:"email,omitempty"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// Validate checks the editable subset; email is read-only.
func (a Attributes) Validate() error {
	if strings.TrimSpace(a.GivenName) == "" {
		return ErrEmptyGivenName
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address, rejecting malformed input.
func NormalizeEmail(raw string) (string, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", ErrInvalidEmail
	}
	return raw, nil
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

func ValidateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return ErrEmptyCode
	}
	return nil
}
