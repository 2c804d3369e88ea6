// Package validation provides input validation utilities
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

const (
	minPasswordLen = 12
	maxPasswordLen = 128
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9_-]*[a-zA-Z0-9])?$`)

// reservedUsernames collide with profile routes such as /api/users/me.
var reservedUsernames = map[string]struct{}{
	"admin": {}, "api": {}, "auth": {}, "me": {}, "explore": {}, "gallery": {},
	"generate": {}, "media": {}, "swagger": {}, "metrics": {}, "login": {}, "signup": {},
}

type passwordRule struct {
	ok  func(rune) bool
	msg string
}

var passwordRules = []passwordRule{
	{unicode.IsUpper, "password must contain at least one uppercase letter"},
	{unicode.IsLower, "password must contain at least one lowercase letter"},
	{unicode.IsDigit, "password must contain at least one digit"},
	{func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) }, "password must contain at least one special character (!@#$%^&*)"},
}

// ValidatePassword checks length and character classes. Length counts bytes so
// the bcrypt input limit is never approached.
func ValidatePassword(password string) error {
	switch {
	case len(password) < minPasswordLen:
		return errors.New("password must be at least 12 characters long")
	case len(password) > maxPasswordLen:
		return errors.New("password must not exceed 128 characters")
	}
	for _, rule := range passwordRules {
		if !strings.ContainsFunc(password, rule.ok) {
			return errors.New(rule.msg)
		}
	}
	return nil
}

// ValidateUsername allows 3-30 letters, digits, underscores and hyphens, not at
// either end.
func ValidateUsername(username string) error {
	switch {
	case len(username) < 3:
		return errors.New("username must be at least 3 characters long")
	case len(username) > 30:
		return errors.New("username must not exceed 30 characters")
	case !usernamePattern.MatchString(username):
		return errors.New("username may contain letters, digits, underscores and hyphens, and must start and end with a letter or digit")
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return errors.New("username is reserved")
	}
	return nil
}

// ValidateEmail checks the address with the validator's email rule.
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return errors.New("email must not exceed 254 characters")
	}
	if err := instance().Var(email, "required,email"); err != nil {
		return errors.New("invalid email format")
	}
	return nil
}
