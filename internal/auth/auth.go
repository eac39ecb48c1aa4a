// Package auth implements user authentication for the sync API: phone-based
// login, HS256 session tokens, and per-phone rate limiting of code attempts.
package auth

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrInvalidCode indicates the submitted login code did not match.
	ErrInvalidCode = errors.New("auth: invalid login code")

	// ErrRateLimited indicates too many login attempts for a phone number.
	ErrRateLimited = errors.New("auth: too many login attempts")

	// ErrInvalidToken indicates a session token that is malformed, tampered
	// with, expired, or signed with the wrong key.
	ErrInvalidToken = errors.New("auth: invalid or expired token")
)

// phoneRegex accepts E.164-style numbers: optional leading +, 7 to 15 digits.
var phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// ValidPhone reports whether the phone number has an acceptable shape.
func ValidPhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// BearerToken extracts the token from an Authorization header value.
// Returns false if the header is missing or not a Bearer scheme.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}
