package services

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const dateLayout = "2006-01-02"

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)

// ValidUsername reports whether the username is 3-50 characters of letters,
// digits, and underscores.
func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// ValidEmail reports whether the address parses as a bare RFC 5322 address.
func ValidEmail(email string) bool {
	if email == "" || len(email) > 255 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// ValidPassword enforces the password policy: at least 8 characters containing
// at least one letter and one digit.
func ValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// ParseDate parses a calendar date in YYYY-MM-DD form, UTC, no time component.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Today returns the current date truncated to midnight UTC.
func Today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// truncate limits a logged field to max bytes, the way audit columns are
// sized. The cut backs up to a rune boundary so a multi-byte character is
// never split into invalid UTF-8.
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
