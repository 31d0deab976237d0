package errors

import (
	"strings"
	"unicode"
)

// ValidateTheme validates a user-provided theme string before it is sent to
// the description provider. The rules are intentionally conservative:
//   - No empty themes (use the provider default instead)
//   - No control characters or null bytes
//   - Maximum length of 200 characters
func ValidateTheme(theme string) error {
	if strings.TrimSpace(theme) == "" {
		return New(ErrCodeInvalidInput, "theme cannot be empty")
	}
	if len(theme) > 200 {
		return New(ErrCodeInvalidInput, "theme too long (max 200 characters)")
	}
	for _, r := range theme {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "theme contains invalid control characters")
		}
	}
	return nil
}

// ValidateDeckName validates a deck name used for persistence.
// Names become part of file paths in the file store, so path separators
// and traversal sequences are rejected.
func ValidateDeckName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "deck name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "deck name too long (max 128 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "deck name contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "deck name contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}
