package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// StreamerLoginRegex validates a broadcaster login name.
	StreamerLoginRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

	// ConnectionHandleRegex validates a connection handle format.
	ConnectionHandleRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateStreamerLogin validates a broadcaster login name.
func ValidateStreamerLogin(login string) error {
	login = strings.TrimSpace(login)
	if login == "" {
		return fmt.Errorf("streamer login is required")
	}
	if len(login) > 25 {
		return fmt.Errorf("streamer login is too long (max 25 characters)")
	}
	if !StreamerLoginRegex.MatchString(login) {
		return fmt.Errorf("streamer login contains invalid characters (only letters, numbers, _ allowed)")
	}
	return nil
}

// ValidateConnectionHandle validates a connection handle.
func ValidateConnectionHandle(handle string) error {
	if handle == "" {
		return fmt.Errorf("connection handle is required")
	}
	if len(handle) > 128 {
		return fmt.Errorf("connection handle is too long (max 128 characters)")
	}
	if !ConnectionHandleRegex.MatchString(handle) {
		return fmt.Errorf("invalid connection handle format")
	}
	return nil
}

// ValidateMessageText validates a chat message body before analysis.
func ValidateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message text is required")
	}
	if utf8.RuneCountInString(text) > 500 {
		return fmt.Errorf("message text is too long (max 500 characters)")
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("message text contains invalid characters")
	}
	return nil
}

// ValidateURL validates URL format
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid URL scheme (must be http, https, ws, or wss)")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// ValidateNonEmptyString validates that string is not empty after trimming
func ValidateNonEmptyString(s, fieldName string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}
