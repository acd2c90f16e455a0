package service

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const maxURLLength = 2048

var (
	ErrInvalidURL   = errors.New("invalid url")
	ErrInvalidAlias = errors.New("invalid alias")
)

var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
}

// reservedAliases collide with fixed routes and the default status pages.
var reservedAliases = map[string]bool{
	"api":           true,
	"health":        true,
	"ready":         true,
	"metrics":       true,
	"swagger":       true,
	"404":           true,
	"expired":       true,
	"limit-reached": true,
	"error":         true,
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidURL)
	}
	if len(rawURL) > maxURLLength {
		return fmt.Errorf("%w: url is longer than %d characters", ErrInvalidURL, maxURLLength)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !allowedSchemes[strings.ToLower(parsed.Scheme)] {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}

	return nil
}

// ValidateAlias checks a user chosen short code. Availability is decided at
// insert time, not here.
func ValidateAlias(alias string, maxLength int) error {
	if alias == "" {
		return fmt.Errorf("%w: alias is empty", ErrInvalidAlias)
	}
	if maxLength > 0 && len(alias) > maxLength {
		return fmt.Errorf("%w: alias is longer than %d characters", ErrInvalidAlias, maxLength)
	}
	for _, r := range alias {
		if !isAliasRune(r) {
			return fmt.Errorf("%w: only letters, digits and '-' are allowed", ErrInvalidAlias)
		}
	}
	if reservedAliases[strings.ToLower(alias)] {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidAlias, alias)
	}
	return nil
}

func isAliasRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-'
}
