package reddit

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the default Reddit origin
	BaseURL = "https://www.reddit.com"

	// DefaultLimit is the page size used when none is given
	DefaultLimit = 100

	// MaxLimit is the largest page Reddit will return
	MaxLimit = 100
)

// SubmittedURL builds the listing URL for an account's submissions
func SubmittedURL(base, account, after string, limit int) string {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("after", after)

	return fmt.Sprintf("%s/user/%s/submitted.json?%s",
		strings.TrimRight(base, "/"), url.PathEscape(account), params.Encode())
}

// ProfileURL returns the public profile page of an account
func ProfileURL(account string) string {
	if account == "" {
		return ""
	}
	return fmt.Sprintf("%s/user/%s/", BaseURL, account)
}

// IsValidAccount checks a username against Reddit's rules:
// 3 to 20 characters of letters, digits, '_' and '-'.
func IsValidAccount(account string) bool {
	if len(account) < 3 || len(account) > 20 {
		return false
	}
	for _, char := range account {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_' || char == '-') {
			return false
		}
	}
	return true
}

// SanitizeAccount extracts a username from user input. It accepts a bare
// name, "u/name", "/user/name" or a full profile URL.
func SanitizeAccount(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}

	if idx := strings.Index(s, "/user/"); idx >= 0 {
		s = s[idx+len("/user/"):]
	} else if idx := strings.Index(s, "/u/"); idx >= 0 {
		s = s[idx+len("/u/"):]
	}
	s = strings.TrimPrefix(s, "u/")
	s = strings.TrimPrefix(s, "@")

	if idx := strings.IndexAny(s, "/?#"); idx >= 0 {
		s = s[:idx]
	}
	return s
}
