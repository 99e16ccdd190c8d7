package users

import (
	"strings"

	"github.com/imoto-rec-git/sns-like-app/internal/webhook"
)

// DeriveUsername picks the first available of: the provided username,
// "first_last", "first", or "user_" plus the last 8 characters of the id.
func DeriveUsername(d webhook.UserData) string {
	if d.Username != "" {
		return d.Username
	}
	if d.FirstName != "" && d.LastName != "" {
		return strings.ToLower(d.FirstName) + "_" + strings.ToLower(d.LastName)
	}
	if d.FirstName != "" {
		return strings.ToLower(d.FirstName)
	}
	return "user_" + idSuffix(d.ID)
}

// DeriveDisplayName returns "" when no first name is known; callers store
// that as NULL.
func DeriveDisplayName(d webhook.UserData) string {
	if d.FirstName != "" && d.LastName != "" {
		return d.FirstName + " " + d.LastName
	}
	return d.FirstName
}

func idSuffix(id string) string {
	r := []rune(id)
	if len(r) <= 8 {
		return id
	}
	return string(r[len(r)-8:])
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
