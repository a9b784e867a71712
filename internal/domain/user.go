package domain

import "strings"

// User is an account known to the tracker. Credentials are managed elsewhere;
// a user proves identity with an access token.
type User struct {
	Record
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// NormalizeEmail lowercases and trims an email for identity comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayName returns the name, falling back to the email's local part.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}
