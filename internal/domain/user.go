package domain

import "strings"

// Role classifies a user's access level.
type Role string

// Role values.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents an account referenced by id from tasks and projects;
// users are never embedded in other entities.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role,omitempty"`
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Initials returns up to two uppercase initials for a display name, "?" when
// the name is empty.
func Initials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "?"
	}
	first := []rune(parts[0])
	out := strings.ToUpper(string(first[0]))
	if len(parts) > 1 {
		second := []rune(parts[1])
		out += strings.ToUpper(string(second[0]))
	}
	return out
}
