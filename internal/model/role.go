package model

import "strings"

// Role is the privilege tier of an account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleAdmin || r == RoleUser }

// RequiresPassword reports whether accounts with this role must carry a
// password. Only admins authenticate with a secret.
func (r Role) RequiresPassword() bool { return r == RoleAdmin }

// ParseRole normalizes s. An empty string yields RoleUser, the default role;
// unknown values are returned as-is so validation can reject them.
func ParseRole(s string) Role {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RoleUser
	}
	return Role(s)
}
