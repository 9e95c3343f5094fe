// Package session holds the signed-in user and bearer token in two cookies
// (token and user) and hands the decoded session to handlers through the
// request context.
package session

import (
	"fmt"
	"strings"
)

// Role is the dashboard a user is allowed into.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a role string as returned by the login endpoint.
func ParseRole(raw string) (Role, error) {
	switch role := Role(strings.ToLower(strings.TrimSpace(raw))); role {
	case RolePatient, RoleDoctor, RoleAdmin:
		return role, nil
	default:
		return "", fmt.Errorf("session: unknown role %q", raw)
	}
}

// User is the identity returned by POST /auth/login.
type User struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Validate reports whether the user record is complete enough to hold a session.
func (u User) Validate() error {
	if strings.TrimSpace(u.UID) == "" {
		return fmt.Errorf("session: user uid is required")
	}
	if _, err := ParseRole(string(u.Role)); err != nil {
		return err
	}
	return nil
}

// Session is the current user plus the bearer credential for the REST API.
type Session struct {
	User  User
	Token string
}

// IsAuthenticated reports whether the session carries both a user and a token.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Token != "" && s.User.UID != ""
}

// HasRole reports whether the session user has one of the given roles.
func (s *Session) HasRole(roles ...Role) bool {
	if !s.IsAuthenticated() {
		return false
	}
	for _, role := range roles {
		if s.User.Role == role {
			return true
		}
	}
	return false
}
