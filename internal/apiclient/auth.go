package apiclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/internal/session"
)

// Credentials is the body of POST /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	UID         string `json:"uid"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// Login exchanges credentials for a bearer token and the user record.
func (c *Client) Login(ctx context.Context, creds Credentials) (session.User, string, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return session.User{}, "", apperr.Validation("login", "email and password are required")
	}

	var resp loginResponse
	if err := c.doJSON(ctx, epLogin.at(), creds, &resp); err != nil {
		return session.User{}, "", fmt.Errorf("login: %w", err)
	}
	if resp.AccessToken == "" {
		return session.User{}, "", apperr.New(apperr.ErrUpstream, "login", "login response did not include a token")
	}
	role, err := session.ParseRole(resp.Role)
	if err != nil {
		return session.User{}, "", apperr.Wrap(apperr.ErrUpstream, "login", err)
	}
	user := session.User{UID: resp.UID, Name: resp.Name, Email: resp.Email, Role: role}
	return user, resp.AccessToken, nil
}
