package api

import (
	"context"
	"net/http"

	"github.com/rcliao/synapse/internal/model"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Name     *string `json:"name,omitempty"`
}

// Login exchanges email and password for a bearer credential.
func (c *Client) Login(ctx context.Context, email, password string) (*model.Token, error) {
	body := LoginRequest{Email: email, Password: password}
	if err := check("login", body); err != nil {
		return nil, err
	}
	var tok model.Token
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: body}, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Signup creates an account. It does not return a credential; log in afterwards.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*model.User, error) {
	if err := check("signup", req); err != nil {
		return nil, err
	}
	var u model.User
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/signup", body: req}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Me returns the user the current credential belongs to.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me"}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
