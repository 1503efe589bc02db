package api

import (
	"context"
	"net/http"

	"github.com/flowtask/flowtask/internal/core/domain"
)

// Login exchanges credentials for a bearer token (POST /auth/login-json).
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.AuthToken, error) {
	var token domain.AuthToken
	err := c.do(ctx, request{
		endpoint: "login",
		method:   http.MethodPost,
		path:     "/auth/login-json",
		body:     creds,
		out:      &token,
	})
	return token, err
}

// Register creates an account (POST /auth/register).
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, request{
		endpoint: "register",
		method:   http.MethodPost,
		path:     "/auth/register",
		body:     reg,
		out:      &user,
	}); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUser returns the account behind the bearer token (GET /auth/me).
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, request{
		endpoint: "current_user",
		method:   http.MethodGet,
		path:     "/auth/me",
		out:      &user,
	}); err != nil {
		return nil, err
	}
	return &user, nil
}
