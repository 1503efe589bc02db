package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/flowtask/flowtask/internal/core/domain"
)

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.do(ctx, request{
		endpoint: "list_users",
		method:   http.MethodGet,
		path:     "/users/",
		out:      &users,
	}); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, request{
		endpoint: "get_user",
		method:   http.MethodGet,
		path:     "/users/" + strconv.FormatInt(id, 10),
		out:      &user,
	}); err != nil {
		return nil, err
	}
	return &user, nil
}
