package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flowtask/flowtask/internal/core/domain"
)

// UserDirectory lists accounts.
type UserDirectory interface {
	Users(ctx context.Context) []domain.User
	User(ctx context.Context, id int64) (*domain.User, error)
}

type UserHandler struct {
	users UserDirectory
}

func NewUserHandler(users UserDirectory) *UserHandler {
	return &UserHandler{users: users}
}

// List returns every user.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Router       /users/ [get]
func (h *UserHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.users.Users(c.Request().Context()))
}

// Get returns one user.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.users.User(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
