package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/flowtask/flowtask/internal/devserver/middleware"
)

// ctxUserID returns the user id injected by the Auth middleware.
func ctxUserID(c echo.Context) (int64, error) {
	id, _ := c.Get(middleware.UserIDKey).(int64)
	if id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	return id, nil
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusUnprocessableEntity, "id must be a positive integer")
	}
	return id, nil
}
