package devserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/flowtask/flowtask/internal/devserver/backend"
	"github.com/flowtask/flowtask/internal/devserver/handler"
)

// errorResponse is the error envelope: detail is a message, or a list of
// field violations for 422 responses.
type errorResponse struct {
	Detail any `json:"detail"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known backend errors to their HTTP status codes and messages.
//   - Renders validation failures as a 422 list of field violations.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, detail := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Detail: detail})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, any) {
	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, ve.Violations
	}

	// Echo's own errors (bind failures, 404 from router, auth middleware).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, backend.ErrEmailTaken):
		return http.StatusBadRequest, "Email already registered"
	case errors.Is(err, backend.ErrInvalidCredentials):
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return http.StatusUnauthorized, "Incorrect email or password"
	case errors.Is(err, backend.ErrInvalidToken):
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return http.StatusUnauthorized, "Could not validate credentials"
	case errors.Is(err, backend.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, backend.ErrTaskNotFound):
		return http.StatusNotFound, "Task not found"
	case errors.Is(err, backend.ErrUnknownAssignee):
		return http.StatusBadRequest, "Assigned user does not exist"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Internal server error"
}
