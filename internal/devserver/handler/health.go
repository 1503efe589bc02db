package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flowtask/flowtask/internal/core/ports"
)

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	users UserDirectory
	tasks TaskStore
}

func NewHealthHandler(users UserDirectory, tasks TaskStore) *HealthHandler {
	return &HealthHandler{users: users, tasks: tasks}
}

type healthResponse struct {
	Status string `json:"status"`
	Users  int    `json:"users"`
	Tasks  int    `json:"tasks"`
}

// Liveness reports that the process is up along with the store sizes.
//
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  healthResponse
// @Router       /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, healthResponse{
		Status: "ok",
		Users:  len(h.users.Users(ctx)),
		Tasks:  len(h.tasks.Tasks(ctx, ports.TaskFilter{})),
	})
}
