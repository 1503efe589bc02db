package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/flowtask/flowtask/internal/core/domain"
	"github.com/flowtask/flowtask/internal/core/ports"
)

// TaskStore is the task side of the backend.
type TaskStore interface {
	Tasks(ctx context.Context, filter ports.TaskFilter) []domain.Task
	Task(ctx context.Context, id int64) (*domain.Task, error)
	CreateTask(ctx context.Context, draft domain.TaskDraft, createdBy int64) (*domain.Task, error)
	UpdateTask(ctx context.Context, id int64, draft domain.TaskDraft) (*domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

type TaskHandler struct {
	tasks TaskStore
}

func NewTaskHandler(tasks TaskStore) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// List returns tasks, optionally narrowed by status and assignee.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status       query     string  false  "To do, In progress or Done"
// @Param        assigned_to  query     int     false  "Assignee user id"
// @Success      200          {array}   domain.Task
// @Failure      422          {object}  map[string]any
// @Router       /tasks/ [get]
func (h *TaskHandler) List(c echo.Context) error {
	var filter ports.TaskFilter
	if raw := c.QueryParam("status"); raw != "" {
		status := domain.TaskStatus(raw)
		if !status.Valid() {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "status must be one of: To do, In progress, Done")
		}
		filter.Status = status
	}
	if raw := c.QueryParam("assigned_to"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "assigned_to must be an integer")
		}
		filter.AssignedTo = id
	}
	return c.JSON(http.StatusOK, h.tasks.Tasks(c.Request().Context(), filter))
}

// Get returns one task.
//
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Task id"
// @Success      200  {object}  domain.Task
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.Task(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Create stores a task created by the caller.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.TaskDraft  true  "Task"
// @Success      201   {object}  domain.Task
// @Failure      422   {object}  map[string]any
// @Router       /tasks/ [post]
func (h *TaskHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var draft domain.TaskDraft
	if err := c.Bind(&draft); err != nil {
		return err
	}
	if err := c.Validate(&draft); err != nil {
		return err
	}

	task, err := h.tasks.CreateTask(c.Request().Context(), draft, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// Update replaces the editable fields of a task.
//
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int               true  "Task id"
// @Param        body  body      domain.TaskDraft  true  "Task"
// @Success      200   {object}  domain.Task
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]any
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var draft domain.TaskDraft
	if err := c.Bind(&draft); err != nil {
		return err
	}
	if err := c.Validate(&draft); err != nil {
		return err
	}

	task, err := h.tasks.UpdateTask(c.Request().Context(), id, draft)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Delete removes a task.
//
// @Summary      Delete a task
// @Tags         tasks
// @Security     BearerAuth
// @Param        id   path  int  true  "Task id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.tasks.DeleteTask(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
