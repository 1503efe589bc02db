package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/flowtask/flowtask/internal/core/domain"
	"github.com/flowtask/flowtask/internal/core/ports"
)

// ListTasks fetches GET /tasks/ with the optional status and assignee filters.
func (c *Client) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]domain.Task, error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.AssignedTo != 0 {
		query.Set("assigned_to", strconv.FormatInt(filter.AssignedTo, 10))
	}

	var tasks []domain.Task
	if err := c.do(ctx, request{
		endpoint: "list_tasks",
		method:   http.MethodGet,
		path:     "/tasks/",
		query:    query,
		out:      &tasks,
	}); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, request{
		endpoint: "get_task",
		method:   http.MethodGet,
		path:     taskPath(id),
		out:      &task,
	}); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, request{
		endpoint: "create_task",
		method:   http.MethodPost,
		path:     "/tasks/",
		body:     draft,
		out:      &task,
	}); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id int64, draft domain.TaskDraft) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, request{
		endpoint: "update_task",
		method:   http.MethodPut,
		path:     taskPath(id),
		body:     draft,
		out:      &task,
	}); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask issues DELETE /tasks/{id}; the backend answers 204.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		endpoint: "delete_task",
		method:   http.MethodDelete,
		path:     taskPath(id),
	})
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}
