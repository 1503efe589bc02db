package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/flowtask/flowtask/internal/core/domain"
	"github.com/flowtask/flowtask/internal/core/forms"
	"github.com/flowtask/flowtask/internal/core/ports"
	"github.com/flowtask/flowtask/internal/metrics"
)

// SessionReader is the slice of the session service the task service needs.
type SessionReader interface {
	Current() domain.Session
}

// TaskService caches the task and user collections and runs the task
// mutations. Every successful mutation invalidates and refetches "tasks";
// nothing is merged optimistically.
type TaskService struct {
	tasksAPI ports.TaskGateway
	usersAPI ports.UserGateway
	session  SessionReader
	log      zerolog.Logger

	tasks *queryCache[[]domain.Task]
	users *queryCache[[]domain.User]
}

var _ ports.TaskService = (*TaskService)(nil)

func NewTaskService(tasksAPI ports.TaskGateway, usersAPI ports.UserGateway, session SessionReader, log zerolog.Logger) *TaskService {
	return &TaskService{
		tasksAPI: tasksAPI,
		usersAPI: usersAPI,
		session:  session,
		log:      log.With().Str("component", "tasks").Logger(),
		tasks:    newQueryCache[[]domain.Task]("tasks"),
		users:    newQueryCache[[]domain.User]("users"),
	}
}

// Tasks returns the cached collection, fetching it on first use.
func (s *TaskService) Tasks(ctx context.Context) ([]domain.Task, error) {
	return s.tasks.get(ctx, s.fetchTasks)
}

// Refresh refetches the collection.
func (s *TaskService) Refresh(ctx context.Context) ([]domain.Task, error) {
	return s.tasks.refresh(ctx, s.fetchTasks)
}

// Users returns the cached user list used to resolve assignees and creators.
func (s *TaskService) Users(ctx context.Context) ([]domain.User, error) {
	return s.users.get(ctx, s.usersAPI.ListUsers)
}

// Get prefers the cached copy and falls back to GET /tasks/{id}.
func (s *TaskService) Get(ctx context.Context, id int64) (*domain.Task, error) {
	if cached, ok := s.tasks.peek(); ok {
		for i := range cached {
			if cached[i].ID == id {
				t := cached[i]
				return &t, nil
			}
		}
	}
	task, err := s.tasksAPI.GetTask(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: #%d", domain.ErrTaskNotFound, id)
	}
	return task, err
}

// Create stamps the current user as creator and submits the draft.
func (s *TaskService) Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	if uid := s.session.Current().UserID(); uid != 0 {
		draft.CreatedByID = &uid
	}
	if err := forms.ValidateTaskDraft(draft); err != nil {
		return nil, err
	}

	task, err := s.tasksAPI.CreateTask(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, "create")
	s.log.Info().Int64("task_id", task.ID).Msg("task created")
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, id int64, draft domain.TaskDraft) (*domain.Task, error) {
	if err := forms.ValidateTaskDraft(draft); err != nil {
		return nil, err
	}

	task, err := s.tasksAPI.UpdateTask(ctx, id, draft)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, "update")
	s.log.Info().Int64("task_id", id).Msg("task updated")
	return task, nil
}

// ChangeStatus moves a task to status. Any status may move to any other.
func (s *TaskService) ChangeStatus(ctx context.Context, id int64, status domain.TaskStatus) (*domain.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, id, domain.DraftFromTask(*current).WithStatus(status))
}

// Delete asks confirm first. A declined prompt issues no backend call and
// returns false.
func (s *TaskService) Delete(ctx context.Context, id int64, confirm ports.Confirmer) (bool, error) {
	if confirm == nil || !confirm.Confirm(fmt.Sprintf("Are you sure you want to delete task #%d?", id)) {
		s.log.Debug().Int64("task_id", id).Msg("delete not confirmed")
		return false, nil
	}

	if err := s.tasksAPI.DeleteTask(ctx, id); err != nil {
		return false, err
	}
	s.invalidate(ctx, "delete")
	s.log.Info().Int64("task_id", id).Msg("task deleted")
	return true, nil
}

func (s *TaskService) fetchTasks(ctx context.Context) ([]domain.Task, error) {
	return s.tasksAPI.ListTasks(ctx, ports.TaskFilter{})
}

// invalidate drops the task collection and refetches it. A failed refetch
// leaves the cache empty so the next read tries again.
func (s *TaskService) invalidate(ctx context.Context, mutation string) {
	metrics.CacheInvalidationsTotal.WithLabelValues(mutation).Inc()
	s.tasks.invalidate()
	if _, err := s.tasks.refresh(ctx, s.fetchTasks); err != nil {
		s.log.Warn().Err(err).Str("mutation", mutation).Msg("refetch after mutation failed")
	}
}
