package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/flowtask/flowtask/internal/core/domain"
	"github.com/flowtask/flowtask/internal/core/ports"
	"github.com/flowtask/flowtask/internal/metrics"
)

type stubTokens struct {
	token string
	err   error
}

func (s *stubTokens) LoadToken(context.Context) (string, error) {
	return s.token, s.err
}

func newTestClient(t *testing.T, e *echo.Echo, tokens ports.TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL}, tokens, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestClient_AttachesPersistedToken(t *testing.T) {
	e := echo.New()
	e.GET("/auth/me", func(c echo.Context) error {
		if got := c.Request().Header.Get("Authorization"); got != "Bearer stored-token" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if c.Request().Header.Get(headerRequestID) == "" {
			t.Errorf("expected a request id header")
		}
		return c.JSON(http.StatusOK, domain.User{ID: 7, Email: "a@b.com", Name: "Ann"})
	})

	client := newTestClient(t, e, &stubTokens{token: "stored-token"})
	user, err := client.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if user.ID != 7 || user.Email != "a@b.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestClient_WithTokenOverridesStore(t *testing.T) {
	e := echo.New()
	e.GET("/auth/me", func(c echo.Context) error {
		if got := c.Request().Header.Get("Authorization"); got != "Bearer fresh" {
			t.Errorf("unexpected authorization header %q", got)
		}
		return c.JSON(http.StatusOK, domain.User{ID: 1})
	})

	client := newTestClient(t, e, &stubTokens{token: "stale"})
	if _, err := client.CurrentUser(ports.WithBearerToken(context.Background(), "fresh")); err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	e := echo.New()
	e.POST("/auth/login-json", func(c echo.Context) error {
		if got := c.Request().Header.Get("Authorization"); got != "" {
			t.Errorf("expected no authorization header, got %q", got)
		}
		var creds domain.Credentials
		if err := c.Bind(&creds); err != nil {
			return err
		}
		if creds.Email != "a@b.com" || creds.Password != "pw" {
			t.Errorf("unexpected credentials: %+v", creds)
		}
		return c.JSON(http.StatusOK, domain.AuthToken{AccessToken: "tok", TokenType: "bearer"})
	})

	client := newTestClient(t, e, &stubTokens{err: errors.New("disk on fire")})
	token, err := client.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token.AccessToken != "tok" {
		t.Fatalf("unexpected token: %+v", token)
	}
}

func TestClient_UnauthorizedNotifiesThenPropagates(t *testing.T) {
	e := echo.New()
	e.GET("/tasks/", func(c echo.Context) error {
		return c.JSON(http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
	})

	client := newTestClient(t, e, &stubTokens{token: "expired"})

	var mu sync.Mutex
	var order []string
	client.OnUnauthorized(func(context.Context) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, "first")
	})
	client.OnUnauthorized(func(context.Context) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, "second")
	})

	before := testutil.ToFloat64(metrics.UnauthorizedTotal)

	_, err := client.ListTasks(context.Background(), ports.TaskFilter{})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Detail != "Could not validate credentials" {
		t.Fatalf("expected detail to be decoded, got %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("handlers not run in order: %v", order)
	}
	if got := testutil.ToFloat64(metrics.UnauthorizedTotal) - before; got != 1 {
		t.Fatalf("expected unauthorized counter +1, got %v", got)
	}
}

func TestClient_ValidationDetail(t *testing.T) {
	e := echo.New()
	e.POST("/auth/register", func(c echo.Context) error {
		return c.JSON(http.StatusBadRequest, map[string]string{"detail": "Email already registered"})
	})
	e.POST("/tasks/", func(c echo.Context) error {
		return c.JSONBlob(http.StatusUnprocessableEntity,
			[]byte(`{"detail":[{"loc":["body","title"],"msg":"field required"},{"loc":["body","status"],"msg":"invalid status"}]}`))
	})

	client := newTestClient(t, e, nil)

	_, err := client.Register(context.Background(), domain.Registration{Email: "a@b.com"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if msg := domain.UserMessage(err, "Registration"); msg != "Email already registered" {
		t.Fatalf("unexpected user message %q", msg)
	}

	_, err = client.CreateTask(context.Background(), domain.NewTaskDraft())
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Detail != "field required; invalid status" {
		t.Fatalf("unexpected detail %q", apiErr.Detail)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := NewClient(Config{BaseURL: base}, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.ListUsers(context.Background())
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("transport error must not look like an auth failure")
	}
}

func TestClient_ListTasksQuery(t *testing.T) {
	e := echo.New()
	e.GET("/tasks/", func(c echo.Context) error {
		if got := c.QueryParam("status"); got != "In progress" {
			t.Errorf("unexpected status filter %q", got)
		}
		if got := c.QueryParam("assigned_to"); got != "3" {
			t.Errorf("unexpected assignee filter %q", got)
		}
		return c.JSON(http.StatusOK, []domain.Task{{ID: 1, Title: "a", Status: domain.StatusInProgress}})
	})
	e.GET("/users/:id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, domain.User{ID: 3, Name: "Cy"})
	})

	client := newTestClient(t, e, nil)
	tasks, err := client.ListTasks(context.Background(), ports.TaskFilter{Status: domain.StatusInProgress, AssignedTo: 3})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Status != domain.StatusInProgress {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}

	user, err := client.GetUser(context.Background(), 3)
	if err != nil || user.Name != "Cy" {
		t.Fatalf("GetUser: %+v, %v", user, err)
	}
}

func TestClient_UnknownStatusIsUnexpected(t *testing.T) {
	e := echo.New()
	e.GET("/tasks/", func(c echo.Context) error {
		return c.JSONBlob(http.StatusOK,
			[]byte(`[{"id":1,"title":"x","status":"Blocked","created_at":"2024-05-01T09:30:00Z"}]`))
	})

	client := newTestClient(t, e, nil)
	tasks, err := client.ListTasks(context.Background(), ports.TaskFilter{})
	if !errors.Is(err, domain.ErrUnexpected) || !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected an unexpected-payload error, got %v", err)
	}
	if tasks != nil {
		t.Fatalf("no tasks must be returned, got %+v", tasks)
	}
	if msg := domain.UserMessage(err, "Loading tasks"); msg != "Loading tasks failed. Please try again." {
		t.Fatalf("unexpected user message %q", msg)
	}
}

func TestClient_UpdateSendsClearedFieldsAsNull(t *testing.T) {
	var body map[string]json.RawMessage
	e := echo.New()
	e.PUT("/tasks/:id", func(c echo.Context) error {
		if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, domain.Task{ID: 5, Title: "t", Status: domain.StatusTodo})
	})

	client := newTestClient(t, e, nil)
	draft := domain.NewTaskDraft()
	draft.Title = "t"
	if _, err := client.UpdateTask(context.Background(), 5, draft); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	for _, field := range []string{"description", "deadline", "assigned_user_id", "attachment_url"} {
		raw, ok := body[field]
		if !ok || string(raw) != "null" {
			t.Errorf("%s: want explicit null, got %q (present=%v)", field, raw, ok)
		}
	}
	if _, ok := body["created_by_id"]; ok {
		t.Errorf("an unset creator must be omitted")
	}
}

func TestClient_TaskMutations(t *testing.T) {
	var deleted []string
	e := echo.New()
	e.PUT("/tasks/:id", func(c echo.Context) error {
		var draft domain.TaskDraft
		if err := c.Bind(&draft); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, domain.Task{ID: 9, Title: draft.Title, Status: draft.Status})
	})
	e.GET("/tasks/:id", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, map[string]string{"detail": "Task not found"})
	})
	e.DELETE("/tasks/:id", func(c echo.Context) error {
		deleted = append(deleted, c.Param("id"))
		return c.NoContent(http.StatusNoContent)
	})

	client := newTestClient(t, e, nil)

	draft := domain.NewTaskDraft()
	draft.Title = "Ship it"
	task, err := client.UpdateTask(context.Background(), 9, draft.WithStatus(domain.StatusDone))
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if task.Status != domain.StatusDone || task.Title != "Ship it" {
		t.Fatalf("unexpected task: %+v", task)
	}

	if _, err := client.GetTask(context.Background(), 9); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := client.DeleteTask(context.Background(), 7); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if len(deleted) != 1 || deleted[0] != "7" {
		t.Fatalf("expected exactly one DELETE /tasks/7, got %v", deleted)
	}
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	if _, err := NewClient(Config{BaseURL: "localhost:8000"}, nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for url without scheme")
	}
}
