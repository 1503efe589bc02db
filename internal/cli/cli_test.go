package cli

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/flowtask/flowtask/internal/devserver"
	"github.com/flowtask/flowtask/internal/devserver/backend"
	"github.com/flowtask/flowtask/internal/infrastructure/config"
	"github.com/flowtask/flowtask/internal/infrastructure/db/sqlite"
)

// harness runs the CLI against an in-process development server. The state
// database survives between runs like it does between real invocations.
type harness struct {
	t         *testing.T
	url       string
	statePath string
}

func newHarness(t *testing.T) *harness {
	h := &harness{t: t, statePath: filepath.Join(t.TempDir(), "state.db")}
	h.restartServer("test-secret")
	return h
}

// restartServer swaps in a fresh server; tokens from the old one no longer
// validate when the secret changes.
func (h *harness) restartServer(secret string) {
	h.t.Helper()
	reg := prometheus.NewRegistry()
	e, err := devserver.NewRouter(backend.New(secret, time.Hour), zerolog.Nop(), devserver.Options{Registerer: reg, Gatherer: reg})
	if err != nil {
		h.t.Fatalf("NewRouter: %v", err)
	}
	srv := httptest.NewServer(e)
	h.t.Cleanup(srv.Close)
	h.url = srv.URL
}

func (h *harness) boot(_ context.Context, stderr io.Writer) (*app, error) {
	cfg := &config.Config{
		APIURL:         h.url,
		RequestTimeout: 5 * time.Second,
		Store:          config.StoreSQLite,
		StatePath:      h.statePath,
		Instance:       "test",
	}
	store, err := sqlite.Open(cfg.StatePath, cfg.Instance)
	if err != nil {
		return nil, err
	}
	return assemble(cfg, store, zerolog.Nop(), stderr)
}

type result struct {
	code int
	out  string
	err  string
}

func (h *harness) run(stdin string, args ...string) result {
	h.t.Helper()
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, streams{in: strings.NewReader(stdin), out: &out, err: &errOut}, h.boot, "test")
	return result{code: code, out: out.String(), err: errOut.String()}
}

func (h *harness) mustRun(stdin string, args ...string) string {
	h.t.Helper()
	r := h.run(stdin, args...)
	if r.code != 0 {
		h.t.Fatalf("%v exited %d: %s", args, r.code, r.err)
	}
	return r.out
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Fatalf("output does not contain %q:\n%s", want, got)
	}
}

func TestCLI_TaskLifecycle(t *testing.T) {
	h := newHarness(t)

	r := h.run("", "whoami")
	if r.code != 1 {
		t.Fatalf("expected failure before login, got %d", r.code)
	}
	assertContains(t, r.err, `You are not signed in. Run "flowtask login" first.`)

	out := h.mustRun("", "register", "--name", "Ana", "--email", "ana@example.com", "--password", "Secret1!")
	assertContains(t, out, "Welcome, Ana! You are signed in as ana@example.com.")

	assertContains(t, h.mustRun("", "whoami"), "Ana <ana@example.com>")

	out = h.mustRun("", "tasks", "create", "--title", "Write docs", "--assignee", "1", "--deadline", "2030-01-31")
	assertContains(t, out, `Created task #1 "Write docs".`)

	out = h.mustRun("", "tasks", "list")
	assertContains(t, out, "Assigned to me: 1   Created by me: 1   Completed: 0")
	assertContains(t, out, "Write docs")
	assertContains(t, out, "2030-01-31")
	assertContains(t, out, "Showing 1 of 1 tasks.")

	assertContains(t, h.mustRun("", "tasks", "status", "1", "done"), "Task #1 is now Done.")
	assertContains(t, h.mustRun("", "profile"), "Completed: 1")

	out = h.mustRun("", "tasks", "list", "--status", "todo")
	assertContains(t, out, "No tasks to show.")

	out = h.mustRun("", "tasks", "show", "#1")
	assertContains(t, out, "Assigned to: Ana (you)")

	r = h.run("n\n", "tasks", "delete", "1")
	if r.code != 0 {
		t.Fatalf("declined delete failed: %s", r.err)
	}
	assertContains(t, r.out, "Nothing deleted.")
	assertContains(t, r.err, "Are you sure you want to delete task #1? [y/N]")

	assertContains(t, h.mustRun("", "tasks", "delete", "1", "--yes"), "Deleted task #1.")
	assertContains(t, h.mustRun("", "tasks", "ls"), "No tasks to show.")

	r = h.run("", "tasks", "show", "1")
	if r.code != 1 {
		t.Fatalf("expected missing task to fail")
	}
	assertContains(t, r.err, "task not found: #1")

	assertContains(t, h.mustRun("", "logout"), "Signed out.")
	r = h.run("", "tasks", "list")
	assertContains(t, r.err, "You are not signed in.")
}

func TestCLI_LoginPromptsAndErrors(t *testing.T) {
	h := newHarness(t)
	h.mustRun("", "register", "-n", "Ana", "-e", "ana@example.com", "-p", "Secret1!")
	h.mustRun("", "logout")

	r := h.run("", "login", "-e", "ana@example.com", "-p", "wrong")
	if r.code != 1 {
		t.Fatalf("expected bad login to fail")
	}
	assertContains(t, r.err, "Incorrect email or password")

	r = h.run("ana@example.com\nSecret1!\n", "login")
	if r.code != 0 {
		t.Fatalf("prompted login failed: %s", r.err)
	}
	assertContains(t, r.out, "Signed in as Ana <ana@example.com>.")

	r = h.run("", "register", "-n", "Ana", "-e", "ana@example.com", "-p", "Secret1!")
	assertContains(t, r.err, "Email already registered")

	r = h.run("", "register", "-n", "Weak", "-e", "weak@example.com", "-p", "weak")
	if r.code != 1 {
		t.Fatalf("weak password must be rejected")
	}
	assertContains(t, r.err, "Password strength: Very Weak (20%)")
	assertContains(t, r.err, "[ ] One uppercase letter")
}

func TestCLI_ExpiredSessionNoticeShownOnce(t *testing.T) {
	h := newHarness(t)
	h.mustRun("", "register", "-n", "Ana", "-e", "ana@example.com", "-p", "Secret1!")

	h.restartServer("rotated-secret")

	r := h.run("", "tasks", "list")
	if r.code != 1 {
		t.Fatalf("expected rejected session to fail")
	}
	if n := strings.Count(r.err, "Your session has expired."); n != 1 {
		t.Fatalf("expected the expiry notice once, got %d:\n%s", n, r.err)
	}
	if strings.Contains(r.err, "You are not signed in") {
		t.Fatalf("expiry must not be reported twice:\n%s", r.err)
	}

	r = h.run("", "whoami")
	assertContains(t, r.err, "You are not signed in.")
	if strings.Contains(r.err, "expired") {
		t.Fatalf("cleared session must not report expiry again:\n%s", r.err)
	}
}

func TestCLI_UsageErrors(t *testing.T) {
	h := newHarness(t)
	h.mustRun("", "register", "-n", "Ana", "-e", "ana@example.com", "-p", "Secret1!")

	r := h.run("", "tasks", "status", "1", "blocked")
	assertContains(t, r.err, `invalid task status`)

	r = h.run("", "tasks", "show", "abc")
	assertContains(t, r.err, `Error: invalid task id "abc"`)
}
