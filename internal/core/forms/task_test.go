package forms

import (
	"errors"
	"testing"

	"github.com/flowtask/flowtask/internal/core/domain"
)

func TestValidateTaskDraft(t *testing.T) {
	draft := domain.NewTaskDraft()
	draft.Title = "Write report"
	if err := ValidateTaskDraft(draft); err != nil {
		t.Fatalf("expected valid draft, got %v", err)
	}

	link := "https://files.example.com/report.pdf"
	draft.AttachmentURL = &link
	if err := ValidateTaskDraft(draft); err != nil {
		t.Fatalf("expected valid attachment, got %v", err)
	}

	bad := "not a url"
	draft.AttachmentURL = &bad
	var ve ValidationErrors
	if err := ValidateTaskDraft(draft); !errors.As(err, &ve) || ve.Message("attachment_url") == "" {
		t.Fatalf("expected attachment_url error, got %v", err)
	}

	untitled := domain.NewTaskDraft()
	untitled.Status = "Blocked"
	err := ValidateTaskDraft(untitled)
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if ve.Message("title") != "title is required" {
		t.Fatalf("unexpected title message %q", ve.Message("title"))
	}
	if ve.Message("status") != "status must be one of: To do, In progress, Done" {
		t.Fatalf("unexpected status message %q", ve.Message("status"))
	}
}
