package forms

import "github.com/flowtask/flowtask/internal/core/domain"

// ValidateTaskDraft checks a draft before it is submitted.
func ValidateTaskDraft(d domain.TaskDraft) error {
	return validateStruct(d)
}
