package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Backends may send timestamps without a zone ("2024-05-01T09:30:00") or
// bare dates; both are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats accepted on the wire.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

func parseOptionalTimestamp(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := ParseTimestamp(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	aux := struct {
		*plain
		Deadline  *string `json:"deadline"`
		CreatedAt *string `json:"created_at"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if !t.Status.Valid() {
		return fmt.Errorf("task %d: %w: %q", t.ID, ErrInvalidStatus, t.Status)
	}

	var err error
	if t.Deadline, err = parseOptionalTimestamp(aux.Deadline); err != nil {
		return fmt.Errorf("task deadline: %w", err)
	}
	created, err := parseOptionalTimestamp(aux.CreatedAt)
	if err != nil {
		return fmt.Errorf("task created_at: %w", err)
	}
	t.CreatedAt = time.Time{}
	if created != nil {
		t.CreatedAt = *created
	}
	return nil
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	aux := struct {
		*plain
		CreatedAt *string `json:"created_at"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	created, err := parseOptionalTimestamp(aux.CreatedAt)
	if err != nil {
		return fmt.Errorf("user created_at: %w", err)
	}
	u.CreatedAt = time.Time{}
	if created != nil {
		u.CreatedAt = *created
	}
	return nil
}
