package service

import (
	"fmt"
	"strings"
	"time"

	"sampletrack/internal/domain"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uuid.UUID
	Role   domain.Role
	Name   string
}

func (a Actor) ref() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}

// Publisher pushes realtime events to connected clients.
type Publisher interface {
	Publish(v any)
}

// Event tells clients that a sample or its presence changed.
type Event struct {
	Type     string `json:"type"`
	SampleID string `json:"sample_id"`
	UserID   string `json:"user_id,omitempty"`
	Action   string `json:"action"`
}

// Topic routes the event to clients watching the sample.
func (e Event) Topic() string { return e.SampleID }

const dateLayout = "2006-01-02"

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(field, "must be a valid UUID")
	}
	return id, nil
}

func parseOptionalID(field string, raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := parseID(field, *raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseOptionalDate accepts YYYY-MM-DD; empty clears the value.
func parseOptionalDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be a date (YYYY-MM-DD)")
	}
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrConflict, fmt.Sprintf(format, args...))
}

func strPtr(s string) *string { return &s }

// valueString renders a stored field value for the history table.
func valueString(v any) *string {
	if v == nil {
		return nil
	}
	switch x := v.(type) {
	case string:
		return &x
	case float64:
		s := fmt.Sprintf("%g", x)
		return &s
	default:
		s := fmt.Sprint(x)
		return &s
	}
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
