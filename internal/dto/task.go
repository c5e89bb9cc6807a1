package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/scantech/team-tasks/internal/models"
)

const dateLayout = "2006-01-02"

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the bearer token and the authenticated user
type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// CreateTaskRequest is the body of POST /tasks
type CreateTaskRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	AssigneeID  uint64              `json:"assigneeId"`
	Priority    models.TaskPriority `json:"priority,omitempty"`
	DueDate     *Date               `json:"dueDate,omitempty"`
}

// UpdateTaskRequest is the body of PUT /tasks/:id. Absent fields are left
// unchanged; "dueDate": null clears the due date.
type UpdateTaskRequest struct {
	Title       *string              `json:"title,omitempty"`
	Description *string              `json:"description,omitempty"`
	Priority    *models.TaskPriority `json:"priority,omitempty"`
	DueDate     NullableDate         `json:"dueDate,omitzero"`
}

// UpdateStatusRequest is the body of PATCH /tasks/:id/status
type UpdateStatusRequest struct {
	Status         models.TaskStatus `json:"status"`
	Comment        string            `json:"comment,omitempty"`
	PreviousStatus models.TaskStatus `json:"previousStatus,omitempty"`
}

// UpdateAssigneeRequest is the body of PATCH /tasks/:id/assignee
type UpdateAssigneeRequest struct {
	AssigneeID uint64 `json:"assigneeId"`
}

// CommentRequest is the body of the comment endpoints
type CommentRequest struct {
	Text string `json:"text"`
}

// SendEmailRequest is the body of POST /email/send
type SendEmailRequest struct {
	To      string `json:"to" binding:"required"`
	Subject string `json:"subject" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// SuggestTasksRequest is the body of POST /tasks/suggest
type SuggestTasksRequest struct {
	Text string `json:"text" binding:"required"`
}

// Date is a calendar date that also accepts full RFC3339 timestamps
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.RFC3339))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Ptr returns the date as *time.Time, nil for a nil receiver
func (d *Date) Ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// NullableDate distinguishes an absent field from an explicit null
type NullableDate struct {
	Set   bool
	Value *time.Time
}

// NewNullableDate returns a set NullableDate holding t (nil clears)
func NewNullableDate(t *time.Time) NullableDate {
	return NullableDate{Set: true, Value: t}
}

func (d NullableDate) IsZero() bool {
	return !d.Set
}

func (d NullableDate) MarshalJSON() ([]byte, error) {
	if d.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(d.Value.Format(time.RFC3339))
}

func (d *NullableDate) UnmarshalJSON(b []byte) error {
	d.Set = true
	if string(b) == "null" {
		d.Value = nil
		return nil
	}
	var date Date
	if err := date.UnmarshalJSON(b); err != nil {
		return err
	}
	d.Value = date.Ptr()
	return nil
}

// ParseDate accepts YYYY-MM-DD or RFC3339
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}
