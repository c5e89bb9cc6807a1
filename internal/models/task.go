package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusNotStarted  TaskStatus = "not_started"
	TaskStatusInProgress  TaskStatus = "in_progress"
	TaskStatusProblematic TaskStatus = "problematic"
	TaskStatusCompleted   TaskStatus = "completed"
)

// Valid reports whether s is one of the known task statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusProblematic, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID                 uint64       `json:"id"`
	Title              string       `json:"title"`
	Description        string       `json:"description,omitempty"`
	AssigneeID         uint64       `json:"assigneeId"`
	Priority           TaskPriority `json:"priority"`
	DueDate            *time.Time   `json:"dueDate,omitempty"`
	Status             TaskStatus   `json:"status"`
	ProblematicComment string       `json:"problematicComment,omitempty"`
	Comments           []Comment    `json:"comments"`
	CreatedAt          time.Time    `json:"createdAt"`
	CreatedBy          uint64       `json:"createdBy"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// Clone returns a deep copy so callers cannot mutate store-owned slices.
func (t Task) Clone() Task {
	out := t
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	out.Comments = make([]Comment, len(t.Comments))
	for i, c := range t.Comments {
		out.Comments[i] = c.Clone()
	}
	return out
}

// FindComment returns the index of the comment with the given ID, or -1.
func (t *Task) FindComment(commentID string) int {
	for i := range t.Comments {
		if t.Comments[i].ID == commentID {
			return i
		}
	}
	return -1
}
