// Package persistence decides where task mutations are made durable.
package persistence

import (
	"context"
	"errors"

	"github.com/scantech/team-tasks/internal/models"
)

// ErrRemote wraps every failure of the remote task API. The caller's
// in-memory state must stay unchanged when it is returned.
var ErrRemote = errors.New("remote task API request failed")

// State is what a backend loads at startup. NextTaskID is the lowest id
// never handed out, or 0 when none was persisted.
type State struct {
	Tasks      []models.Task
	Members    []models.User
	NextTaskID uint64
}

// Backend applies mutations computed by the task store. Each method receives
// the candidate task and returns the task to commit.
type Backend interface {
	Load(ctx context.Context) (State, error)

	CreateTask(ctx context.Context, task models.Task) (models.Task, error)
	UpdateTask(ctx context.Context, task models.Task) (models.Task, error)
	UpdateStatus(ctx context.Context, task models.Task, comment string) (models.Task, error)
	UpdateAssignee(ctx context.Context, task models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, taskID uint64) error

	AddComment(ctx context.Context, task models.Task, comment models.Comment) (models.Task, error)
	UpdateComment(ctx context.Context, task models.Task, comment models.Comment) (models.Task, error)
	DeleteComment(ctx context.Context, task models.Task, commentID string) (models.Task, error)

	// Persist writes the whole committed collection and the id counter to
	// durable storage.
	Persist(ctx context.Context, tasks []models.Task, nextTaskID uint64) error
}
