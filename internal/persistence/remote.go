package persistence

import (
	"context"
	"fmt"
	"log"

	"github.com/scantech/team-tasks/internal/dto"
	"github.com/scantech/team-tasks/internal/models"
	"github.com/scantech/team-tasks/internal/repository"
)

// TaskAPI is the subset of the REST client used by RemoteBackend.
type TaskAPI interface {
	TeamMembers(ctx context.Context) ([]models.User, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	CreateTask(ctx context.Context, req dto.CreateTaskRequest) (*models.Task, error)
	UpdateTask(ctx context.Context, id uint64, req dto.UpdateTaskRequest) (*models.Task, error)
	UpdateStatus(ctx context.Context, id uint64, req dto.UpdateStatusRequest) (*models.Task, error)
	UpdateAssignee(ctx context.Context, id uint64, assigneeID uint64) (*models.Task, error)
	DeleteTask(ctx context.Context, id uint64) error
	AddComment(ctx context.Context, taskID uint64, text string) (*models.Task, error)
	UpdateComment(ctx context.Context, taskID uint64, commentID, text string) (*models.Task, error)
	DeleteComment(ctx context.Context, taskID uint64, commentID string) (*models.Task, error)
}

// RemoteBackend treats the remote API as the source of truth and mirrors
// the committed collection into the local snapshot.
type RemoteBackend struct {
	api       TaskAPI
	snapshots *SnapshotStore
}

func NewRemoteBackend(api TaskAPI, snapshots *SnapshotStore) *RemoteBackend {
	return &RemoteBackend{api: api, snapshots: snapshots}
}

// Load fetches the roster and tasks. Either one falls back independently:
// the roster to the default team members, the tasks to the local snapshot.
func (b *RemoteBackend) Load(ctx context.Context) (State, error) {
	var state State

	members, err := b.api.TeamMembers(ctx)
	if err != nil {
		log.Printf("Failed to fetch team members, using default roster: %v", err)
		members = repository.DefaultTeamMembers()
	}
	state.Members = members

	tasks, err := b.api.ListTasks(ctx)
	if err != nil {
		log.Printf("Failed to fetch tasks, using local snapshot: %v", err)
		tasks, err = b.snapshots.LoadTasks(ctx)
		if err != nil {
			return State{}, fmt.Errorf("failed to load local snapshot: %w", err)
		}
	}
	state.Tasks = tasks

	next, err := b.snapshots.LoadNextTaskID(ctx)
	if err != nil {
		log.Printf("Failed to load task id counter: %v", err)
	}
	state.NextTaskID = next

	return state, nil
}

func (b *RemoteBackend) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	req := dto.CreateTaskRequest{
		Title:       task.Title,
		Description: task.Description,
		AssigneeID:  task.AssigneeID,
		Priority:    task.Priority,
	}
	if task.DueDate != nil {
		req.DueDate = &dto.Date{Time: *task.DueDate}
	}
	updated, err := b.api.CreateTask(ctx, req)
	return remoteResult("create task", updated, err)
}

func (b *RemoteBackend) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	req := dto.UpdateTaskRequest{
		Title:       &task.Title,
		Description: &task.Description,
		Priority:    &task.Priority,
		DueDate:     dto.NewNullableDate(task.DueDate),
	}
	updated, err := b.api.UpdateTask(ctx, task.ID, req)
	return remoteResult("update task", updated, err)
}

func (b *RemoteBackend) UpdateStatus(ctx context.Context, task models.Task, comment string) (models.Task, error) {
	req := dto.UpdateStatusRequest{Status: task.Status, Comment: comment}
	updated, err := b.api.UpdateStatus(ctx, task.ID, req)
	return remoteResult("update task status", updated, err)
}

func (b *RemoteBackend) UpdateAssignee(ctx context.Context, task models.Task) (models.Task, error) {
	updated, err := b.api.UpdateAssignee(ctx, task.ID, task.AssigneeID)
	return remoteResult("update task assignee", updated, err)
}

func (b *RemoteBackend) DeleteTask(ctx context.Context, taskID uint64) error {
	if err := b.api.DeleteTask(ctx, taskID); err != nil {
		return fmt.Errorf("%w: delete task: %w", ErrRemote, err)
	}
	return nil
}

func (b *RemoteBackend) AddComment(ctx context.Context, task models.Task, comment models.Comment) (models.Task, error) {
	updated, err := b.api.AddComment(ctx, task.ID, comment.Text)
	return remoteResult("add comment", updated, err)
}

func (b *RemoteBackend) UpdateComment(ctx context.Context, task models.Task, comment models.Comment) (models.Task, error) {
	updated, err := b.api.UpdateComment(ctx, task.ID, comment.ID, comment.Text)
	return remoteResult("update comment", updated, err)
}

func (b *RemoteBackend) DeleteComment(ctx context.Context, task models.Task, commentID string) (models.Task, error) {
	updated, err := b.api.DeleteComment(ctx, task.ID, commentID)
	return remoteResult("delete comment", updated, err)
}

func (b *RemoteBackend) Persist(ctx context.Context, tasks []models.Task, nextTaskID uint64) error {
	return b.snapshots.SaveCollection(ctx, tasks, nextTaskID)
}

func remoteResult(op string, task *models.Task, err error) (models.Task, error) {
	if err != nil {
		return models.Task{}, fmt.Errorf("%w: %s: %w", ErrRemote, op, err)
	}
	if task == nil {
		return models.Task{}, fmt.Errorf("%w: %s: empty response", ErrRemote, op)
	}
	return task.Clone(), nil
}
