package persistence

import (
	"context"
	"fmt"

	"github.com/scantech/team-tasks/internal/models"
	"github.com/scantech/team-tasks/internal/repository"
)

// LocalBackend keeps the collection in the snapshot store only.
type LocalBackend struct {
	snapshots *SnapshotStore
	roster    repository.RosterRepository
}

func NewLocalBackend(snapshots *SnapshotStore, roster repository.RosterRepository) *LocalBackend {
	return &LocalBackend{snapshots: snapshots, roster: roster}
}

func (b *LocalBackend) Load(ctx context.Context) (State, error) {
	tasks, err := b.snapshots.LoadTasks(ctx)
	if err != nil {
		return State{}, fmt.Errorf("failed to load tasks: %w", err)
	}
	next, err := b.snapshots.LoadNextTaskID(ctx)
	if err != nil {
		return State{}, fmt.Errorf("failed to load task id counter: %w", err)
	}
	return State{Tasks: tasks, Members: b.roster.List(), NextTaskID: next}, nil
}

func (b *LocalBackend) CreateTask(_ context.Context, task models.Task) (models.Task, error) {
	return task, nil
}

func (b *LocalBackend) UpdateTask(_ context.Context, task models.Task) (models.Task, error) {
	return task, nil
}

func (b *LocalBackend) UpdateStatus(_ context.Context, task models.Task, _ string) (models.Task, error) {
	return task, nil
}

func (b *LocalBackend) UpdateAssignee(_ context.Context, task models.Task) (models.Task, error) {
	return task, nil
}

func (b *LocalBackend) DeleteTask(context.Context, uint64) error {
	return nil
}

func (b *LocalBackend) AddComment(_ context.Context, task models.Task, _ models.Comment) (models.Task, error) {
	return task, nil
}

func (b *LocalBackend) UpdateComment(_ context.Context, task models.Task, _ models.Comment) (models.Task, error) {
	return task, nil
}

func (b *LocalBackend) DeleteComment(_ context.Context, task models.Task, _ string) (models.Task, error) {
	return task, nil
}

func (b *LocalBackend) Persist(ctx context.Context, tasks []models.Task, nextTaskID uint64) error {
	return b.snapshots.SaveCollection(ctx, tasks, nextTaskID)
}
