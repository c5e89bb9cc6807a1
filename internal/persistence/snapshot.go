package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/scantech/team-tasks/internal/constants"
	"github.com/scantech/team-tasks/internal/models"
	"github.com/scantech/team-tasks/internal/repository"
)

// SnapshotStore reads and writes the durable keys of the application state.
type SnapshotStore struct {
	repo repository.SnapshotRepository
}

func NewSnapshotStore(repo repository.SnapshotRepository) *SnapshotStore {
	return &SnapshotStore{repo: repo}
}

// LoadTasks returns the persisted collection; a missing key is an empty collection.
func (s *SnapshotStore) LoadTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	found, err := s.getJSON(ctx, constants.SnapshotKeyTasks, &tasks)
	if err != nil || !found {
		return nil, err
	}
	return tasks, nil
}

// SaveTasks overwrites the whole collection.
func (s *SnapshotStore) SaveTasks(ctx context.Context, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	return s.setJSON(ctx, constants.SnapshotKeyTasks, tasks)
}

// LoadNextTaskID returns the persisted id counter; a missing key is 0.
func (s *SnapshotStore) LoadNextTaskID(ctx context.Context) (uint64, error) {
	var next uint64
	if _, err := s.getJSON(ctx, constants.SnapshotKeyNextTaskID, &next); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *SnapshotStore) SaveNextTaskID(ctx context.Context, next uint64) error {
	return s.setJSON(ctx, constants.SnapshotKeyNextTaskID, next)
}

// SaveCollection writes the tasks and the id counter that goes with them.
func (s *SnapshotStore) SaveCollection(ctx context.Context, tasks []models.Task, nextTaskID uint64) error {
	if err := s.SaveTasks(ctx, tasks); err != nil {
		return err
	}
	return s.SaveNextTaskID(ctx, nextTaskID)
}

func (s *SnapshotStore) LoadCurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	found, err := s.getJSON(ctx, constants.SnapshotKeyCurrentUser, &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (s *SnapshotStore) SaveCurrentUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return s.repo.Delete(ctx, constants.SnapshotKeyCurrentUser)
	}
	return s.setJSON(ctx, constants.SnapshotKeyCurrentUser, user)
}

func (s *SnapshotStore) LoadToken(ctx context.Context) (string, error) {
	value, err := s.repo.Get(ctx, constants.SnapshotKeyAuthToken)
	if errors.Is(err, repository.ErrSnapshotNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (s *SnapshotStore) SaveToken(ctx context.Context, token string) error {
	if token == "" {
		return s.repo.Delete(ctx, constants.SnapshotKeyAuthToken)
	}
	return s.repo.Set(ctx, constants.SnapshotKeyAuthToken, []byte(token))
}

// ClearSession removes the persisted user and token.
func (s *SnapshotStore) ClearSession(ctx context.Context) error {
	return errors.Join(
		s.repo.Delete(ctx, constants.SnapshotKeyCurrentUser),
		s.repo.Delete(ctx, constants.SnapshotKeyAuthToken),
	)
}

func (s *SnapshotStore) getJSON(ctx context.Context, key string, out any) (bool, error) {
	value, err := s.repo.Get(ctx, key)
	if errors.Is(err, repository.ErrSnapshotNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(value, out); err != nil {
		return false, fmt.Errorf("failed to decode snapshot %q: %w", key, err)
	}
	return true, nil
}

func (s *SnapshotStore) setJSON(ctx context.Context, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %q: %w", key, err)
	}
	return s.repo.Set(ctx, key, value)
}
