package repository

import (
	"context"
	"errors"

	"github.com/scantech/team-tasks/internal/models"
)

var (
	// ErrSnapshotNotFound is returned when no value is stored under a key.
	ErrSnapshotNotFound = errors.New("snapshot repository: key not found")
	// ErrUserNotFound is returned when the roster has no matching user.
	ErrUserNotFound = errors.New("roster repository: user not found")
)

// SnapshotRepository is a durable string-keyed store of serialized state
type SnapshotRepository interface {
	// Get returns the value stored under key or ErrSnapshotNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set overwrites the value stored under key
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// RosterRepository defines read access to the team roster
type RosterRepository interface {
	// List returns every user on the roster in roster order
	List() []models.User

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email, case-insensitively
	FindByEmail(email string) (*models.User, error)
}
