// Package session keeps the signed-in user and bearer token of the CLI client.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/scantech/team-tasks/internal/dto"
	"github.com/scantech/team-tasks/internal/models"
	"github.com/scantech/team-tasks/internal/persistence"
)

// ErrNotLoggedIn is returned by operations that need a signed-in user.
var ErrNotLoggedIn = errors.New("not logged in")

// Authenticator is the part of the API client a session needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*dto.LoginResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
	SetToken(token string)
}

type Session struct {
	mu        sync.RWMutex
	auth      Authenticator
	snapshots *persistence.SnapshotStore
	user      *models.User
	token     string
}

func New(auth Authenticator, snapshots *persistence.SnapshotStore) *Session {
	return &Session{auth: auth, snapshots: snapshots}
}

// Restore reloads the persisted session. When a token exists the user is
// refreshed from the server; a failed refresh keeps the persisted user.
func (s *Session) Restore(ctx context.Context) error {
	user, err := s.snapshots.LoadCurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to load current user: %w", err)
	}
	token, err := s.snapshots.LoadToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to load auth token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = user
	s.token = token
	s.auth.SetToken(token)
	if token == "" {
		return nil
	}

	fresh, err := s.auth.CurrentUser(ctx)
	if err != nil {
		log.Printf("Failed to refresh current user: %v", err)
		return nil
	}
	s.user = fresh
	if err := s.snapshots.SaveCurrentUser(ctx, fresh); err != nil {
		log.Printf("Failed to persist current user: %v", err)
	}
	return nil
}

// Login authenticates and persists the user and token.
func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := resp.User
	s.user = &user
	s.token = resp.Token
	s.auth.SetToken(resp.Token)

	if err := s.snapshots.SaveCurrentUser(ctx, s.user); err != nil {
		return nil, fmt.Errorf("failed to persist current user: %w", err)
	}
	if err := s.snapshots.SaveToken(ctx, s.token); err != nil {
		return nil, fmt.Errorf("failed to persist auth token: %w", err)
	}

	out := user
	return &out, nil
}

// Logout ends the session locally even when the server cannot be reached.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.auth.Logout(ctx); err != nil {
		log.Printf("Logout request failed: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.token = ""
	s.auth.SetToken("")
	return s.snapshots.ClearSession(ctx)
}

func (s *Session) CurrentUser() (*models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, false
	}
	user := *s.user
	return &user, true
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) IsTeamLeader() bool {
	user, ok := s.CurrentUser()
	return ok && user.IsTeamLeader()
}

// RequireUser returns the signed-in user or ErrNotLoggedIn.
func (s *Session) RequireUser() (*models.User, error) {
	user, ok := s.CurrentUser()
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return user, nil
}
