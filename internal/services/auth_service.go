package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/scantech/team-tasks/internal/models"
	"github.com/scantech/team-tasks/internal/repository"
	"github.com/scantech/team-tasks/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// AuthService handles authentication against the team roster.
type AuthService struct {
	roster    repository.RosterRepository
	jwtSecret string
	tokenTTL  time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time // token id -> expiry
}

// NewAuthService creates a new AuthService.
func NewAuthService(roster repository.RosterRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		roster:    roster,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		revoked:   make(map[string]time.Time),
	}
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user with a bearer token.
func (s *AuthService) Login(input LoginInput) (*models.User, string, error) {
	user, err := s.roster.FindByEmail(strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(s.jwtSecret, *user, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Authenticate resolves a bearer token to a roster user.
func (s *AuthService) Authenticate(token string) (*models.User, error) {
	claims, err := utils.ParseToken(s.jwtSecret, token)
	if err != nil {
		return nil, err
	}
	if s.isRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return s.GetUser(claims.UserID)
}

// RevokeToken rejects token until it expires. Invalid tokens are ignored.
func (s *AuthService) RevokeToken(token string) {
	claims, err := utils.ParseToken(s.jwtSecret, token)
	if err != nil || claims.ID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, expiry := range s.revoked {
		if now.After(expiry) {
			delete(s.revoked, id)
		}
	}
	s.revoked[claims.ID] = claims.ExpiresAt.Time
}

func (s *AuthService) isRevoked(tokenID string) bool {
	if tokenID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[tokenID]
	return ok
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.roster.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}
