package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/scantech/team-tasks/internal/models"
	"github.com/scantech/team-tasks/internal/repository"
)

func setupAuthService(t *testing.T) *AuthService {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("leader123"), bcrypt.MinCost)
	require.NoError(t, err)

	roster := repository.NewRosterRepository([]models.User{
		{ID: 5, Name: "Team Leader", Email: "leader@scantech.com", Role: models.RoleTeamLeader, PasswordHash: string(hash)},
	})
	return NewAuthService(roster, "test-secret", time.Hour)
}

func TestAuthService_Login(t *testing.T) {
	svc := setupAuthService(t)

	user, token, err := svc.Login(LoginInput{Email: " Leader@Scantech.com ", Password: "leader123"})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), user.ID)
	assert.NotEmpty(t, token)

	authenticated, err := svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authenticated.ID)
}

func TestAuthService_RevokeToken(t *testing.T) {
	svc := setupAuthService(t)

	_, revoked, err := svc.Login(LoginInput{Email: "leader@scantech.com", Password: "leader123"})
	require.NoError(t, err)
	_, kept, err := svc.Login(LoginInput{Email: "leader@scantech.com", Password: "leader123"})
	require.NoError(t, err)

	svc.RevokeToken(revoked)
	svc.RevokeToken("not-a-token")

	_, err = svc.Authenticate(revoked)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	user, err := svc.Authenticate(kept)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), user.ID)
}

func TestAuthService_LoginRejectsBadCredentials(t *testing.T) {
	svc := setupAuthService(t)

	_, _, err := svc.Login(LoginInput{Email: "leader@scantech.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(LoginInput{Email: "nobody@scantech.com", Password: "leader123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_GetUser(t *testing.T) {
	svc := setupAuthService(t)

	_, err := svc.GetUser(1)
	assert.ErrorIs(t, err, ErrUserNotFound)

	user, err := svc.GetUser(5)
	require.NoError(t, err)
	assert.True(t, user.IsTeamLeader())
}
