package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/scantech/team-tasks/internal/dto"
	"github.com/scantech/team-tasks/internal/models"
	"github.com/scantech/team-tasks/internal/persistence"
	"github.com/scantech/team-tasks/internal/repository"
)

type fakeAuth struct {
	token      string
	me         *models.User
	meErr      error
	logoutErr  error
	loginCalls int
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*dto.LoginResponse, error) {
	f.loginCalls++
	if password != "leader123" {
		return nil, errors.New("Invalid credentials")
	}
	return &dto.LoginResponse{
		Token: "tok-" + email,
		User:  models.User{ID: 5, Name: "Team Leader", Email: email, Role: models.RoleTeamLeader},
	}, nil
}

func (f *fakeAuth) Logout(context.Context) error { return f.logoutErr }

func (f *fakeAuth) CurrentUser(context.Context) (*models.User, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.me, nil
}

func (f *fakeAuth) SetToken(token string) { f.token = token }

func setupSessionEnv(t *testing.T) *persistence.SnapshotStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&repository.Snapshot{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return persistence.NewSnapshotStore(repository.NewSnapshotRepository(db))
}

func TestLoginPersistsAcrossRestore(t *testing.T) {
	snapshots := setupSessionEnv(t)
	ctx := context.Background()

	auth := &fakeAuth{}
	s := New(auth, snapshots)
	user, err := s.Login(ctx, "leader@scantech.com", "leader123")
	require.NoError(t, err)
	assert.True(t, user.IsTeamLeader())
	assert.Equal(t, "tok-leader@scantech.com", auth.token)

	// A new process restores the session; the refresh fails so the persisted user stays
	restoredAuth := &fakeAuth{meErr: errors.New("offline")}
	restored := New(restoredAuth, snapshots)
	require.NoError(t, restored.Restore(ctx))

	current, ok := restored.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "leader@scantech.com", current.Email)
	assert.Equal(t, "tok-leader@scantech.com", restored.Token())
	assert.Equal(t, "tok-leader@scantech.com", restoredAuth.token)
	assert.True(t, restored.IsTeamLeader())
}

func TestRestoreRefreshesUser(t *testing.T) {
	snapshots := setupSessionEnv(t)
	ctx := context.Background()

	require.NoError(t, snapshots.SaveToken(ctx, "tok"))
	require.NoError(t, snapshots.SaveCurrentUser(ctx, &models.User{ID: 2, Name: "Old Name"}))

	s := New(&fakeAuth{me: &models.User{ID: 2, Name: "Clirim Sopa", Role: models.RoleTeamMember}}, snapshots)
	require.NoError(t, s.Restore(ctx))

	current, ok := s.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "Clirim Sopa", current.Name)
	assert.False(t, s.IsTeamLeader())

	persisted, err := snapshots.LoadCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Clirim Sopa", persisted.Name)
}

func TestRestoreWithoutToken(t *testing.T) {
	s := New(&fakeAuth{meErr: errors.New("must not be called")}, setupSessionEnv(t))
	require.NoError(t, s.Restore(context.Background()))

	_, err := s.RequireUser()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestLoginFailureKeepsState(t *testing.T) {
	s := New(&fakeAuth{}, setupSessionEnv(t))

	_, err := s.Login(context.Background(), "leader@scantech.com", "wrong")
	assert.Error(t, err)
	_, ok := s.CurrentUser()
	assert.False(t, ok)
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	snapshots := setupSessionEnv(t)
	ctx := context.Background()
	auth := &fakeAuth{logoutErr: errors.New("offline")}
	s := New(auth, snapshots)

	_, err := s.Login(ctx, "leader@scantech.com", "leader123")
	require.NoError(t, err)
	require.NoError(t, s.Logout(ctx))

	_, ok := s.CurrentUser()
	assert.False(t, ok)
	assert.Empty(t, s.Token())
	assert.Empty(t, auth.token)

	token, err := snapshots.LoadToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}
