package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/scantech/team-tasks/internal/models"
)

func TestDefaultRoster(t *testing.T) {
	users, err := DefaultRoster("boss@scantech.com", "Boss")
	require.NoError(t, err)
	require.Len(t, users, 5)

	roster := NewRosterRepository(users)

	leader, err := roster.FindByID(DefaultLeaderID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeamLeader, leader.Role)
	assert.Equal(t, "Boss", leader.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(leader.PasswordHash), []byte(DefaultLeaderPassword)))

	member, err := roster.FindByEmail("  CLIRIM@scantech.com ")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), member.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(DefaultMemberPassword)))

	_, err = roster.FindByID(42)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRosterRepository_ListIsACopy(t *testing.T) {
	roster := NewRosterRepository(DefaultTeamMembers())

	users := roster.List()
	users[0].Name = "changed"

	assert.Equal(t, "Vesa Mexhuani", roster.List()[0].Name)
}

func TestLoadRosterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	content := `members:
  - id: 10
    name: Ada
    email: ada@example.com
    role: team_leader
    password_hash: "$2a$10$abc"
  - id: 11
    name: Linus
    email: linus@example.com
    role: team_member
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	users, err := LoadRosterFile(path)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Ada", users[0].Name)
	assert.Equal(t, "$2a$10$abc", users[0].PasswordHash)
	assert.Equal(t, models.RoleTeamMember, users[1].Role)
}

func TestLoadRosterFile_RejectsDuplicateIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	content := `members:
  - {id: 1, name: A, email: a@example.com, role: team_member}
  - {id: 1, name: B, email: b@example.com, role: team_member}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := LoadRosterFile(path)
	assert.ErrorContains(t, err, "duplicate roster id 1")
}
