package repository

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/scantech/team-tasks/internal/models"
)

// Demo credentials of the built-in roster
const (
	DefaultMemberPassword = "member123"
	DefaultLeaderPassword = "leader123"
	DefaultLeaderID       = 5
)

// StaticRosterRepository serves a fixed roster loaded at startup
type StaticRosterRepository struct {
	users []models.User
}

// NewRosterRepository creates a RosterRepository over users
func NewRosterRepository(users []models.User) RosterRepository {
	copied := make([]models.User, len(users))
	copy(copied, users)
	return &StaticRosterRepository{users: copied}
}

func (r *StaticRosterRepository) List() []models.User {
	users := make([]models.User, len(r.users))
	copy(users, r.users)
	return users
}

func (r *StaticRosterRepository) FindByID(id uint64) (*models.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			user := u
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *StaticRosterRepository) FindByEmail(email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			user := u
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}

// DefaultTeamMembers returns the built-in team members without credentials.
func DefaultTeamMembers() []models.User {
	return []models.User{
		{ID: 1, Name: "Vesa Mexhuani", Role: models.RoleTeamMember, Email: "vesa@scantech.com"},
		{ID: 2, Name: "Clirim Sopa", Role: models.RoleTeamMember, Email: "clirim@scantech.com"},
		{ID: 3, Name: "Shkodran Sopa", Role: models.RoleTeamMember, Email: "shkodran@scantech.com"},
		{ID: 4, Name: "Urim Canhasi", Role: models.RoleTeamMember, Email: "urim@scantech.com"},
	}
}

// DefaultRoster returns the built-in members plus the team leader, with the
// demo passwords hashed.
func DefaultRoster(leaderEmail, leaderName string) ([]models.User, error) {
	memberHash, err := bcrypt.GenerateFromPassword([]byte(DefaultMemberPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash member password: %w", err)
	}
	leaderHash, err := bcrypt.GenerateFromPassword([]byte(DefaultLeaderPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash leader password: %w", err)
	}

	users := DefaultTeamMembers()
	for i := range users {
		users[i].PasswordHash = string(memberHash)
	}
	users = append(users, models.User{
		ID:           DefaultLeaderID,
		Name:         leaderName,
		Email:        leaderEmail,
		Role:         models.RoleTeamLeader,
		PasswordHash: string(leaderHash),
	})
	return users, nil
}

type rosterFile struct {
	Members []models.User `yaml:"members"`
}

// LoadRosterFile reads a YAML roster of the form `members: [{id, name, email, role, password_hash}]`.
func LoadRosterFile(path string) ([]models.User, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster file: %w", err)
	}
	defer f.Close()

	var roster rosterFile
	if err := yaml.NewDecoder(f).Decode(&roster); err != nil {
		return nil, fmt.Errorf("failed to parse roster file: %w", err)
	}
	if err := validateRoster(roster.Members); err != nil {
		return nil, err
	}
	return roster.Members, nil
}

func validateRoster(users []models.User) error {
	if len(users) == 0 {
		return fmt.Errorf("roster has no members")
	}
	seen := make(map[uint64]struct{}, len(users))
	for _, u := range users {
		if u.ID == 0 {
			return fmt.Errorf("roster member %q has no id", u.Name)
		}
		if _, dup := seen[u.ID]; dup {
			return fmt.Errorf("duplicate roster id %d", u.ID)
		}
		seen[u.ID] = struct{}{}
		if strings.TrimSpace(u.Email) == "" {
			return fmt.Errorf("roster member %d has no email", u.ID)
		}
		if u.Role != models.RoleTeamLeader && u.Role != models.RoleTeamMember {
			return fmt.Errorf("roster member %d has unknown role %q", u.ID, u.Role)
		}
	}
	return nil
}
