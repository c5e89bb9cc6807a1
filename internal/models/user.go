package models

type UserRole string

const (
	RoleTeamLeader UserRole = "team_leader"
	RoleTeamMember UserRole = "team_member"
)

type User struct {
	ID           uint64   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Email        string   `json:"email" yaml:"email"`
	Role         UserRole `json:"role" yaml:"role"`
	Avatar       string   `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	PasswordHash string   `json:"-" yaml:"password_hash"`
}

// IsTeamLeader reports whether the user leads the team.
func (u User) IsTeamLeader() bool {
	return u.Role == RoleTeamLeader
}
