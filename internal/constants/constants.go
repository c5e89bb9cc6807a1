package constants

import "time"

// Context and session keys
const (
	ContextKeyUserID  = "user_id"
	ContextKeyUser    = "current_user"
	ContextKeyTask    = "task"
	SessionCookieName = "team_tasks_session"
)

// Durable snapshot keys
const (
	SnapshotKeyCurrentUser = "currentUser"
	SnapshotKeyAuthToken   = "authToken"
	SnapshotKeyTasks       = "tasks"
	SnapshotKeyNextTaskID  = "nextTaskId"
)

// Authentication
const (
	DefaultTokenTTL = 24 * time.Hour
	TokenIssuer     = "team-tasks"
)

// Notifications
const (
	DefaultTeamLeaderEmail   = "leader@scantech.com"
	DefaultTeamLeaderName    = "Team Leader"
	DefaultNotifySendTimeout = 10 * time.Second
)

// AI task drafting
const (
	MaxAIGeneratedTasks = 20
	MaxAIInputLength    = 8000
)
