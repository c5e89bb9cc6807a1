package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/scantech/team-tasks/internal/constants"
)

// Backing strategies for the CLI task store. The server always keeps tasks locally.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Snapshot drivers
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	// Server
	Port    string
	GinMode string

	// Task store
	Backend         string
	SnapshotDriver  string
	SQLitePath      string
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	RedisHost       string
	RedisPort       string
	RedisKeyPrefix  string
	RosterFile      string
	TeamLeaderEmail string
	TeamLeaderName  string

	// Auth
	SessionStore  string
	SessionSecret string
	JWTSecret     string
	TokenTTL      time.Duration

	// Remote API (client role and remote backend)
	APIBaseURL      string
	APITimeout      time.Duration
	ClientStatePath string
	ClientNotify    bool

	// Notifications
	NotifyTimeout  time.Duration
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	SMTPFrom       string
	TelegramToken  string
	TelegramChatID int64

	OpenAIAPIKey string
}

func Load() *Config {
	home, _ := os.UserHomeDir()

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		Backend:         strings.ToLower(getEnv("TASK_BACKEND", BackendRemote)),
		SnapshotDriver:  strings.ToLower(getEnv("SNAPSHOT_DRIVER", DriverSQLite)),
		SQLitePath:      getEnv("SQLITE_PATH", "team_tasks.db"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "3306"),
		DBUser:          getEnv("DB_USER", "taskuser"),
		DBPassword:      getEnv("DB_PASSWORD", "taskpassword"),
		DBName:          getEnv("DB_NAME", "team_tasks"),
		RedisHost:       getEnv("REDIS_HOST", "localhost"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		RedisKeyPrefix:  getEnv("REDIS_KEY_PREFIX", "team_tasks:"),
		RosterFile:      getEnv("ROSTER_FILE", ""),
		TeamLeaderEmail: getEnv("TEAM_LEADER_EMAIL", constants.DefaultTeamLeaderEmail),
		TeamLeaderName:  getEnv("TEAM_LEADER_NAME", constants.DefaultTeamLeaderName),

		SessionStore:  strings.ToLower(getEnv("SESSION_STORE", "cookie")),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		JWTSecret:     getEnv("JWT_SECRET", "default-jwt-secret-change-me"),
		TokenTTL:      getEnvAsDuration("TOKEN_TTL", constants.DefaultTokenTTL),

		APIBaseURL:      strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080/api"), "/"),
		APITimeout:      getEnvAsDuration("API_TIMEOUT", 10*time.Second),
		ClientStatePath: getEnv("CLIENT_STATE_PATH", home+"/.team_tasks.db"),
		ClientNotify:    getEnvAsBool("CLIENT_NOTIFY", false),

		NotifyTimeout:  getEnvAsDuration("NOTIFY_TIMEOUT", constants.DefaultNotifySendTimeout),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:       getEnv("SMTP_FROM", "tasks@scantech.com"),
		TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID: int64(getEnvAsInt("TELEGRAM_CHAT_ID", 0)),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal, BackendRemote:
	default:
		return fmt.Errorf("TASK_BACKEND must be %q or %q, got %q", BackendLocal, BackendRemote, c.Backend)
	}
	switch c.SnapshotDriver {
	case DriverSQLite, DriverMySQL, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("unsupported SNAPSHOT_DRIVER %q", c.SnapshotDriver)
	}
	switch c.SessionStore {
	case "cookie", "redis":
	default:
		return fmt.Errorf("SESSION_STORE must be cookie or redis, got %q", c.SessionStore)
	}
	if c.Backend == BackendRemote && c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required for the remote backend")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

// RedisAddr returns host:port of the redis server.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// SMTPEnabled reports whether outgoing mail is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// TelegramEnabled reports whether the team chat channel is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid integer value for %s", key)
		}
		return i
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Fatalf("invalid boolean value for %s", key)
		}
		return b
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("invalid duration value for %s", key)
		}
		return d
	}
	return defaultValue
}
