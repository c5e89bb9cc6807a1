package main

import (
	"context"
	"fmt"
	"log"

	"github.com/scantech/team-tasks/internal/client"
	"github.com/scantech/team-tasks/internal/config"
	"github.com/scantech/team-tasks/internal/database"
	"github.com/scantech/team-tasks/internal/dto"
	"github.com/scantech/team-tasks/internal/models"
	"github.com/scantech/team-tasks/internal/notification"
	"github.com/scantech/team-tasks/internal/persistence"
	"github.com/scantech/team-tasks/internal/repository"
	"github.com/scantech/team-tasks/internal/services"
	"github.com/scantech/team-tasks/internal/session"
)

// clientEnv is everything a client command works against: the durable
// state on this machine, the signed-in session and the task store.
type clientEnv struct {
	cfg        *config.Config
	session    *session.Session
	store      *services.TaskStore
	dispatcher *notification.Dispatcher
	closeDB    func()
}

func openClientEnv(ctx context.Context) (*clientEnv, error) {
	cfg := config.Load()

	db, err := database.OpenSQLite(cfg.ClientStatePath)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	snapshots := persistence.NewSnapshotStore(repository.NewSnapshotRepository(db))

	env := &clientEnv{cfg: cfg, closeDB: closeDB}

	var (
		auth    session.Authenticator
		backend persistence.Backend
		api     *client.Client
	)
	switch cfg.Backend {
	case config.BackendLocal:
		roster, err := loadRoster(cfg)
		if err != nil {
			closeDB()
			return nil, err
		}
		rosterRepo := repository.NewRosterRepository(roster)
		auth = &localAuthenticator{auth: services.NewAuthService(rosterRepo, cfg.JWTSecret, cfg.TokenTTL)}
		backend = persistence.NewLocalBackend(snapshots, rosterRepo)
	default:
		api = client.New(cfg.APIBaseURL, cfg.APITimeout)
		auth = api
		backend = persistence.NewRemoteBackend(api, snapshots)
	}

	env.session = session.New(auth, snapshots)
	if err := env.session.Restore(ctx); err != nil {
		closeDB()
		return nil, err
	}

	var notifier services.Notifier = notification.Discard{}
	if cfg.ClientNotify {
		var sender notification.Sender = notification.LogSender{}
		if api != nil {
			sender = notification.FallbackSender{
				Primary:  notification.APISender{API: api},
				Fallback: notification.LogSender{},
			}
		}
		env.dispatcher = notification.NewDispatcher(sender, cfg.NotifyTimeout)
		notifier = env.dispatcher
	}

	env.store = services.NewTaskStore(backend, notifier, services.WithTeamLeader(configuredLeader(cfg)))
	return env, nil
}

// loadTasks fills the task store. Only commands that read or change tasks need it.
func (e *clientEnv) loadTasks(ctx context.Context) error {
	return e.store.Load(ctx)
}

func (e *clientEnv) Close() {
	if e.dispatcher != nil {
		e.dispatcher.Wait()
	}
	e.closeDB()
}

// withClientEnv opens the client environment for the duration of fn.
func withClientEnv(ctx context.Context, fn func(*clientEnv) error) error {
	env, err := openClientEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env)
}

func (e *clientEnv) requireLeader() (*models.User, error) {
	user, err := e.session.RequireUser()
	if err != nil {
		return nil, err
	}
	if !user.IsTeamLeader() {
		return nil, fmt.Errorf("only the team leader can do this")
	}
	return user, nil
}

// localAuthenticator signs in against the configured roster without a server.
type localAuthenticator struct {
	auth  *services.AuthService
	token string
}

func (a *localAuthenticator) Login(_ context.Context, email, password string) (*dto.LoginResponse, error) {
	user, token, err := a.auth.Login(services.LoginInput{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	a.token = token
	return &dto.LoginResponse{Token: token, User: *user}, nil
}

func (a *localAuthenticator) Logout(context.Context) error {
	a.auth.RevokeToken(a.token)
	a.token = ""
	return nil
}

func (a *localAuthenticator) CurrentUser(context.Context) (*models.User, error) {
	return a.auth.Authenticate(a.token)
}

func (a *localAuthenticator) SetToken(token string) {
	a.token = token
}

// loadRoster reads ROSTER_FILE when set and falls back to the built-in team.
func loadRoster(cfg *config.Config) ([]models.User, error) {
	if cfg.RosterFile != "" {
		log.Printf("Loading roster from %s", cfg.RosterFile)
		return repository.LoadRosterFile(cfg.RosterFile)
	}
	return repository.DefaultRoster(cfg.TeamLeaderEmail, cfg.TeamLeaderName)
}

func configuredLeader(cfg *config.Config) models.User {
	return models.User{
		ID:    repository.DefaultLeaderID,
		Name:  cfg.TeamLeaderName,
		Email: cfg.TeamLeaderEmail,
		Role:  models.RoleTeamLeader,
	}
}
