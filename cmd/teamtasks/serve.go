package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/scantech/team-tasks/internal/config"
	"github.com/scantech/team-tasks/internal/constants"
	"github.com/scantech/team-tasks/internal/database"
	"github.com/scantech/team-tasks/internal/handlers"
	"github.com/scantech/team-tasks/internal/notification"
	"github.com/scantech/team-tasks/internal/persistence"
	"github.com/scantech/team-tasks/internal/repository"
	"github.com/scantech/team-tasks/internal/services"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the team tasks HTTP API backed by the configured snapshot store",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration
		cfg := config.Load()

		// Set Gin mode
		gin.SetMode(cfg.GinMode)

		roster, err := loadRoster(cfg)
		if err != nil {
			return err
		}
		rosterRepo := repository.NewRosterRepository(roster)

		// Connect to the snapshot store
		snapshotRepo, closeRepo, err := database.OpenSnapshotRepository(cfg)
		if err != nil {
			return err
		}
		defer closeRepo()

		sender, err := serverSender(cfg)
		if err != nil {
			return err
		}
		dispatcher := notification.NewDispatcher(sender, cfg.NotifyTimeout)

		backend := persistence.NewLocalBackend(persistence.NewSnapshotStore(snapshotRepo), rosterRepo)
		store := services.NewTaskStore(backend, dispatcher, services.WithTeamLeader(configuredLeader(cfg)))
		if err := store.Load(cmd.Context()); err != nil {
			return err
		}
		log.Printf("Loaded %d tasks and %d team members", len(store.Tasks()), len(store.TeamMembers()))

		// Initialize AI service
		var aiService *services.AIService
		if cfg.OpenAIAPIKey != "" {
			aiService = services.NewAIService(cfg.OpenAIAPIKey)
		}

		// Initialize Gin router
		r := gin.Default()

		sessStore, err := sessionStore(cfg)
		if err != nil {
			return err
		}
		r.Use(sessions.Sessions(constants.SessionCookieName, sessStore))

		handlers.RegisterRoutes(r, handlers.Dependencies{
			AuthService: services.NewAuthService(rosterRepo, cfg.JWTSecret, cfg.TokenTTL),
			Store:       store,
			AIService:   aiService,
			Sender:      sender,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: r,
		}

		go func() {
			log.Printf("Server starting on :%s", cfg.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("server stopped: %v", err)
				stop()
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shut down server: %v", err)
		}

		// Let in-flight notifications finish
		dispatcher.Wait()

		log.Println("Server shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// sessionStore builds the cookie or redis backed session store
func sessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	if cfg.SessionStore == "redis" {
		rs, err := redisStore.NewStore(
			10,              // Redis pool size
			"tcp",           // network type
			cfg.RedisAddr(), // Redis address from config
			"",              // username (empty for default user)
			"",              // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, err
		}
		store = rs
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   isProduction, // true in production (HTTPS), false in development
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// serverSender delivers through SMTP when configured and also posts to the
// team chat when a telegram bot is set up
func serverSender(cfg *config.Config) (notification.Sender, error) {
	var primary notification.Sender = notification.LogSender{}
	if cfg.SMTPEnabled() {
		primary = notification.FallbackSender{
			Primary:  notification.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom),
			Fallback: notification.LogSender{},
		}
	}
	if !cfg.TelegramEnabled() {
		return primary, nil
	}

	telegram, err := notification.NewTelegramSender(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		return nil, err
	}
	return notification.MultiSender{primary, telegram}, nil
}
