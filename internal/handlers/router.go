package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scantech/team-tasks/internal/middleware"
	"github.com/scantech/team-tasks/internal/notification"
	"github.com/scantech/team-tasks/internal/services"
)

// Dependencies are the services the HTTP API is built on
type Dependencies struct {
	AuthService *services.AuthService
	Store       *services.TaskStore
	AIService   *services.AIService
	Sender      notification.Sender
}

// RegisterRoutes mounts the health check and the /api routes on r. The
// session middleware must already be installed.
func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.Store)
	taskHandler := NewTaskHandler(deps.Store, deps.AIService)
	emailHandler := NewEmailHandler(deps.Sender)

	requireAuth := middleware.RequireAuth(deps.AuthService)
	requireLeader := middleware.RequireTeamLeader()
	requireTask := middleware.RequireTaskAccess(deps.Store)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Team Tasks API is running",
		})
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("/me", authHandler.GetCurrentUser)
			users.GET("/team-members", userHandler.ListTeamMembers)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", requireLeader, taskHandler.CreateTask)
			tasks.POST("/suggest", requireLeader, taskHandler.SuggestTasks)
			tasks.GET("/:id", requireTask, taskHandler.GetTask)
			tasks.PUT("/:id", requireLeader, requireTask, taskHandler.UpdateTask)
			tasks.PATCH("/:id/status", requireTask, middleware.RequireTaskAssigneeOrLeader(), taskHandler.UpdateStatus)
			tasks.PATCH("/:id/assignee", requireLeader, requireTask, taskHandler.UpdateAssignee)
			tasks.DELETE("/:id", requireLeader, taskHandler.DeleteTask)
			tasks.POST("/:id/comments", requireTask, taskHandler.AddComment)
			tasks.PUT("/:id/comments/:commentId", requireTask, taskHandler.UpdateComment)
			tasks.DELETE("/:id/comments/:commentId", requireTask, taskHandler.DeleteComment)
		}

		email := api.Group("/email")
		email.Use(requireAuth)
		{
			email.POST("/send", emailHandler.SendEmail)
		}
	}
}
