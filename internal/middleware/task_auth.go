package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/scantech/team-tasks/internal/constants"
	apierrors "github.com/scantech/team-tasks/internal/errors"
	"github.com/scantech/team-tasks/internal/models"
	"github.com/scantech/team-tasks/internal/services"
)

// RequireTaskAccess loads the task named by the :id parameter into the context
func RequireTaskAccess(store *services.TaskStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get task ID from URL parameter
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		task, err := store.GetTask(taskID)
		if err != nil {
			if errors.Is(err, services.ErrTaskNotFound) {
				apierrors.NotFound(c, "Task not found")
			} else {
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, *task)
		c.Next()
	}
}

// RequireTaskAssigneeOrLeader allows the team leader and the task's assignee.
// It must run after RequireAuth and RequireTaskAccess.
func RequireTaskAssigneeOrLeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetCurrentUser(c)
		task, found := GetTask(c)
		if !exists || !found {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if !user.IsTeamLeader() && task.AssigneeID != user.ID {
			apierrors.Forbidden(c, "Only the team leader or the assignee can update this task")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetTask retrieves the task loaded by RequireTaskAccess
func GetTask(c *gin.Context) (models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := value.(models.Task)
	return task, ok
}
