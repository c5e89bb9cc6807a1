package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/scantech/team-tasks/internal/dto"
	apierrors "github.com/scantech/team-tasks/internal/errors"
	"github.com/scantech/team-tasks/internal/middleware"
	"github.com/scantech/team-tasks/internal/models"
	"github.com/scantech/team-tasks/internal/persistence"
	"github.com/scantech/team-tasks/internal/services"
)

type TaskHandler struct {
	store     *services.TaskStore
	aiService *services.AIService
}

func NewTaskHandler(store *services.TaskStore, aiService *services.AIService) *TaskHandler {
	return &TaskHandler{
		store:     store,
		aiService: aiService,
	}
}

// ListTasks returns all tasks, optionally filtered by status and assignee
func (h *TaskHandler) ListTasks(c *gin.Context) {
	tasks := h.store.Tasks()

	if s := c.Query("status"); s != "" {
		status := models.TaskStatus(s)
		if !status.Valid() {
			apierrors.BadRequest(c, "Invalid status filter")
			return
		}
		tasks = keepTasks(tasks, func(t models.Task) bool { return t.Status == status })
	}

	if s := c.Query("assigneeId"); s != "" {
		assigneeID, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assigneeId filter")
			return
		}
		tasks = keepTasks(tasks, func(t models.Task) bool { return t.AssigneeID == assigneeID })
	}

	c.JSON(http.StatusOK, tasks)
}

// GetTask returns a specific task by ID
// Task is already loaded by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, task)
}

// CreateTask creates a new task and notifies its assignee
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	task, err := h.store.CreateTask(c.Request.Context(), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Priority:    req.Priority,
		DueDate:     req.DueDate.Ptr(),
		CreatorID:   userID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// UpdateTask updates the editable fields of a task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	}
	// dueDate was provided (might be null)
	if req.DueDate.Set {
		if req.DueDate.Value == nil {
			input.ClearDueDate = true
		} else {
			input.DueDate = req.DueDate.Value
		}
	}

	updated, err := h.store.UpdateTask(c.Request.Context(), task.ID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// UpdateStatus moves a task to a new status
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	updated, err := h.store.UpdateTaskStatus(c.Request.Context(), services.UpdateStatusInput{
		TaskID:         task.ID,
		Status:         req.Status,
		PreviousStatus: req.PreviousStatus,
		Comment:        req.Comment,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// UpdateAssignee reassigns a task
func (h *TaskHandler) UpdateAssignee(c *gin.Context) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	var req dto.UpdateAssigneeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	updated, err := h.store.UpdateTaskAssignee(c.Request.Context(), task.ID, req.AssigneeID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteTask deletes a task. Deleting a missing task succeeds.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	if err := h.store.DeleteTask(c.Request.Context(), taskID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// AddComment adds a comment by the current user
func (h *TaskHandler) AddComment(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	task, found := middleware.GetTask(c)
	if !exists || !found {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	updated, err := h.store.AddComment(c.Request.Context(), services.AddCommentInput{
		TaskID:   task.ID,
		Text:     req.Text,
		UserID:   user.ID,
		UserName: user.Name,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, updated)
}

// UpdateComment edits a comment. Only its author may edit it.
func (h *TaskHandler) UpdateComment(c *gin.Context) {
	task, ok := h.authorizeCommentAuthor(c)
	if !ok {
		return
	}

	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	updated, err := h.store.UpdateComment(c.Request.Context(), task.ID, c.Param("commentId"), req.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteComment removes a comment. Only its author may delete it.
func (h *TaskHandler) DeleteComment(c *gin.Context) {
	task, ok := h.authorizeCommentAuthor(c)
	if !ok {
		return
	}

	updated, err := h.store.DeleteComment(c.Request.Context(), task.ID, c.Param("commentId"))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// SuggestTasks drafts tasks from free text using AI
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	var req dto.SuggestTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	// Check if AI service is available
	if h.aiService == nil {
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
		return
	}

	drafts, err := h.aiService.SuggestTasks(c.Request.Context(), req.Text)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			apierrors.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrAINoTasksGenerated), errors.Is(err, services.ErrAINoValidTasks):
			c.JSON(http.StatusOK, gin.H{"tasks": []services.TaskDraft{}})
		default:
			apierrors.BadGateway(c, "Failed to generate tasks")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": drafts,
	})
}

// authorizeCommentAuthor writes the error response itself when it returns false.
// An unknown comment passes so that deletion stays a no-op.
func (h *TaskHandler) authorizeCommentAuthor(c *gin.Context) (models.Task, bool) {
	user, exists := middleware.GetCurrentUser(c)
	task, found := middleware.GetTask(c)
	if !exists || !found {
		apierrors.Unauthorized(c, "Not authenticated")
		return models.Task{}, false
	}

	if idx := task.FindComment(c.Param("commentId")); idx >= 0 && task.Comments[idx].UserID != user.ID {
		apierrors.Forbidden(c, "Only the author can change this comment")
		return models.Task{}, false
	}
	return task, true
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, persistence.ErrRemote):
		apierrors.BadGateway(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}

func keepTasks(tasks []models.Task, keep func(models.Task) bool) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
