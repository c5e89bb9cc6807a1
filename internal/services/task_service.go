package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scantech/team-tasks/internal/constants"
	"github.com/scantech/team-tasks/internal/models"
	"github.com/scantech/team-tasks/internal/notification"
	"github.com/scantech/team-tasks/internal/persistence"
	"github.com/scantech/team-tasks/internal/repository"
)

var (
	// ErrValidation is wrapped by every input error.
	ErrValidation = errors.New("invalid input")
	// ErrNotFound is wrapped by every lookup error.
	ErrNotFound = errors.New("not found")

	ErrTitleRequired       = fmt.Errorf("%w: title is required", ErrValidation)
	ErrAssigneeRequired    = fmt.Errorf("%w: assignee is required", ErrValidation)
	ErrInvalidPriority     = fmt.Errorf("%w: priority must be low, medium or high", ErrValidation)
	ErrInvalidStatus       = fmt.Errorf("%w: unknown task status", ErrValidation)
	ErrInvalidTaskAssignee = fmt.Errorf("%w: assignee is not a member of the team", ErrValidation)
	ErrCommentRequired     = fmt.Errorf("%w: comment text is required", ErrValidation)

	ErrTaskNotFound    = fmt.Errorf("task %w", ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrNotFound)
)

const unknownActor = "Unknown"

// Notifier delivers notifications without blocking the caller.
type Notifier interface {
	Dispatch(n notification.Notification)
}

// TaskStore owns the task collection and the team roster. Mutations are
// serialized and go through the backend before they are committed to memory.
type TaskStore struct {
	mu       sync.Mutex
	backend  persistence.Backend
	notifier Notifier
	tasks    []models.Task
	members  []models.User
	leader   models.User
	now      func() time.Time

	// nextTaskID only grows, so ids of deleted tasks are never reused
	nextTaskID uint64
}

// TaskStoreOption configures a TaskStore
type TaskStoreOption func(*TaskStore)

// WithClock overrides the time source
func WithClock(now func() time.Time) TaskStoreOption {
	return func(s *TaskStore) {
		s.now = now
	}
}

// WithTeamLeader sets the leader used when the roster has none
func WithTeamLeader(leader models.User) TaskStoreOption {
	return func(s *TaskStore) {
		s.leader = leader
	}
}

// NewTaskStore creates an empty TaskStore. Call Load to fill it.
func NewTaskStore(backend persistence.Backend, notifier Notifier, opts ...TaskStoreOption) *TaskStore {
	s := &TaskStore{
		backend:  backend,
		notifier: notifier,
		leader: models.User{
			ID:    repository.DefaultLeaderID,
			Name:  constants.DefaultTeamLeaderName,
			Email: constants.DefaultTeamLeaderEmail,
			Role:  models.RoleTeamLeader,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	AssigneeID  uint64
	Priority    models.TaskPriority
	DueDate     *time.Time
	CreatorID   uint64
}

// UpdateStatusInput represents a status transition. An empty
// PreviousStatus means the stored status.
type UpdateStatusInput struct {
	TaskID         uint64
	Status         models.TaskStatus
	PreviousStatus models.TaskStatus
	Comment        string
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
}

// AddCommentInput represents a new comment
type AddCommentInput struct {
	TaskID   uint64
	Text     string
	UserID   uint64
	UserName string
}

// Load replaces the in-memory state with what the backend returns.
func (s *TaskStore) Load(ctx context.Context) error {
	state, err := s.backend.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make([]models.Task, 0, len(state.Tasks))
	for _, t := range state.Tasks {
		s.tasks = append(s.tasks, t.Clone())
	}
	s.members = append([]models.User(nil), state.Members...)
	s.nextTaskID = max(s.nextTaskID, state.NextTaskID)
	return nil
}

// Clear drops the in-memory tasks. The durable snapshot is left alone.
func (s *TaskStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
}

// Tasks returns a copy of every task in insertion order
func (s *TaskStore) Tasks() []models.Task {
	return s.filter(func(models.Task) bool { return true })
}

// TasksByAssignee returns the tasks assigned to userID
func (s *TaskStore) TasksByAssignee(userID uint64) []models.Task {
	return s.filter(func(t models.Task) bool { return t.AssigneeID == userID })
}

// TasksByStatus returns the tasks in the given status
func (s *TaskStore) TasksByStatus(status models.TaskStatus) []models.Task {
	return s.filter(func(t models.Task) bool { return t.Status == status })
}

func (s *TaskStore) GetTask(taskID uint64) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(taskID)
	if idx < 0 {
		return nil, ErrTaskNotFound
	}
	task := s.tasks[idx].Clone()
	return &task, nil
}

// TeamMembers returns the loaded roster
func (s *TaskStore) TeamMembers() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.User(nil), s.members...)
}

// Member resolves a user ID against the roster and the team leader
func (s *TaskStore) Member(userID uint64) (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(userID)
}

// TeamLeader returns the roster's leader, or the configured one
func (s *TaskStore) TeamLeader() models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teamLeader()
}

// CreateTask validates input, creates the task and notifies the assignee
func (s *TaskStore) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.AssigneeID == 0 {
		return nil, ErrAssigneeRequired
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureAssignable(input.AssigneeID); err != nil {
		return nil, err
	}

	now := s.now()
	candidate := models.Task{
		ID:          s.nextID(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		AssigneeID:  input.AssigneeID,
		Priority:    priority,
		Status:      models.TaskStatusNotStarted,
		Comments:    []models.Comment{},
		CreatedAt:   now,
		CreatedBy:   input.CreatorID,
		UpdatedAt:   now,
	}
	if input.DueDate != nil {
		due := *input.DueDate
		candidate.DueDate = &due
	}

	created, err := s.backend.CreateTask(ctx, candidate)
	if err != nil {
		return nil, err
	}
	s.tasks = append(s.tasks, created.Clone())
	s.nextTaskID = max(s.nextTaskID, created.ID+1)
	s.persist(ctx)

	if assignee, ok := s.lookup(created.AssigneeID); ok {
		s.notify(notification.KindAssigned, *assignee, created, notification.Details{})
	}

	return &created, nil
}

// UpdateTaskStatus moves a task to a new status. Any transition is allowed;
// only entering completed or problematic notifies the team leader.
func (s *TaskStore) UpdateTaskStatus(ctx context.Context, input UpdateStatusInput) (*models.Task, error) {
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.PreviousStatus != "" && !input.PreviousStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(input.TaskID)
	if idx < 0 {
		return nil, ErrTaskNotFound
	}

	previous := input.PreviousStatus
	if previous == "" {
		previous = s.tasks[idx].Status
	}

	candidate := s.tasks[idx].Clone()
	candidate.Status = input.Status
	switch {
	case input.Status != models.TaskStatusProblematic:
		candidate.ProblematicComment = ""
	case input.Comment != "":
		candidate.ProblematicComment = input.Comment
	}
	candidate.UpdatedAt = s.now()

	updated, err := s.backend.UpdateStatus(ctx, candidate, input.Comment)
	if err != nil {
		return nil, err
	}
	s.tasks[idx] = updated.Clone()
	s.persist(ctx)

	actor := unknownActor
	if assignee, ok := s.lookup(updated.AssigneeID); ok {
		actor = assignee.Name
	}
	switch {
	case input.Status == models.TaskStatusCompleted && previous != models.TaskStatusCompleted:
		s.notify(notification.KindCompleted, s.teamLeader(), updated, notification.Details{ActorName: actor})
	case input.Status == models.TaskStatusProblematic && previous != models.TaskStatusProblematic:
		s.notify(notification.KindProblematic, s.teamLeader(), updated, notification.Details{
			ActorName: actor,
			Comment:   input.Comment,
		})
	}

	return &updated, nil
}

// UpdateTaskAssignee reassigns a task and notifies the new assignee
func (s *TaskStore) UpdateTaskAssignee(ctx context.Context, taskID, assigneeID uint64) (*models.Task, error) {
	if assigneeID == 0 {
		return nil, ErrAssigneeRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(taskID)
	if idx < 0 {
		return nil, ErrTaskNotFound
	}
	if err := s.ensureAssignable(assigneeID); err != nil {
		return nil, err
	}

	previousID := s.tasks[idx].AssigneeID
	candidate := s.tasks[idx].Clone()
	candidate.AssigneeID = assigneeID
	candidate.UpdatedAt = s.now()

	updated, err := s.backend.UpdateAssignee(ctx, candidate)
	if err != nil {
		return nil, err
	}
	s.tasks[idx] = updated.Clone()
	s.persist(ctx)

	previous, prevOK := s.lookup(previousID)
	assignee, newOK := s.lookup(updated.AssigneeID)
	if prevOK && newOK {
		s.notify(notification.KindReassigned, *assignee, updated, notification.Details{
			PreviousAssignee: previous.Name,
		})
	}

	return &updated, nil
}

// UpdateTask applies a partial update to the editable fields
func (s *TaskStore) UpdateTask(ctx context.Context, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(taskID)
	if idx < 0 {
		return nil, ErrTaskNotFound
	}

	candidate := s.tasks[idx].Clone()
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		candidate.Title = title
	}
	if input.Description != nil {
		candidate.Description = strings.TrimSpace(*input.Description)
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		candidate.Priority = *input.Priority
	}
	if input.ClearDueDate {
		candidate.DueDate = nil
	} else if input.DueDate != nil {
		due := *input.DueDate
		candidate.DueDate = &due
	}
	candidate.UpdatedAt = s.now()

	updated, err := s.backend.UpdateTask(ctx, candidate)
	if err != nil {
		return nil, err
	}
	s.tasks[idx] = updated.Clone()
	s.persist(ctx)

	return &updated, nil
}

// DeleteTask removes a task. Deleting an unknown task is a no-op.
func (s *TaskStore) DeleteTask(ctx context.Context, taskID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(taskID)
	if idx < 0 {
		return nil
	}

	if err := s.backend.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	s.tasks = append(s.tasks[:idx:idx], s.tasks[idx+1:]...)
	s.persist(ctx)

	return nil
}

// AddComment appends a comment to a task
func (s *TaskStore) AddComment(ctx context.Context, input AddCommentInput) (*models.Task, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, ErrCommentRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(input.TaskID)
	if idx < 0 {
		return nil, ErrTaskNotFound
	}

	now := s.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		TaskID:    input.TaskID,
		UserID:    input.UserID,
		UserName:  input.UserName,
		Text:      text,
		CreatedAt: now,
	}
	candidate := s.tasks[idx].Clone()
	candidate.Comments = append(candidate.Comments, comment)
	candidate.UpdatedAt = now

	updated, err := s.backend.AddComment(ctx, candidate, comment)
	if err != nil {
		return nil, err
	}
	s.tasks[idx] = updated.Clone()
	s.persist(ctx)

	return &updated, nil
}

// UpdateComment replaces the text of a comment
func (s *TaskStore) UpdateComment(ctx context.Context, taskID uint64, commentID, text string) (*models.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(taskID)
	if idx < 0 {
		return nil, ErrTaskNotFound
	}
	candidate := s.tasks[idx].Clone()
	ci := candidate.FindComment(commentID)
	if ci < 0 {
		return nil, ErrCommentNotFound
	}

	now := s.now()
	candidate.Comments[ci].Text = text
	candidate.Comments[ci].UpdatedAt = &now
	candidate.UpdatedAt = now

	updated, err := s.backend.UpdateComment(ctx, candidate, candidate.Comments[ci])
	if err != nil {
		return nil, err
	}
	s.tasks[idx] = updated.Clone()
	s.persist(ctx)

	return &updated, nil
}

// DeleteComment removes a comment. An unknown comment leaves the task as is.
func (s *TaskStore) DeleteComment(ctx context.Context, taskID uint64, commentID string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(taskID)
	if idx < 0 {
		return nil, ErrTaskNotFound
	}
	candidate := s.tasks[idx].Clone()
	ci := candidate.FindComment(commentID)
	if ci < 0 {
		return &candidate, nil
	}

	candidate.Comments = append(candidate.Comments[:ci], candidate.Comments[ci+1:]...)
	candidate.UpdatedAt = s.now()

	updated, err := s.backend.DeleteComment(ctx, candidate, commentID)
	if err != nil {
		return nil, err
	}
	s.tasks[idx] = updated.Clone()
	s.persist(ctx)

	return &updated, nil
}

func (s *TaskStore) filter(keep func(models.Task) bool) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func (s *TaskStore) indexOf(taskID uint64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}

// nextID is the counter, raised past any task id already in memory
func (s *TaskStore) nextID() uint64 {
	next := max(s.nextTaskID, 1)
	for _, t := range s.tasks {
		if t.ID >= next {
			next = t.ID + 1
		}
	}
	return next
}

func (s *TaskStore) lookup(userID uint64) (*models.User, bool) {
	for i := range s.members {
		if s.members[i].ID == userID {
			user := s.members[i]
			return &user, true
		}
	}
	if s.leader.ID != 0 && s.leader.ID == userID {
		leader := s.leader
		return &leader, true
	}
	return nil, false
}

func (s *TaskStore) teamLeader() models.User {
	for _, m := range s.members {
		if m.IsTeamLeader() {
			return m
		}
	}
	return s.leader
}

// ensureAssignable rejects assignees missing from a loaded roster
func (s *TaskStore) ensureAssignable(userID uint64) error {
	if len(s.members) == 0 {
		return nil
	}
	if _, ok := s.lookup(userID); !ok {
		return ErrInvalidTaskAssignee
	}
	return nil
}

func (s *TaskStore) persist(ctx context.Context) {
	if err := s.backend.Persist(ctx, s.tasks, s.nextID()); err != nil {
		log.Printf("Failed to persist tasks: %v", err)
	}
}

func (s *TaskStore) notify(kind notification.Kind, to models.User, task models.Task, details notification.Details) {
	if s.notifier == nil {
		return
	}
	details.TaskTitle = task.Title
	details.TaskDescription = task.Description
	s.notifier.Dispatch(notification.Notification{
		Kind:      kind,
		Recipient: notification.Recipient{Name: to.Name, Email: to.Email},
		Details:   details,
	})
}
