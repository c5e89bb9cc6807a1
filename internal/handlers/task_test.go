package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/scantech/team-tasks/internal/constants"
	"github.com/scantech/team-tasks/internal/dto"
	apierrors "github.com/scantech/team-tasks/internal/errors"
	"github.com/scantech/team-tasks/internal/models"
	"github.com/scantech/team-tasks/internal/notification"
	"github.com/scantech/team-tasks/internal/persistence"
	"github.com/scantech/team-tasks/internal/repository"
	"github.com/scantech/team-tasks/internal/services"
	"github.com/scantech/team-tasks/internal/utils"
)

const testJWTSecret = "test-secret"

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.Notification
}

func (r *recordingNotifier) Dispatch(n notification.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

// APITestSuite defines the test suite for the HTTP API
type APITestSuite struct {
	suite.Suite
	db       *gorm.DB
	store    *services.TaskStore
	notifier *recordingNotifier
	sent     []notification.Message
	sendErr  error
	router   *gin.Engine

	leaderToken string
	vesaToken   string
	clirimToken string
}

// SetupTest runs before each test
func (suite *APITestSuite) SetupTest() {
	var err error

	// Create in-memory SQLite database
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	suite.Require().NoError(suite.db.AutoMigrate(&repository.Snapshot{}))
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	memberHash, err := bcrypt.GenerateFromPassword([]byte("member123"), bcrypt.MinCost)
	suite.Require().NoError(err)
	leaderHash, err := bcrypt.GenerateFromPassword([]byte("leader123"), bcrypt.MinCost)
	suite.Require().NoError(err)

	roster := repository.DefaultTeamMembers()
	for i := range roster {
		roster[i].PasswordHash = string(memberHash)
	}
	roster = append(roster, models.User{
		ID:           repository.DefaultLeaderID,
		Name:         "Team Leader",
		Email:        "leader@scantech.com",
		Role:         models.RoleTeamLeader,
		PasswordHash: string(leaderHash),
	})
	rosterRepo := repository.NewRosterRepository(roster)

	snapshots := persistence.NewSnapshotStore(repository.NewSnapshotRepository(suite.db))
	suite.notifier = &recordingNotifier{}
	suite.store = services.NewTaskStore(persistence.NewLocalBackend(snapshots, rosterRepo), suite.notifier)
	suite.Require().NoError(suite.store.Load(context.Background()))

	suite.sent = nil
	suite.sendErr = nil
	sender := notification.SenderFunc(func(_ context.Context, msg notification.Message) error {
		if suite.sendErr != nil {
			return suite.sendErr
		}
		suite.sent = append(suite.sent, msg)
		return nil
	})

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	// Create router
	suite.router = gin.New()
	suite.router.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	RegisterRoutes(suite.router, Dependencies{
		AuthService: services.NewAuthService(rosterRepo, testJWTSecret, time.Hour),
		Store:       suite.store,
		Sender:      sender,
	})

	suite.leaderToken = suite.tokenFor(roster[4])
	suite.vesaToken = suite.tokenFor(roster[0])
	suite.clirimToken = suite.tokenFor(roster[1])
}

// TearDownTest runs after each test
func (suite *APITestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *APITestSuite) tokenFor(user models.User) string {
	token, err := utils.GenerateToken(testJWTSecret, user, time.Hour)
	suite.Require().NoError(err)
	return token
}

// Helper function to perform a request against the router
func (suite *APITestSuite) request(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *APITestSuite) decodeTask(w *httptest.ResponseRecorder) models.Task {
	var task models.Task
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task))
	return task
}

func (suite *APITestSuite) decodeError(w *httptest.ResponseRecorder) apierrors.APIError {
	var apiErr apierrors.APIError
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}

func (suite *APITestSuite) createTask(title string, assigneeID uint64) models.Task {
	w := suite.request(http.MethodPost, "/api/tasks", suite.leaderToken, dto.CreateTaskRequest{
		Title:      title,
		AssigneeID: assigneeID,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return suite.decodeTask(w)
}

func (suite *APITestSuite) TestHealth() {
	w := suite.request(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestLogin_ReturnsTokenAndSession() {
	w := suite.request(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    "leader@scantech.com",
		Password: "leader123",
	})
	suite.Require().Equal(http.StatusOK, w.Code)

	var resp dto.LoginResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.NotEmpty(resp.Token)
	suite.Equal(uint64(5), resp.User.ID)
	suite.NotContains(w.Body.String(), "password")

	cookies := w.Result().Cookies()
	suite.Require().NotEmpty(cookies, "expected session cookie to be set")

	// The session cookie alone authenticates
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	me := httptest.NewRecorder()
	suite.router.ServeHTTP(me, req)
	suite.Require().Equal(http.StatusOK, me.Code)

	var user models.User
	suite.Require().NoError(json.Unmarshal(me.Body.Bytes(), &user))
	suite.Equal("leader@scantech.com", user.Email)

	// And so does the bearer token
	me = suite.request(http.MethodGet, "/api/users/me", resp.Token, nil)
	suite.Equal(http.StatusOK, me.Code)
}

func (suite *APITestSuite) TestLogout_RevokesBearerToken() {
	w := suite.request(http.MethodGet, "/api/users/me", suite.vesaToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodPost, "/api/auth/logout", suite.vesaToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/users/me", suite.vesaToken, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	// Other tokens stay valid
	w = suite.request(http.MethodGet, "/api/users/me", suite.clirimToken, nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestLogin_InvalidCredentials() {
	w := suite.request(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    "leader@scantech.com",
		Password: "nope",
	})
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidCredentials, suite.decodeError(w).Code)

	w = suite.request(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "x"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestRequiresAuthentication() {
	w := suite.request(http.MethodGet, "/api/tasks", "", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.request(http.MethodGet, "/api/tasks", "garbage", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *APITestSuite) TestTeamMembersExcludeLeader() {
	w := suite.request(http.MethodGet, "/api/users/team-members", suite.vesaToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var members []models.User
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &members))
	suite.Len(members, 4)
	for _, m := range members {
		suite.Equal(models.RoleTeamMember, m.Role)
	}
}

func (suite *APITestSuite) TestCreateTask() {
	w := suite.request(http.MethodPost, "/api/tasks", suite.vesaToken, dto.CreateTaskRequest{Title: "Nope", AssigneeID: 1})
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal(apierrors.ErrCodeLeaderRequired, suite.decodeError(w).Code)

	w = suite.request(http.MethodPost, "/api/tasks", suite.leaderToken, map[string]any{
		"title":      "Write report",
		"assigneeId": 2,
		"priority":   "high",
		"dueDate":    "2025-03-15",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	task := suite.decodeTask(w)
	suite.Equal(models.TaskStatusNotStarted, task.Status)
	suite.Equal(models.PriorityHigh, task.Priority)
	suite.Equal(uint64(5), task.CreatedBy)
	suite.Require().NotNil(task.DueDate)
	suite.Equal("2025-03-15", task.DueDate.Format("2006-01-02"))
	suite.Equal(1, suite.notifier.count())
}

func (suite *APITestSuite) TestCreateTask_Validation() {
	w := suite.request(http.MethodPost, "/api/tasks", suite.leaderToken, dto.CreateTaskRequest{AssigneeID: 2})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidInput, suite.decodeError(w).Code)

	w = suite.request(http.MethodPost, "/api/tasks", suite.leaderToken, dto.CreateTaskRequest{Title: "Task", AssigneeID: 99})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, "/api/tasks", suite.leaderToken, map[string]any{"title": "Task", "assigneeId": 1, "dueDate": "soon"})
	suite.Equal(http.StatusBadRequest, w.Code)

	suite.Empty(suite.store.Tasks())
	suite.Equal(0, suite.notifier.count())
}

func (suite *APITestSuite) TestGetTask() {
	task := suite.createTask("Read me", 1)

	w := suite.request(http.MethodGet, "/api/tasks/1", suite.clirimToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(task.Title, suite.decodeTask(w).Title)

	w = suite.request(http.MethodGet, "/api/tasks/99", suite.clirimToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, "/api/tasks/abc", suite.clirimToken, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestListTasks_Filters() {
	suite.createTask("A", 1)
	suite.createTask("B", 2)
	suite.Require().Equal(http.StatusOK, suite.request(http.MethodPatch, "/api/tasks/2/status", suite.clirimToken,
		dto.UpdateStatusRequest{Status: models.TaskStatusInProgress}).Code)

	var tasks []models.Task
	w := suite.request(http.MethodGet, "/api/tasks", suite.vesaToken, nil)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &tasks))
	suite.Len(tasks, 2)

	w = suite.request(http.MethodGet, "/api/tasks?assigneeId=1", suite.vesaToken, nil)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &tasks))
	suite.Require().Len(tasks, 1)
	suite.Equal("A", tasks[0].Title)

	w = suite.request(http.MethodGet, "/api/tasks?status=in_progress", suite.vesaToken, nil)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &tasks))
	suite.Require().Len(tasks, 1)
	suite.Equal("B", tasks[0].Title)

	w = suite.request(http.MethodGet, "/api/tasks?status=done", suite.vesaToken, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestUpdateStatus_AssigneeOrLeader() {
	suite.createTask("Fix bug", 1)

	w := suite.request(http.MethodPatch, "/api/tasks/1/status", suite.clirimToken, dto.UpdateStatusRequest{Status: models.TaskStatusCompleted})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPatch, "/api/tasks/1/status", suite.vesaToken, dto.UpdateStatusRequest{
		Status:  models.TaskStatusProblematic,
		Comment: "Cannot reproduce",
	})
	suite.Require().Equal(http.StatusOK, w.Code)
	task := suite.decodeTask(w)
	suite.Equal(models.TaskStatusProblematic, task.Status)
	suite.Equal("Cannot reproduce", task.ProblematicComment)

	w = suite.request(http.MethodPatch, "/api/tasks/1/status", suite.leaderToken, dto.UpdateStatusRequest{Status: models.TaskStatusCompleted})
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodPatch, "/api/tasks/1/status", suite.leaderToken, dto.UpdateStatusRequest{Status: "archived"})
	suite.Equal(http.StatusBadRequest, w.Code)

	// assigned, problematic, completed
	suite.Equal(3, suite.notifier.count())
}

func (suite *APITestSuite) TestUpdateTask_DueDatePresence() {
	suite.createTask("Plan sprint", 1)

	w := suite.request(http.MethodPut, "/api/tasks/1", suite.leaderToken, map[string]any{"dueDate": "2025-05-01"})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.NotNil(suite.decodeTask(w).DueDate)

	w = suite.request(http.MethodPut, "/api/tasks/1", suite.leaderToken, map[string]any{"title": "Plan next sprint"})
	suite.Require().Equal(http.StatusOK, w.Code)
	task := suite.decodeTask(w)
	suite.Equal("Plan next sprint", task.Title)
	suite.NotNil(task.DueDate)

	w = suite.request(http.MethodPut, "/api/tasks/1", suite.leaderToken, map[string]any{"dueDate": nil})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Nil(suite.decodeTask(w).DueDate)

	w = suite.request(http.MethodPut, "/api/tasks/1", suite.vesaToken, map[string]any{"title": "Mine now"})
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *APITestSuite) TestUpdateAssignee() {
	suite.createTask("Handover", 1)

	w := suite.request(http.MethodPatch, "/api/tasks/1/assignee", suite.leaderToken, dto.UpdateAssigneeRequest{AssigneeID: 3})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(uint64(3), suite.decodeTask(w).AssigneeID)
	suite.Equal(2, suite.notifier.count())

	w = suite.request(http.MethodPatch, "/api/tasks/1/assignee", suite.leaderToken, dto.UpdateAssigneeRequest{AssigneeID: 42})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPatch, "/api/tasks/7/assignee", suite.leaderToken, dto.UpdateAssigneeRequest{AssigneeID: 3})
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestDeleteTask_Idempotent() {
	suite.createTask("Temporary", 1)

	w := suite.request(http.MethodDelete, "/api/tasks/1", suite.vesaToken, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	for i := 0; i < 2; i++ {
		w = suite.request(http.MethodDelete, "/api/tasks/1", suite.leaderToken, nil)
		suite.Equal(http.StatusOK, w.Code)
	}
	suite.Empty(suite.store.Tasks())
}

func (suite *APITestSuite) TestComments_AuthorOnly() {
	suite.createTask("Discuss", 1)

	w := suite.request(http.MethodPost, "/api/tasks/1/comments", suite.vesaToken, dto.CommentRequest{Text: "Starting today"})
	suite.Require().Equal(http.StatusCreated, w.Code)
	task := suite.decodeTask(w)
	suite.Require().Len(task.Comments, 1)
	comment := task.Comments[0]
	suite.Equal("Vesa Mexhuani", comment.UserName)

	path := "/api/tasks/1/comments/" + comment.ID
	w = suite.request(http.MethodPut, path, suite.clirimToken, dto.CommentRequest{Text: "hijacked"})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPut, path, suite.vesaToken, dto.CommentRequest{Text: "Starting tomorrow"})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("Starting tomorrow", suite.decodeTask(w).Comments[0].Text)

	w = suite.request(http.MethodPost, "/api/tasks/1/comments", suite.vesaToken, dto.CommentRequest{Text: ""})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodDelete, "/api/tasks/1/comments/unknown", suite.clirimToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Len(suite.decodeTask(w).Comments, 1)

	w = suite.request(http.MethodDelete, path, suite.vesaToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Empty(suite.decodeTask(w).Comments)
}

func (suite *APITestSuite) TestSuggestTasks_NotConfigured() {
	w := suite.request(http.MethodPost, "/api/tasks/suggest", suite.leaderToken, dto.SuggestTasksRequest{Text: "notes"})
	suite.Equal(http.StatusServiceUnavailable, w.Code)

	w = suite.request(http.MethodPost, "/api/tasks/suggest", suite.vesaToken, dto.SuggestTasksRequest{Text: "notes"})
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *APITestSuite) TestSendEmail() {
	w := suite.request(http.MethodPost, "/api/email/send", suite.vesaToken, dto.SendEmailRequest{
		To:      "leader@scantech.com",
		Subject: "Hello",
		Message: "Body",
	})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Require().Len(suite.sent, 1)
	suite.Equal("leader@scantech.com", suite.sent[0].To)

	suite.sendErr = errors.New("smtp down")
	w = suite.request(http.MethodPost, "/api/email/send", suite.vesaToken, dto.SendEmailRequest{
		To:      "leader@scantech.com",
		Subject: "Hello",
		Message: "Body",
	})
	suite.Equal(http.StatusBadGateway, w.Code)

	w = suite.request(http.MethodPost, "/api/email/send", suite.vesaToken, map[string]string{"to": "x"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

// TestAPITestSuite runs the test suite
func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
