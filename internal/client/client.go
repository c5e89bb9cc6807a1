// Package client talks to the team tasks REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/scantech/team-tasks/internal/dto"
	"github.com/scantech/team-tasks/internal/models"
)

// Error is a non-2xx response from the API.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetToken sets the bearer token sent with authenticated calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges credentials for a token and remembers it.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	var resp dto.LoginResponse
	req := dto.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp, false); err != nil {
		return nil, err
	}
	if resp.Token != "" {
		c.SetToken(resp.Token)
	}
	return &resp, nil
}

// Logout ends the server session. The token is forgotten even when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.SetToken("")
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, true)
}

func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &user, true); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) TeamMembers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/users/team-members", nil, &users, true); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks, true); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id uint64) (*models.Task, error) {
	return c.taskCall(ctx, http.MethodGet, taskPath(id), nil)
}

func (c *Client) CreateTask(ctx context.Context, req dto.CreateTaskRequest) (*models.Task, error) {
	return c.taskCall(ctx, http.MethodPost, "/tasks", req)
}

func (c *Client) UpdateTask(ctx context.Context, id uint64, req dto.UpdateTaskRequest) (*models.Task, error) {
	return c.taskCall(ctx, http.MethodPut, taskPath(id), req)
}

func (c *Client) UpdateStatus(ctx context.Context, id uint64, req dto.UpdateStatusRequest) (*models.Task, error) {
	return c.taskCall(ctx, http.MethodPatch, taskPath(id)+"/status", req)
}

func (c *Client) UpdateAssignee(ctx context.Context, id uint64, assigneeID uint64) (*models.Task, error) {
	return c.taskCall(ctx, http.MethodPatch, taskPath(id)+"/assignee", dto.UpdateAssigneeRequest{AssigneeID: assigneeID})
}

func (c *Client) DeleteTask(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, true)
}

func (c *Client) AddComment(ctx context.Context, taskID uint64, text string) (*models.Task, error) {
	return c.taskCall(ctx, http.MethodPost, taskPath(taskID)+"/comments", dto.CommentRequest{Text: text})
}

func (c *Client) UpdateComment(ctx context.Context, taskID uint64, commentID, text string) (*models.Task, error) {
	return c.taskCall(ctx, http.MethodPut, commentPath(taskID, commentID), dto.CommentRequest{Text: text})
}

func (c *Client) DeleteComment(ctx context.Context, taskID uint64, commentID string) (*models.Task, error) {
	return c.taskCall(ctx, http.MethodDelete, commentPath(taskID, commentID), nil)
}

// SendEmail asks the server to deliver a message.
func (c *Client) SendEmail(ctx context.Context, to, subject, message string) error {
	req := dto.SendEmailRequest{To: to, Subject: subject, Message: message}
	return c.do(ctx, http.MethodPost, "/email/send", req, nil, true)
}

func (c *Client) taskCall(ctx context.Context, method, path string, body any) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, method, path, body, &task, true); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, auth bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if auth {
		if token := c.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	apiErr := &Error{StatusCode: status}

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
	}
	return apiErr
}

func taskPath(id uint64) string {
	return "/tasks/" + strconv.FormatUint(id, 10)
}

func commentPath(taskID uint64, commentID string) string {
	return taskPath(taskID) + "/comments/" + url.PathEscape(commentID)
}
