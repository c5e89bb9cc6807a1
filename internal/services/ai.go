package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/scantech/team-tasks/internal/constants"
	"github.com/scantech/team-tasks/internal/models"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
	ErrAIInputTooLong         = fmt.Errorf("%w: text exceeds %d characters", ErrValidation, constants.MaxAIInputLength)
	ErrAIInputEmpty           = fmt.Errorf("%w: text is required", ErrValidation)
)

type AIService struct {
	client *openai.Client
	now    func() time.Time
}

// TaskDraft is a task proposed by the model. The team leader still has to
// pick an assignee and create it.
type TaskDraft struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"dueDate,omitempty"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		now:    time.Now,
	}
}

// NewAIServiceWithBaseURL points the service at an OpenAI compatible endpoint.
func NewAIServiceWithBaseURL(apiKey, baseURL string) *AIService {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		now:    time.Now,
	}
}

type generatedTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// SuggestTasks extracts task drafts from free text such as meeting notes.
func (s *AIService) SuggestTasks(ctx context.Context, text string) ([]TaskDraft, error) {
	if s == nil || s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrAIInputEmpty
	}
	if len(text) > constants.MaxAIInputLength {
		return nil, ErrAIInputTooLong
	}

	generated, err := s.generate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(generated) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(generated) > constants.MaxAIGeneratedTasks {
		generated = generated[:constants.MaxAIGeneratedTasks]
	}

	drafts := make([]TaskDraft, 0, len(generated))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, g := range generated {
		title := strings.TrimSpace(g.Title)
		if title == "" {
			continue
		}

		draft := TaskDraft{
			Title:       title,
			Description: strings.TrimSpace(g.Description),
			Priority:    models.TaskPriority(strings.ToLower(g.Priority)),
		}
		if !draft.Priority.Valid() {
			draft.Priority = models.PriorityMedium
		}
		// Drop due dates the model placed in the past
		if g.DueDate != nil && !g.DueDate.Before(cutoff) {
			due := g.DueDate.UTC()
			draft.DueDate = &due
		}

		drafts = append(drafts, draft)
	}

	if len(drafts) == 0 {
		return nil, ErrAINoValidTasks
	}

	return drafts, nil
}

func (s *AIService) generate(ctx context.Context, text string) ([]generatedTask, error) {
	currentTime := s.now().Format("2006-01-02 15:04:05")
	prompt := fmt.Sprintf(`You are a task extraction assistant for a small software team. Extract concrete, actionable tasks from the text below.

Current time: %s

Text:
%s

Return a JSON array of the extracted tasks in this format:
[
  {
    "title": "short task title",
    "description": "details of the task",
    "priority": "low, medium or high",
    "due_date": "deadline in ISO8601, e.g. 2025-10-28T23:59:59Z, or null when none is stated"
  }
]

Rules:
- Return an empty array [] when there are no tasks
- Convert relative deadlines ("tomorrow", "next week") to concrete timestamps
- due_date must be an ISO8601 string or null
- Return only JSON, no explanations`, currentTime, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var tasks []generatedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}

// stripCodeFence removes a surrounding ```json fence if the model added one
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
