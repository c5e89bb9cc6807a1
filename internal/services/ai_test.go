package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scantech/team-tasks/internal/models"
)

func setupAIService(t *testing.T, content string) *AIService {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	svc := NewAIServiceWithBaseURL("test-key", srv.URL)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestSuggestTasks(t *testing.T) {
	content := "```json\n" + `[
		{"title": "Write report", "description": "Q1 numbers", "priority": "HIGH", "due_date": "2025-03-05T17:00:00Z"},
		{"title": "  ", "description": "no title"},
		{"title": "Old deadline", "priority": "urgent", "due_date": "2024-01-01T00:00:00Z"}
	]` + "\n```"
	svc := setupAIService(t, content)

	drafts, err := svc.SuggestTasks(context.Background(), "We need the Q1 report by Wednesday.")
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	assert.Equal(t, "Write report", drafts[0].Title)
	assert.Equal(t, models.PriorityHigh, drafts[0].Priority)
	require.NotNil(t, drafts[0].DueDate)
	assert.Equal(t, time.Date(2025, 3, 5, 17, 0, 0, 0, time.UTC), *drafts[0].DueDate)

	assert.Equal(t, models.PriorityMedium, drafts[1].Priority)
	assert.Nil(t, drafts[1].DueDate)
}

func TestSuggestTasks_NoTasks(t *testing.T) {
	svc := setupAIService(t, "[]")

	_, err := svc.SuggestTasks(context.Background(), "Nothing to do")
	assert.ErrorIs(t, err, ErrAINoTasksGenerated)
}

func TestSuggestTasks_InputValidation(t *testing.T) {
	svc := setupAIService(t, "[]")

	_, err := svc.SuggestTasks(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrValidation)

	var nilService *AIService
	_, err = nilService.SuggestTasks(context.Background(), "text")
	assert.ErrorIs(t, err, ErrAIServiceNotConfigured)
}
