package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/devbridge/dev-bridge-manager/internal/constants"
	"github.com/devbridge/dev-bridge-manager/internal/kanban"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("no tasks found in the text")
	ErrAINoValidTasks         = errors.New("no valid tasks were generated")
	ErrAITooManyTasks         = fmt.Errorf("too many tasks generated (max %d)", constants.MaxAIGeneratedTasks)
)

// ChatCompleter is the part of the OpenAI client the AI service uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type AIService struct {
	client ChatCompleter
	now    func() time.Time
}

// TaskDraft is a task suggested from free text. Drafts are not stored.
type TaskDraft struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Priority       kanban.Priority `json:"priority"`
	EstimatedHours float64         `json:"estimated_hours"`
	Tags           []string        `json:"tags"`
	DueDate        *time.Time      `json:"due_date"`
}

func NewAIService(apiKey string) *AIService {
	return NewAIServiceWithClient(openai.NewClient(apiKey))
}

// NewAIServiceWithClient creates an AIService on an existing client.
func NewAIServiceWithClient(client ChatCompleter) *AIService {
	return &AIService{client: client, now: time.Now}
}

const draftPrompt = `You are a task extraction assistant for a software team's kanban board.
Extract concrete, actionable tasks from the text below.

Current time: %s

Text:
%s

Return a JSON array of tasks in this format:
[
  {
    "title": "short task title",
    "description": "task details",
    "priority": "low | medium | high | urgent",
    "estimated_hours": 0,
    "tags": ["tag"],
    "due_date": "deadline in ISO8601, e.g. 2025-10-28T23:59:59Z, or null when none is stated"
  }
]

Rules:
- Return [] when the text contains no tasks
- Turn relative deadlines ("tomorrow", "next week") into concrete dates
- due_date is always an ISO8601 string or null
- Return JSON only, without any explanation`

// generate asks the model for task drafts.
func (s *AIService) generate(ctx context.Context, text string) ([]TaskDraft, error) {
	prompt := fmt.Sprintf(draftPrompt, s.now().Format("2006-01-02 15:04:05"), text)

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

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimSuffix(strings.TrimPrefix(content, "```"), "```")

	var drafts []TaskDraft
	if err := json.Unmarshal([]byte(content), &drafts); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return drafts, nil
}

// DraftTasks turns free text into task drafts. Drafts without a title are
// dropped, unknown priorities become medium and deadlines more than a day in
// the past are cleared.
func (s *AIService) DraftTasks(ctx context.Context, text string) ([]TaskDraft, error) {
	if s == nil || s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}

	drafts, err := s.generate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(drafts) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(drafts) > constants.MaxAIGeneratedTasks {
		return nil, ErrAITooManyTasks
	}

	valid := make([]TaskDraft, 0, len(drafts))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, d := range drafts {
		d.Title = strings.TrimSpace(d.Title)
		if d.Title == "" {
			continue
		}
		if !d.Priority.Valid() {
			d.Priority = kanban.PriorityMedium
		}
		if d.EstimatedHours < 0 {
			d.EstimatedHours = 0
		}
		if d.Tags == nil {
			d.Tags = []string{}
		}
		if d.DueDate != nil && d.DueDate.Before(cutoff) {
			d.DueDate = nil
		}
		valid = append(valid, d)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}

	return valid, nil
}
