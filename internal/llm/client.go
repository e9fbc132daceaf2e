// Package llm turns meeting notes into proposed tracker changes using the
// Anthropic API.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"

	"minutesync/internal/logging"
	"minutesync/pkg/models"
)

const (
	maxTokens  = 4096
	maxRetries = 3

	// snapshotLimit caps how many tickets are rendered into the prompt.
	snapshotLimit = 50
)

// errAPIKeyRequired is returned when no API key is available.
var errAPIKeyRequired = errors.New("API key required")

// Client wraps the Anthropic API as a proposal source.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewClient creates a proposal source. The key comes from configuration;
// an empty key is an error here rather than a failed call later.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY", errAPIKeyRequired)
	}

	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}, nil
}

// Generate asks the model for proposed changes given the meeting notes and
// the current hierarchy snapshot. Transport failures are retried with
// exponential backoff and surface as an error after the last attempt;
// output that cannot be parsed as the expected JSON array degrades to zero
// proposals instead.
func (c *Client) Generate(ctx context.Context, meetingNotes, projectKey string, structure *models.HierarchyStructure) ([]models.ProposedChange, error) {
	userPrompt := renderUserPrompt(meetingNotes, projectKey, structure)

	responseText, err := c.callWithRetry(ctx, userPrompt)
	if err != nil {
		return nil, err
	}

	proposals, err := parseProposals(responseText)
	if err != nil {
		logging.Warn("generator output was not a valid proposal array, degrading to zero proposals",
			"project", projectKey,
			"error", err)
		return nil, nil
	}

	logging.Info("generated proposals",
		"project", projectKey,
		"count", len(proposals))

	return proposals, nil
}

func (c *Client) callWithRetry(ctx context.Context, userPrompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	var responseText string
	operation := func() error {
		message, err := c.client.Messages.New(ctx, params)
		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}

		if len(message.Content) == 0 || message.Content[0].Type != "text" {
			return backoff.Permanent(fmt.Errorf("unexpected response format: no text block"))
		}
		responseText = message.Content[0].Text
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	return responseText, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}

	return false
}

// parseProposals extracts the JSON array from the response, tolerating
// markdown fences and prose around it, and unmarshals it.
func parseProposals(responseText string) ([]models.ProposedChange, error) {
	jsonText := responseText
	if idx := strings.Index(jsonText, "["); idx >= 0 {
		jsonText = jsonText[idx:]
	}
	if idx := strings.LastIndex(jsonText, "]"); idx >= 0 {
		jsonText = jsonText[:idx+1]
	}

	var proposals []models.ProposedChange
	if err := json.Unmarshal([]byte(jsonText), &proposals); err != nil {
		return nil, fmt.Errorf("parse proposal array: %w", err)
	}
	return proposals, nil
}

// renderUserPrompt lays out the project snapshot bucket by bucket so the
// model sees the existing hierarchy, then the meeting notes.
func renderUserPrompt(meetingNotes, projectKey string, structure *models.HierarchyStructure) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Project: %s\n\nExisting hierarchy:\n", projectKey)

	remaining := snapshotLimit
	remaining = renderBucket(&sb, "Epics", structure.Epics, remaining)
	remaining = renderBucket(&sb, "Stories", structure.Stories, remaining)
	remaining = renderBucket(&sb, "Tasks", structure.Tasks, remaining)
	remaining = renderBucket(&sb, "Subtasks", structure.Subtasks, remaining)
	if remaining == snapshotLimit {
		sb.WriteString("(no existing tickets)\n")
	}

	fmt.Fprintf(&sb, "\nMeeting notes:\n%s\n\nAnalyze the meeting notes and propose changes as a JSON array.", meetingNotes)
	return sb.String()
}

func renderBucket(sb *strings.Builder, label string, bucket map[string]*models.Ticket, remaining int) int {
	if len(bucket) == 0 || remaining <= 0 {
		return remaining
	}

	keys := make([]string, 0, len(bucket))
	for key := range bucket {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Fprintf(sb, "%s:\n", label)
	for _, key := range keys {
		if remaining <= 0 {
			break
		}
		ticket := bucket[key]
		fmt.Fprintf(sb, "- %s: [%s] %s", ticket.Key, ticket.IssueType, ticket.Summary)
		if ticket.ParentKey != "" {
			fmt.Fprintf(sb, " (parent: %s)", ticket.ParentKey)
		}
		sb.WriteString("\n")
		remaining--
	}
	return remaining
}

const systemPrompt = `You are a project management assistant for a hierarchical issue tracker (Epic > Story > Task > Subtask). Your task is to analyze meeting notes and compare them with the existing ticket hierarchy to identify:
1. New epics, stories, tasks, subtasks or bugs that should be created
2. Existing tickets that need to be updated based on meeting decisions
3. Existing tickets that already cover a discussed item

You must respond ONLY with a valid JSON array of proposed changes. Each change must have this exact structure:
{
  "action": "create" or "modify" or "reuse_existing",
  "issue_type": "Epic" or "Story" or "Task" or "Subtask" or "Bug",
  "summary": "Brief title",
  "description": "Detailed description",
  "parent_summary": "Title of the parent ticket, existing or proposed in this same array" (omit for epics),
  "story_points": 3 (optional),
  "priority": "High" (optional),
  "dependencies": ["Title of another ticket this depends on"] (optional),
  "ticket_key": "PROJ-123" (only for modify and reuse_existing actions),
  "reasoning": "Why this change is needed based on the meeting"
}

Respect the hierarchy strictly: a Story's parent must be an Epic, a Task's parent a Story, a Subtask's parent a Task. Never propose a subtask without a parent_summary.

IMPORTANT: Respond with ONLY a JSON array, no additional text or explanation.`
