package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"studybot/internal/domain"
	"studybot/internal/planner"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	model          = "gemini-1.5-flash-latest"
)

var (
	// ErrNotConfigured is returned before any network attempt when the API
	// key is missing.
	ErrNotConfigured = errors.New("gemini API key missing")
	// ErrNoContent means the service answered but carried no text.
	ErrNoContent = errors.New("gemini returned no content")
	// ErrUnparsable means the response text contained no schedule lines.
	ErrUnparsable = errors.New("could not parse schedule from gemini response")
)

// Client asks the Gemini API for a study plan. It is the generative
// counterpart of the deterministic planner and produces the same block
// shape, so the caller can swap strategies freely.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Gemini client
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsConfigured returns true if the client has an API key
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Plan implements planner.Producer.
func (c *Client) Plan(ctx context.Context, in planner.Input) ([]*domain.ScheduleBlock, error) {
	return c.RequestPlan(ctx, in.Assignments, in.Events, in.Preferences)
}

// RequestPlan sends exactly one generation request and parses the answer
// into schedule blocks. There is no retry, batching or streaming; cancelling
// ctx aborts the pending call. Blocks come back in response-line order,
// deliberately not re-sorted the way the deterministic planner sorts.
func (c *Client) RequestPlan(ctx context.Context, assignments []*domain.Assignment, events []*domain.PersonalEvent, prefs *domain.Preferences) ([]*domain.ScheduleBlock, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	payload := generateRequest{
		Contents:         []requestContent{{Parts: []requestPart{{Text: BuildPrompt(assignments, events, prefs)}}}},
		GenerationConfig: generationConfig{Temperature: 0.2},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		// Body is best effort; an unreadable body must not mask the status.
		if readErr != nil {
			respBody = nil
		}
		return nil, fmt.Errorf("gemini request failed: %d %s", resp.StatusCode, string(respBody))
	}
	if readErr != nil {
		return nil, fmt.Errorf("read response: %w", readErr)
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	text := parsed.text()
	if text == "" {
		return nil, ErrNoContent
	}

	blocks := ParsePlan(text)
	if len(blocks) == 0 {
		return nil, ErrUnparsable
	}
	return blocks, nil
}

// BuildPrompt renders the deterministic prompt embedding every assignment,
// personal event and the user's preferences, and pins the answer to the
// "label | start | end | source | note" line grammar.
func BuildPrompt(assignments []*domain.Assignment, events []*domain.PersonalEvent, prefs *domain.Preferences) string {
	var assignmentList strings.Builder
	for _, a := range assignments {
		fmt.Fprintf(&assignmentList, "- %s (course %s), due %s, type %s\n", a.Title, a.CourseID, a.Due.Format(time.RFC3339), a.Weight)
	}
	var eventList strings.Builder
	for _, e := range events {
		fmt.Fprintf(&eventList, "- %s: %s to %s\n", e.Title, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
	}

	return strings.TrimSpace(fmt.Sprintf(`You are an AI study scheduler. Create a time-boxed daily plan formatted as lines with "label | start ISO | end ISO | source (ai/canvas/personal) | note".
Constraints:
- Obey user focus window %s to %s and prefer %d minute breaks between tasks.
- Use smart reminders mode: %s; notificationsEnabled=%t.
- Maintain respect of personal events (busy).
- Keep tasks concise and merge Canvas assignments with personal tasks.
- Only output the schedule lines, no prose.

Canvas assignments:
%s
Personal events:
%s
Habits and preferences: %s`,
		prefs.FocusStart, prefs.FocusEnd, prefs.BreakMinutes,
		prefs.ReminderMode, prefs.NotificationsEnabled,
		assignmentList.String(), eventList.String(), prefs.ConsiderHabits))
}

// ParsePlan turns response text into blocks. Lines without a pipe are
// discarded; surviving lines keep their index for the block id even when a
// later line is dropped for a bad timestamp, so ids stay stable against the
// raw response.
func ParsePlan(text string) []*domain.ScheduleBlock {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "|") {
			continue
		}
		kept = append(kept, line)
	}

	var blocks []*domain.ScheduleBlock
	for idx, line := range kept {
		parts := strings.Split(line, "|")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		field := func(i int) string {
			if i < len(parts) {
				return parts[i]
			}
			return ""
		}

		start, err := time.Parse(time.RFC3339, field(1))
		if err != nil {
			log.Printf("Skipping plan line %d: bad start %q: %v", idx, field(1), err)
			continue
		}
		end, err := time.Parse(time.RFC3339, field(2))
		if err != nil {
			log.Printf("Skipping plan line %d: bad end %q: %v", idx, field(2), err)
			continue
		}

		label := field(0)
		if label == "" {
			label = fmt.Sprintf("Task %d", idx+1)
		}

		block := &domain.ScheduleBlock{
			ID:     fmt.Sprintf("gemini-%d", idx),
			Label:  label,
			Start:  start,
			End:    end,
			Source: domain.ParseBlockSource(field(3)),
		}
		if note := field(4); note != "" {
			block.Note = &note
		}
		blocks = append(blocks, block)
	}
	return blocks
}
