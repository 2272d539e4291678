package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"studybot/internal/domain"
)

// ErrNotConfigured is returned before any network attempt when the Canvas
// domain or token is missing. Callers fall back to offline sample data.
var ErrNotConfigured = errors.New("canvas domain or token missing")

// Client is a Canvas LMS REST API client
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new Canvas client. domain is the institution host
// (e.g. "school.instructure.com"); a full URL is accepted as-is.
func NewClient(domain, token string) *Client {
	baseURL := domain
	if baseURL != "" && !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsConfigured returns true if the client has a domain and token
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.token != ""
}

// doRequest performs an authenticated GET and returns the response body
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		// Body is best effort; an unreadable body must not mask the status.
		if readErr != nil {
			body = nil
		}
		return nil, fmt.Errorf("canvas API error %d: %s", resp.StatusCode, string(body))
	}
	if readErr != nil {
		return nil, fmt.Errorf("read response: %w", readErr)
	}
	return body, nil
}

// FetchCourses returns all active courses for the authenticated account.
// Planner access defaults to allowed; the student revokes it per course.
func (c *Client) FetchCourses(ctx context.Context) ([]*domain.Course, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	data, err := c.doRequest(ctx, "/api/v1/courses?per_page=50&enrollment_state=active")
	if err != nil {
		return nil, fmt.Errorf("fetch courses: %w", err)
	}

	var raw []courseResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal courses: %w", err)
	}

	courses := make([]*domain.Course, 0, len(raw))
	for _, r := range raw {
		name := r.Name
		if name == "" {
			name = r.CourseCode
		}
		if name == "" {
			name = fmt.Sprintf("Course %d", r.ID)
		}
		courses = append(courses, &domain.Course{
			ID:          strconv.FormatInt(r.ID, 10),
			Name:        name,
			AllowAccess: true,
		})
	}
	return courses, nil
}

// FetchAssignments returns upcoming due-dated assignments for the given
// courses. Assignments without a due date are dropped; weight is inferred
// from the title. Timestamps that fail to parse are logged and skipped
// rather than propagated into the planner.
func (c *Client) FetchAssignments(ctx context.Context, courseIDs []string) ([]*domain.Assignment, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	var assignments []*domain.Assignment
	for _, courseID := range courseIDs {
		path := fmt.Sprintf("/api/v1/courses/%s/assignments?bucket=upcoming&per_page=50", courseID)
		data, err := c.doRequest(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("fetch assignments for course %s: %w", courseID, err)
		}

		var raw []assignmentResponse
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal assignments: %w", err)
		}

		for _, r := range raw {
			if r.DueAt == nil || *r.DueAt == "" {
				continue
			}
			due, err := time.Parse(time.RFC3339, *r.DueAt)
			if err != nil {
				log.Printf("Skipping assignment %d: bad due_at %q: %v", r.ID, *r.DueAt, err)
				continue
			}
			title := r.Name
			if title == "" {
				title = fmt.Sprintf("Assignment %d", r.ID)
			}
			assignments = append(assignments, &domain.Assignment{
				ID:       strconv.FormatInt(r.ID, 10),
				CourseID: courseID,
				Title:    title,
				Due:      due,
				Weight:   domain.InferWeight(title),
			})
		}
	}
	return assignments, nil
}
