package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"studybot/internal/domain"
)

func testPrefs() *domain.Preferences {
	return &domain.Preferences{
		IncludeCanvas:        true,
		IncludePersonal:      true,
		ConsiderHabits:       "Short evening sessions work best.",
		FocusStart:           "08:00",
		FocusEnd:             "18:00",
		BreakMinutes:         15,
		NotificationsEnabled: true,
		ReminderMode:         domain.ReminderSmart,
	}
}

func TestParsePlan(t *testing.T) {
	t.Run("single well-formed line", func(t *testing.T) {
		blocks := ParsePlan("Read Ch.1 | 2024-01-01T08:00:00.000Z | 2024-01-01T09:00:00.000Z | canvas | review")

		if len(blocks) != 1 {
			t.Fatalf("len(blocks) = %d, want 1", len(blocks))
		}
		b := blocks[0]
		if b.ID != "gemini-0" {
			t.Errorf("ID = %q, want gemini-0", b.ID)
		}
		if b.Label != "Read Ch.1" {
			t.Errorf("Label = %q, want %q", b.Label, "Read Ch.1")
		}
		if b.Source != domain.SourceCanvas {
			t.Errorf("Source = %q, want canvas", b.Source)
		}
		if b.NoteText() != "review" {
			t.Errorf("note = %q, want review", b.NoteText())
		}
		wantStart := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
		if !b.Start.Equal(wantStart) {
			t.Errorf("Start = %v, want %v", b.Start, wantStart)
		}
		if b.Duration() != time.Hour {
			t.Errorf("Duration() = %v, want 1h", b.Duration())
		}
	})

	t.Run("no pipes yields empty", func(t *testing.T) {
		if blocks := ParsePlan("Here is your plan.\nStudy hard!"); len(blocks) != 0 {
			t.Errorf("len(blocks) = %d, want 0", len(blocks))
		}
	})

	t.Run("prose lines discarded, order preserved", func(t *testing.T) {
		text := "Your schedule:\n" +
			"Essay | 2024-01-01T14:00:00Z | 2024-01-01T15:00:00Z | canvas | due soon\n" +
			"Gym | 2024-01-01T09:00:00Z | 2024-01-01T10:00:00Z | personal |\n" +
			"Enjoy!"
		blocks := ParsePlan(text)

		if len(blocks) != 2 {
			t.Fatalf("len(blocks) = %d, want 2", len(blocks))
		}
		// Response-line order, not start order.
		if blocks[0].Label != "Essay" || blocks[1].Label != "Gym" {
			t.Errorf("order = %q, %q; want Essay, Gym", blocks[0].Label, blocks[1].Label)
		}
		if blocks[0].ID != "gemini-0" || blocks[1].ID != "gemini-1" {
			t.Errorf("ids = %q, %q", blocks[0].ID, blocks[1].ID)
		}
		if blocks[1].Note != nil {
			t.Errorf("empty note should stay absent, got %q", blocks[1].NoteText())
		}
	})

	t.Run("blank label gets positional fallback", func(t *testing.T) {
		blocks := ParsePlan(" | 2024-01-01T08:00:00Z | 2024-01-01T09:00:00Z | ai | x")
		if len(blocks) != 1 {
			t.Fatalf("len(blocks) = %d, want 1", len(blocks))
		}
		if blocks[0].Label != "Task 1" {
			t.Errorf("Label = %q, want Task 1", blocks[0].Label)
		}
	})

	t.Run("unknown source defaults to ai", func(t *testing.T) {
		blocks := ParsePlan("X | 2024-01-01T08:00:00Z | 2024-01-01T09:00:00Z | calendar | y")
		if blocks[0].Source != domain.SourceAI {
			t.Errorf("Source = %q, want ai", blocks[0].Source)
		}
	})

	t.Run("bad timestamp skips line but keeps ids stable", func(t *testing.T) {
		text := "Bad | not-a-time | 2024-01-01T09:00:00Z | ai | x\n" +
			"Good | 2024-01-01T10:00:00Z | 2024-01-01T11:00:00Z | ai | y"
		blocks := ParsePlan(text)

		if len(blocks) != 1 {
			t.Fatalf("len(blocks) = %d, want 1", len(blocks))
		}
		if blocks[0].ID != "gemini-1" {
			t.Errorf("ID = %q, want gemini-1", blocks[0].ID)
		}
	})
}

func TestBuildPrompt(t *testing.T) {
	assignments := []*domain.Assignment{
		{ID: "a1", CourseID: "cs3377", Title: "Position Paper", Due: time.Date(2024, 3, 14, 17, 0, 0, 0, time.UTC), Weight: domain.WeightProject},
	}
	events := []*domain.PersonalEvent{
		{ID: "p1", Title: "Work shift", Start: time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 12, 17, 0, 0, 0, time.UTC)},
	}

	prompt := BuildPrompt(assignments, events, testPrefs())

	for _, want := range []string{
		"Position Paper (course cs3377)",
		"type project",
		"Work shift: 2024-03-12T15:00:00Z to 2024-03-12T17:00:00Z",
		"focus window 08:00 to 18:00",
		"prefer 15 minute breaks",
		"reminders mode: smart",
		"notificationsEnabled=true",
		"Short evening sessions work best.",
		"no prose",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Same inputs must render the same prompt.
	if prompt != BuildPrompt(assignments, events, testPrefs()) {
		t.Error("prompt is not deterministic")
	}
}

func TestRequestPlan(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key fails before any request", func(t *testing.T) {
		c := NewClient("")
		c.baseURL = "http://127.0.0.1:1" // would fail loudly if dialed
		if _, err := c.RequestPlan(ctx, nil, nil, testPrefs()); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("error = %v, want ErrNotConfigured", err)
		}
	})

	t.Run("successful round trip", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", r.Method)
			}
			if !strings.Contains(r.URL.Path, "gemini-1.5-flash-latest") {
				t.Errorf("path = %s, want model segment", r.URL.Path)
			}
			if r.URL.Query().Get("key") != "test-key" {
				t.Errorf("key = %q, want test-key", r.URL.Query().Get("key"))
			}
			w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Read Ch.1 | 2024-01-01T08:00:00Z | 2024-01-01T09:00:00Z | canvas | review"}]}}]}`))
		}))
		defer srv.Close()

		c := NewClient("test-key")
		c.baseURL = srv.URL

		blocks, err := c.RequestPlan(ctx, nil, nil, testPrefs())
		if err != nil {
			t.Fatalf("RequestPlan() error = %v", err)
		}
		if len(blocks) != 1 || blocks[0].Label != "Read Ch.1" {
			t.Fatalf("blocks = %+v, want one Read Ch.1 block", blocks)
		}
	})

	t.Run("http failure carries status and body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewClient("test-key")
		c.baseURL = srv.URL

		_, err := c.RequestPlan(ctx, nil, nil, testPrefs())
		if err == nil {
			t.Fatal("RequestPlan() expected error")
		}
		if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "quota exceeded") {
			t.Errorf("error = %v, want status and body", err)
		}
	})

	t.Run("empty candidates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"candidates":[]}`))
		}))
		defer srv.Close()

		c := NewClient("test-key")
		c.baseURL = srv.URL

		if _, err := c.RequestPlan(ctx, nil, nil, testPrefs()); !errors.Is(err, ErrNoContent) {
			t.Errorf("error = %v, want ErrNoContent", err)
		}
	})

	t.Run("text without schedule lines", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Sorry, I cannot help with that."}]}}]}`))
		}))
		defer srv.Close()

		c := NewClient("test-key")
		c.baseURL = srv.URL

		if _, err := c.RequestPlan(ctx, nil, nil, testPrefs()); !errors.Is(err, ErrUnparsable) {
			t.Errorf("error = %v, want ErrUnparsable", err)
		}
	})
}
