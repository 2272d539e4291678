package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"studybot/internal/domain"
	"studybot/internal/planner"
	"studybot/internal/storage"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// stubProducer stands in for the Gemini strategy in tests
type stubProducer struct {
	blocks []*domain.ScheduleBlock
	err    error
}

func (p *stubProducer) Plan(_ context.Context, _ planner.Input) ([]*domain.ScheduleBlock, error) {
	return p.blocks, p.err
}

func newTestPlanService(t *testing.T, now time.Time, generative planner.Producer) (*PlanService, *CourseService, *CalendarService) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "studybot.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	courseSvc := NewCourseService(store, nil)
	calSvc := NewCalendarService(store, nil, time.UTC)
	planSvc := NewPlanService(store, courseSvc, calSvc, planner.New(fixedClock{now: now}), generative)
	return planSvc, courseSvc, calSvc
}

func TestBuildPlan_Deterministic(t *testing.T) {
	now := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	planSvc, courseSvc, calSvc := newTestPlanService(t, now, nil)

	if err := courseSvc.LoadSample(now); err != nil {
		t.Fatalf("LoadSample() error = %v", err)
	}
	if err := calSvc.SeedSample(now); err != nil {
		t.Fatalf("SeedSample() error = %v", err)
	}

	blocks, err := planSvc.BuildPlan(context.Background(), StrategyDeterministic)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	// 3 sample assignments in allowed courses, 2 sample events, 1 AI block.
	if len(blocks) != 6 {
		t.Fatalf("len(blocks) = %d, want 6", len(blocks))
	}
	for i := 1; i < len(blocks); i++ {
		if blocks[i].Start.Before(blocks[i-1].Start) {
			t.Errorf("blocks out of order at %d", i)
		}
	}

	// The plan survives a reload.
	stored, err := planSvc.CurrentPlan()
	if err != nil {
		t.Fatalf("CurrentPlan() error = %v", err)
	}
	if len(stored) != len(blocks) {
		t.Errorf("len(stored) = %d, want %d", len(stored), len(blocks))
	}
}

func TestBuildPlan_GenerativeStrategy(t *testing.T) {
	now := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	note := "from gemini"
	stub := &stubProducer{blocks: []*domain.ScheduleBlock{
		{ID: "gemini-0", Label: "Read Ch.1", Start: now, End: now.Add(time.Hour), Source: domain.SourceAI, Note: &note},
	}}
	planSvc, _, _ := newTestPlanService(t, now, stub)

	blocks, err := planSvc.BuildPlan(context.Background(), StrategyGenerative)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	if len(blocks) != 1 || blocks[0].ID != "gemini-0" {
		t.Fatalf("blocks = %+v, want stub output", blocks)
	}
}

func TestBuildPlan_GenerativeUnavailable(t *testing.T) {
	now := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)

	t.Run("not wired", func(t *testing.T) {
		planSvc, _, _ := newTestPlanService(t, now, nil)
		if _, err := planSvc.BuildPlan(context.Background(), StrategyGenerative); err == nil {
			t.Error("BuildPlan() expected error without generative producer")
		}
	})

	t.Run("producer failure is not persisted", func(t *testing.T) {
		stub := &stubProducer{err: errors.New("no content")}
		planSvc, _, _ := newTestPlanService(t, now, stub)

		if _, err := planSvc.BuildPlan(context.Background(), StrategyGenerative); err == nil {
			t.Fatal("BuildPlan() expected error from failing producer")
		}
		stored, _ := planSvc.CurrentPlan()
		if len(stored) != 0 {
			t.Errorf("len(stored) = %d after failure, want 0", len(stored))
		}
	})
}

func TestShiftBlock(t *testing.T) {
	now := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	planSvc, courseSvc, _ := newTestPlanService(t, now, nil)
	if err := courseSvc.LoadSample(now); err != nil {
		t.Fatalf("LoadSample() error = %v", err)
	}

	blocks, err := planSvc.BuildPlan(context.Background(), StrategyDeterministic)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	target := blocks[0]
	wantStart := target.Start.Add(30 * time.Minute)
	wantDuration := target.Duration()

	shifted, err := planSvc.ShiftBlock(target.ID, 30)
	if err != nil {
		t.Fatalf("ShiftBlock() error = %v", err)
	}
	if !shifted.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", shifted.Start, wantStart)
	}
	if shifted.Duration() != wantDuration {
		t.Errorf("Duration() = %v, want %v", shifted.Duration(), wantDuration)
	}

	// Edit must be visible on reload.
	stored, _ := planSvc.CurrentPlan()
	for _, b := range stored {
		if b.ID == target.ID {
			if !b.Start.Equal(wantStart) {
				t.Errorf("stored Start = %v, want %v", b.Start, wantStart)
			}
			if got := b.NoteText(); len(got) < len(" (edited)") || got[len(got)-len(" (edited)"):] != " (edited)" {
				t.Errorf("stored note = %q, want edit marker suffix", got)
			}
		}
	}

	if _, err := planSvc.ShiftBlock("missing", 30); err == nil {
		t.Error("ShiftBlock() expected error for unknown block")
	}
}

func TestVisiblePlan_RespectsLiveToggles(t *testing.T) {
	now := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	planSvc, courseSvc, calSvc := newTestPlanService(t, now, nil)
	if err := courseSvc.LoadSample(now); err != nil {
		t.Fatalf("LoadSample() error = %v", err)
	}
	if err := calSvc.SeedSample(now); err != nil {
		t.Fatalf("SeedSample() error = %v", err)
	}

	if _, err := planSvc.BuildPlan(context.Background(), StrategyDeterministic); err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}

	before, err := planSvc.VisiblePlan()
	if err != nil {
		t.Fatalf("VisiblePlan() error = %v", err)
	}

	// Revoking a course after synthesis hides its blocks without replanning.
	if _, err := courseSvc.ToggleAccess("cs3377"); err != nil {
		t.Fatalf("ToggleAccess() error = %v", err)
	}
	after, err := planSvc.VisiblePlan()
	if err != nil {
		t.Fatalf("VisiblePlan() error = %v", err)
	}
	if len(after) >= len(before) {
		t.Errorf("visible = %d after revoke, want fewer than %d", len(after), len(before))
	}
	for _, b := range after {
		if b.CourseID != nil && *b.CourseID == "cs3377" {
			t.Error("revoked course block still visible")
		}
	}

	// Toggling personal off hides personal blocks too.
	prefs, _ := planSvc.Preferences()
	prefs.IncludePersonal = false
	if err := planSvc.SavePreferences(prefs); err != nil {
		t.Fatalf("SavePreferences() error = %v", err)
	}
	final, _ := planSvc.VisiblePlan()
	for _, b := range final {
		if b.Source == domain.SourcePersonal {
			t.Error("personal block visible with IncludePersonal=false")
		}
	}
}
