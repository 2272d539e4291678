package service

import (
	"context"
	"fmt"

	"studybot/internal/domain"
	"studybot/internal/planner"
	"studybot/internal/sample"
	"studybot/internal/storage"
)

// Strategy selects which plan producer builds the timeline
type Strategy string

const (
	// StrategyDeterministic runs the local synthesizer
	StrategyDeterministic Strategy = "deterministic"
	// StrategyGenerative asks the Gemini API
	StrategyGenerative Strategy = "generative"
)

// PlanService owns the session's schedule: it gathers inputs, runs the
// selected producer, persists the result and applies manual edits. The two
// producers stay separate code paths; this service only picks between them.
type PlanService struct {
	storage       *storage.Storage
	courseService *CourseService
	calendar      *CalendarService
	deterministic planner.Producer
	generative    planner.Producer
}

func NewPlanService(s *storage.Storage, courseSvc *CourseService, calSvc *CalendarService, deterministic, generative planner.Producer) *PlanService {
	return &PlanService{
		storage:       s,
		courseService: courseSvc,
		calendar:      calSvc,
		deterministic: deterministic,
		generative:    generative,
	}
}

// Preferences returns the live preferences, seeding the defaults on first use
func (s *PlanService) Preferences() (*domain.Preferences, error) {
	prefs, err := s.storage.GetPreferences()
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	if prefs == nil {
		prefs = sample.DefaultPreferences()
		if err := s.storage.SavePreferences(prefs); err != nil {
			return nil, fmt.Errorf("seed preferences: %w", err)
		}
	}
	return prefs, nil
}

// SavePreferences replaces the live preferences row
func (s *PlanService) SavePreferences(p *domain.Preferences) error {
	return s.storage.SavePreferences(p)
}

// input assembles the full producer input from current session state
func (s *PlanService) input() (planner.Input, error) {
	prefs, err := s.Preferences()
	if err != nil {
		return planner.Input{}, err
	}
	courses, err := s.courseService.Courses()
	if err != nil {
		return planner.Input{}, fmt.Errorf("list courses: %w", err)
	}
	events, err := s.calendar.Events()
	if err != nil {
		return planner.Input{}, fmt.Errorf("list events: %w", err)
	}
	return planner.Input{
		Assignments: s.courseService.Assignments(),
		Courses:     courses,
		Events:      events,
		Preferences: prefs,
	}, nil
}

// BuildPlan runs the selected producer over current session state and
// stores the result as the live plan.
func (s *PlanService) BuildPlan(ctx context.Context, strategy Strategy) ([]*domain.ScheduleBlock, error) {
	in, err := s.input()
	if err != nil {
		return nil, err
	}

	producer := s.deterministic
	if strategy == StrategyGenerative {
		if s.generative == nil {
			return nil, fmt.Errorf("generative planner not configured")
		}
		producer = s.generative
	}

	blocks, err := producer.Plan(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.storage.SavePlan(blocks); err != nil {
		return nil, fmt.Errorf("store plan: %w", err)
	}
	return blocks, nil
}

// CurrentPlan returns the stored plan in producer order
func (s *PlanService) CurrentPlan() ([]*domain.ScheduleBlock, error) {
	return s.storage.LoadPlan()
}

// VisiblePlan returns the stored plan filtered against live permission and
// preference state. The filter never re-runs synthesis; toggles take effect
// immediately on the stored blocks.
func (s *PlanService) VisiblePlan() ([]*domain.ScheduleBlock, error) {
	blocks, err := s.storage.LoadPlan()
	if err != nil {
		return nil, err
	}
	courses, err := s.courseService.Courses()
	if err != nil {
		return nil, err
	}
	prefs, err := s.Preferences()
	if err != nil {
		return nil, err
	}
	return planner.FilterVisible(blocks, courses, prefs), nil
}

// ShiftBlock moves one block by a signed number of minutes and persists the
// edit. Duration, id and source are preserved; the note gains an edit marker.
func (s *PlanService) ShiftBlock(id string, minutes int) (*domain.ScheduleBlock, error) {
	blocks, err := s.storage.LoadPlan()
	if err != nil {
		return nil, err
	}
	if err := planner.AdjustBlock(blocks, id, minutes); err != nil {
		return nil, err
	}
	for _, b := range blocks {
		if b.ID == id {
			if err := s.storage.UpdatePlanBlock(b); err != nil {
				return nil, err
			}
			return b, nil
		}
	}
	return nil, fmt.Errorf("block not found: %s", id)
}
