package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"studybot/internal/domain"
)

// AIBlockID is the fixed id of the single AI focus-sprint block that every
// synthesized plan contains.
const AIBlockID = "ai-personalized"

const aiSprintDuration = 90 * time.Minute

// Input carries everything a plan producer needs for one invocation.
// Producers never retain it across calls.
type Input struct {
	Assignments []*domain.Assignment
	Courses     []*domain.Course
	Events      []*domain.PersonalEvent
	Preferences *domain.Preferences
}

// Producer turns session state into an ordered block list. The deterministic
// Planner and the Gemini client both implement it; the caller picks one,
// the two strategies are never merged.
type Producer interface {
	Plan(ctx context.Context, in Input) ([]*domain.ScheduleBlock, error)
}

// Clock abstracts time retrieval so the AI sprint block is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Planner is the deterministic schedule synthesizer. It is stateless: each
// call re-derives its output from the full input set and never mutates
// caller-supplied values.
type Planner struct {
	clock Clock
}

func New(clock Clock) *Planner {
	if clock == nil {
		clock = RealClock{}
	}
	return &Planner{clock: clock}
}

// Plan implements Producer.
func (p *Planner) Plan(_ context.Context, in Input) ([]*domain.ScheduleBlock, error) {
	return p.Synthesize(in.Assignments, in.Courses, in.Events, in.Preferences), nil
}

// Synthesize merges assignments, personal events and preferences into one
// timeline, sorted ascending by start time. Assignments from courses without
// planner access are discarded; the remainder are scheduled backward from
// their due dates, earlier-due assignments getting earlier and more widely
// spaced starts, all clamped into the focus window.
func (p *Planner) Synthesize(assignments []*domain.Assignment, courses []*domain.Course, events []*domain.PersonalEvent, prefs *domain.Preferences) []*domain.ScheduleBlock {
	allowed := domain.AllowedCourseIDs(courses)
	names := domain.CourseNames(courses)

	var courseAssignments []*domain.Assignment
	for _, a := range assignments {
		if allowed[a.CourseID] {
			courseAssignments = append(courseAssignments, a)
		}
	}
	sort.SliceStable(courseAssignments, func(i, j int) bool {
		return courseAssignments[i].Due.Before(courseAssignments[j].Due)
	})

	var canvasBlocks []*domain.ScheduleBlock
	for i, a := range courseAssignments {
		tentative := a.Due.Add(-time.Duration(i+3) * time.Hour)
		start := ClampToFocus(tentative, prefs)
		end := start.Add(a.Weight.BlockDuration())

		name := names[a.CourseID]
		if name == "" {
			name = "Course"
		}
		courseID := a.CourseID
		note := fmt.Sprintf("Prioritize because due %s.", a.Due.Format("Mon Jan 2 15:04"))

		canvasBlocks = append(canvasBlocks, &domain.ScheduleBlock{
			ID:       "canvas-" + a.ID,
			Label:    name + ": " + a.Title,
			Start:    start,
			End:      end,
			Source:   domain.SourceCanvas,
			CourseID: &courseID,
			Note:     &note,
		})
	}

	var personalBlocks []*domain.ScheduleBlock
	if prefs.IncludePersonal {
		for _, evt := range events {
			note := "Synced from personal calendar."
			personalBlocks = append(personalBlocks, &domain.ScheduleBlock{
				ID:     "personal-" + evt.ID,
				Label:  evt.Title,
				Start:  evt.Start,
				End:    evt.End,
				Source: domain.SourcePersonal,
				Note:   &note,
			})
		}
	}

	aiStart := ClampToFocus(p.clock.Now(), prefs)
	aiNote := fmt.Sprintf("Consider habits: %s. %s", prefs.ConsiderHabits, prefs.ReminderMode.Description())
	aiBlock := &domain.ScheduleBlock{
		ID:     AIBlockID,
		Label:  "AI Study Sprint",
		Start:  aiStart,
		End:    aiStart.Add(aiSprintDuration),
		Source: domain.SourceAI,
		Note:   &aiNote,
	}

	// Stable sort keeps personal before canvas before ai on equal starts.
	combined := make([]*domain.ScheduleBlock, 0, len(personalBlocks)+len(canvasBlocks)+1)
	combined = append(combined, personalBlocks...)
	combined = append(combined, canvasBlocks...)
	combined = append(combined, aiBlock)
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Start.Before(combined[j].Start)
	})

	return combined
}

// ClampToFocus snaps a tentative start time into the focus window on the
// same calendar day. Times before the window snap to the window start; times
// at or past the window end snap to the window start of the following day.
// Durations are never adjusted here.
func ClampToFocus(t time.Time, prefs *domain.Preferences) time.Time {
	start, end := prefs.FocusWindow()
	windowStart := time.Date(t.Year(), t.Month(), t.Day(), start.Hour, start.Minute, 0, 0, t.Location())
	windowEnd := time.Date(t.Year(), t.Month(), t.Day(), end.Hour, end.Minute, 0, 0, t.Location())

	if t.Before(windowStart) {
		return windowStart
	}
	if !t.Before(windowEnd) {
		return windowStart.AddDate(0, 0, 1)
	}
	return t
}

// AdjustBlock shifts the block with the given id by a signed number of
// minutes, preserving its duration, id and source, and marks the note as
// edited. No re-clamping happens; a shifted block may leave the focus window
// or overlap its neighbors.
func AdjustBlock(blocks []*domain.ScheduleBlock, id string, minutes int) error {
	for _, b := range blocks {
		if b.ID != id {
			continue
		}
		delta := time.Duration(minutes) * time.Minute
		b.Start = b.Start.Add(delta)
		b.End = b.End.Add(delta)
		b.AppendNote(" (edited)")
		return nil
	}
	return fmt.Errorf("block not found: %s", id)
}
