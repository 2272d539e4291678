// Package sample holds offline fallback data used when Canvas or the
// personal calendar is unreachable or not configured.
package sample

import (
	"time"

	"studybot/internal/domain"
)

// Courses returns the demo course list
func Courses() []*domain.Course {
	return []*domain.Course{
		{ID: "cs3377", Name: "CS 3377 - Ethics in Computing", AllowAccess: true},
		{ID: "math2319", Name: "MATH 2319 - Statistics", AllowAccess: true},
		{ID: "hist1301", Name: "HIST 1301 - Modern History", AllowAccess: false},
	}
}

// Assignments returns demo assignments with due dates relative to now
func Assignments(now time.Time) []*domain.Assignment {
	return []*domain.Assignment{
		{
			ID:       "a1",
			CourseID: "cs3377",
			Title:    "Position Paper Draft",
			Due:      now.Add(36 * time.Hour),
			Weight:   domain.WeightProject,
		},
		{
			ID:       "a2",
			CourseID: "cs3377",
			Title:    "Case Study Review",
			Due:      now.Add(72 * time.Hour),
			Weight:   domain.WeightHomework,
		},
		{
			ID:       "a3",
			CourseID: "math2319",
			Title:    "Midterm Exam",
			Due:      now.Add(120 * time.Hour),
			Weight:   domain.WeightExam,
		},
	}
}

// Events returns demo personal events anchored on today
func Events(now time.Time) []*domain.PersonalEvent {
	at := func(hour int) time.Time {
		return time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	}
	return []*domain.PersonalEvent{
		{ID: "p1", Title: "Work shift", Start: at(15), End: at(17)},
		{ID: "p2", Title: "Gym", Start: at(18), End: at(19)},
	}
}

// DefaultPreferences returns the initial settings for a fresh session
func DefaultPreferences() *domain.Preferences {
	return &domain.Preferences{
		IncludeCanvas:        true,
		IncludePersonal:      true,
		ConsiderHabits:       "I focus best in the morning with short breaks.",
		FocusStart:           "08:00",
		FocusEnd:             "18:00",
		BreakMinutes:         15,
		NotificationsEnabled: true,
		ReminderMode:         domain.ReminderSmart,
	}
}

// StarterSchedule returns the onboarding block shown before any synthesis
func StarterSchedule(now time.Time) []*domain.ScheduleBlock {
	start := time.Date(now.Year(), now.Month(), now.Day(), 8, 30, 0, 0, now.Location())
	note := "AI generated onboarding task"
	return []*domain.ScheduleBlock{
		{
			ID:     "block-1",
			Label:  "Catch up on Canvas announcements",
			Start:  start,
			End:    start.Add(30 * time.Minute),
			Source: domain.SourceAI,
			Note:   &note,
		},
	}
}
