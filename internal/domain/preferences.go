package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type ReminderMode string

const (
	ReminderGentle    ReminderMode = "gentle"
	ReminderSmart     ReminderMode = "smart"
	ReminderProactive ReminderMode = "proactive"
)

// ParseReminderMode maps a raw mode string to a ReminderMode, defaulting to
// smart for anything unrecognized.
func ParseReminderMode(s string) ReminderMode {
	switch ReminderMode(s) {
	case ReminderGentle, ReminderProactive:
		return ReminderMode(s)
	default:
		return ReminderSmart
	}
}

// Description returns the reminder style shown to the student.
// Unrecognized modes fall back to smart.
func (m ReminderMode) Description() string {
	switch m {
	case ReminderGentle:
		return "Gentle reminders at the start of each block."
	case ReminderProactive:
		return "Extra reminders with check-ins on progress mid-block."
	default:
		return "Smart reminders that adapt if work spills over."
	}
}

// Preferences is the single live settings object for a student session.
// It is passed explicitly into every planner call, never read ambiently.
type Preferences struct {
	IncludeCanvas        bool
	IncludePersonal      bool
	ConsiderHabits       string // Freeform habit text, embedded into plans
	FocusStart           string // "HH:MM"
	FocusEnd             string // "HH:MM"
	BreakMinutes         int
	NotificationsEnabled bool
	ReminderMode         ReminderMode
}

// ClockTime is a time of day within the focus window
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses an "HH:MM" string
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("invalid time format: %s", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid minute in %q", s)
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// FocusWindow returns the parsed focus window bounds. Malformed values
// fall back to the 08:00-18:00 default window.
func (p *Preferences) FocusWindow() (start, end ClockTime) {
	var err error
	start, err = ParseClockTime(p.FocusStart)
	if err != nil {
		start = ClockTime{Hour: 8}
	}
	end, err = ParseClockTime(p.FocusEnd)
	if err != nil {
		end = ClockTime{Hour: 18}
	}
	return start, end
}
