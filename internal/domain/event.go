package domain

import "time"

// PersonalEvent represents an entry from the student's own calendar,
// either synced over CalDAV or added by hand.
type PersonalEvent struct {
	ID       string
	Title    string
	Start    time.Time
	End      time.Time
	SyncedAt *time.Time // Last CalDAV sync, nil for manual entries
}

// FormatRange returns formatted times for display
func (e *PersonalEvent) FormatRange() string {
	if e.End.IsZero() {
		return e.Start.Format("02.01 15:04")
	}
	return e.Start.Format("02.01 15:04") + "-" + e.End.Format("15:04")
}
