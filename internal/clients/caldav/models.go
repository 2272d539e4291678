package caldav

import "time"

// Calendar represents one calendar collection on the server
type Calendar struct {
	ID          string // Calendar path/URL
	DisplayName string
	URL         string
}

// Event represents a calendar event
type Event struct {
	UID       string // Unique ID in CalDAV
	Summary   string // Title
	StartTime time.Time
	EndTime   time.Time
	AllDay    bool
}
