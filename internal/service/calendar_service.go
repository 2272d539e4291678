package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"studybot/internal/clients/caldav"
	"studybot/internal/domain"
	"studybot/internal/sample"
	"studybot/internal/storage"
)

// syncHorizon is how far ahead CalDAV events are pulled
const syncHorizon = 14 * 24 * time.Hour

// CalendarService manages personal events: CalDAV sync plus manual entries
type CalendarService struct {
	storage      *storage.Storage
	caldavClient *caldav.Client
	calendarPath string
	timezone     *time.Location
}

func NewCalendarService(s *storage.Storage, client *caldav.Client, tz *time.Location) *CalendarService {
	if tz == nil {
		tz = time.UTC
	}
	return &CalendarService{
		storage:      s,
		caldavClient: client,
		timezone:     tz,
	}
}

// IsConfigured returns true if CalDAV sync is available
func (s *CalendarService) IsConfigured() bool {
	return s.caldavClient != nil && s.caldavClient.IsConfigured()
}

// SetCalendarPath sets the calendar collection to sync from
func (s *CalendarService) SetCalendarPath(path string) {
	s.calendarPath = path
	if s.caldavClient != nil {
		s.caldavClient.SetCalendarID(path)
	}
}

// DiscoverCalendars returns the calendars available on the server
func (s *CalendarService) DiscoverCalendars(ctx context.Context) ([]caldav.Calendar, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("CalDAV not configured")
	}
	return s.caldavClient.DiscoverCalendars(ctx)
}

// SyncFromCalDAV pulls upcoming events into the local session. Existing
// entries with the same UID are updated in place; manual entries are left
// alone.
func (s *CalendarService) SyncFromCalDAV(ctx context.Context) (int, error) {
	if !s.IsConfigured() {
		return 0, fmt.Errorf("CalDAV not configured")
	}
	if s.calendarPath == "" {
		return 0, fmt.Errorf("calendar path not set")
	}

	from := time.Now().In(s.timezone).Truncate(24 * time.Hour)
	to := from.Add(syncHorizon)

	remote, err := s.caldavClient.GetEvents(ctx, s.calendarPath, from, to)
	if err != nil {
		return 0, fmt.Errorf("get events: %w", err)
	}

	now := time.Now().In(s.timezone)
	synced := 0
	for _, evt := range remote {
		if evt.UID == "" || evt.StartTime.IsZero() {
			continue
		}
		syncedAt := now
		err := s.storage.UpsertEvent(&domain.PersonalEvent{
			ID:       evt.UID,
			Title:    evt.Summary,
			Start:    evt.StartTime.In(s.timezone),
			End:      evt.EndTime.In(s.timezone),
			SyncedAt: &syncedAt,
		})
		if err != nil {
			return synced, fmt.Errorf("store event %s: %w", evt.UID, err)
		}
		synced++
	}
	return synced, nil
}

// AddEvent stores a manually entered personal event. When a CalDAV calendar
// is configured the event is also pushed there, best effort; local state is
// the source of truth.
func (s *CalendarService) AddEvent(ctx context.Context, title string, start, end time.Time) (*domain.PersonalEvent, error) {
	if title == "" {
		return nil, fmt.Errorf("event title cannot be empty")
	}
	evt := &domain.PersonalEvent{
		ID:    uuid.NewString(),
		Title: title,
		Start: start,
		End:   end,
	}
	if err := s.storage.UpsertEvent(evt); err != nil {
		return nil, fmt.Errorf("store event: %w", err)
	}

	if s.IsConfigured() && s.calendarPath != "" {
		remote := &caldav.Event{
			UID:       evt.ID + "@studybot",
			Summary:   title,
			StartTime: start,
			EndTime:   end,
		}
		if err := s.caldavClient.CreateEvent(ctx, s.calendarPath, remote); err != nil {
			log.Printf("Failed to push event %s to CalDAV: %v", evt.ID, err)
		}
	}
	return evt, nil
}

// Events returns all stored personal events ordered by start
func (s *CalendarService) Events() ([]*domain.PersonalEvent, error) {
	return s.storage.ListEvents()
}

// DeleteEvent removes a personal event from the session
func (s *CalendarService) DeleteEvent(id string) error {
	return s.storage.DeleteEvent(id)
}

// SeedSample loads the offline demo events
func (s *CalendarService) SeedSample(now time.Time) error {
	for _, evt := range sample.Events(now) {
		if err := s.storage.UpsertEvent(evt); err != nil {
			return err
		}
	}
	return nil
}
