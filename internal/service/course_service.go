package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"studybot/internal/clients/canvas"
	"studybot/internal/domain"
	"studybot/internal/sample"
	"studybot/internal/storage"
)

// CourseService keeps the course list and the fetched assignments for the
// session. Courses live in storage so access toggles survive restarts;
// assignments are immutable once fetched and stay in memory until the next
// sync.
type CourseService struct {
	storage      *storage.Storage
	canvasClient *canvas.Client

	mu          sync.Mutex
	assignments []*domain.Assignment
}

func NewCourseService(s *storage.Storage, client *canvas.Client) *CourseService {
	return &CourseService{
		storage:      s,
		canvasClient: client,
	}
}

// IsConfigured returns true if the Canvas client has credentials
func (s *CourseService) IsConfigured() bool {
	return s.canvasClient != nil && s.canvasClient.IsConfigured()
}

// SyncResult contains Canvas sync counts
type SyncResult struct {
	Courses     int
	Assignments int
}

// Sync pulls courses and upcoming assignments from Canvas. Assignments are
// only requested for courses the student currently allows access to.
func (s *CourseService) Sync(ctx context.Context) (*SyncResult, error) {
	if !s.IsConfigured() {
		return nil, canvas.ErrNotConfigured
	}

	courses, err := s.canvasClient.FetchCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync courses: %w", err)
	}
	if err := s.storage.UpsertCourses(courses); err != nil {
		return nil, fmt.Errorf("store courses: %w", err)
	}

	// Re-read so toggles set in earlier sessions gate the assignment fetch.
	stored, err := s.storage.ListCourses()
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	var allowedIDs []string
	for _, c := range stored {
		if c.AllowAccess {
			allowedIDs = append(allowedIDs, c.ID)
		}
	}

	assignments, err := s.canvasClient.FetchAssignments(ctx, allowedIDs)
	if err != nil {
		return nil, fmt.Errorf("sync assignments: %w", err)
	}

	s.mu.Lock()
	s.assignments = assignments
	s.mu.Unlock()

	return &SyncResult{Courses: len(courses), Assignments: len(assignments)}, nil
}

// LoadSample seeds the session with offline demo courses and assignments,
// used when Canvas is unconfigured or a sync fails.
func (s *CourseService) LoadSample(now time.Time) error {
	if err := s.storage.UpsertCourses(sample.Courses()); err != nil {
		return fmt.Errorf("store sample courses: %w", err)
	}
	s.mu.Lock()
	s.assignments = sample.Assignments(now)
	s.mu.Unlock()
	return nil
}

// Courses returns the stored course list
func (s *CourseService) Courses() ([]*domain.Course, error) {
	return s.storage.ListCourses()
}

// Assignments returns the assignments from the last sync
func (s *CourseService) Assignments() []*domain.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Assignment, len(s.assignments))
	copy(out, s.assignments)
	return out
}

// ToggleAccess flips planner access for one course and returns the new state
func (s *CourseService) ToggleAccess(courseID string) (bool, error) {
	course, err := s.storage.GetCourse(courseID)
	if err != nil {
		return false, err
	}
	if course == nil {
		return false, fmt.Errorf("course not found: %s", courseID)
	}
	if err := s.storage.SetCourseAccess(courseID, !course.AllowAccess); err != nil {
		return false, err
	}
	return !course.AllowAccess, nil
}
