package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"studybot/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

// Storage persists session state between bot interactions: course access
// toggles, personal events, the live preferences row and the last
// synthesized plan. The planner itself stays stateless; this is caller-side
// state.
type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS courses (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			allow_access INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS personal_events (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			synced_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_personal_events_start ON personal_events(start_time)`,
		// Single live preferences row
		`CREATE TABLE IF NOT EXISTS preferences (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			include_canvas INTEGER NOT NULL DEFAULT 1,
			include_personal INTEGER NOT NULL DEFAULT 1,
			consider_habits TEXT NOT NULL DEFAULT '',
			focus_start TEXT NOT NULL DEFAULT '08:00',
			focus_end TEXT NOT NULL DEFAULT '18:00',
			break_minutes INTEGER NOT NULL DEFAULT 15,
			notifications_enabled INTEGER NOT NULL DEFAULT 1,
			reminder_mode TEXT NOT NULL DEFAULT 'smart'
		)`,
		// Last synthesized plan; position preserves producer order
		`CREATE TABLE IF NOT EXISTS plan_blocks (
			id TEXT NOT NULL,
			position INTEGER NOT NULL,
			label TEXT NOT NULL,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			source TEXT NOT NULL,
			course_id TEXT,
			note TEXT,
			reminded_at DATETIME,
			PRIMARY KEY (id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_plan_blocks_start ON plan_blocks(start_time)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// Ignore "duplicate column" errors for ALTER TABLE
			if !strings.Contains(err.Error(), "duplicate column") {
				return fmt.Errorf("exec migration: %w", err)
			}
		}
	}
	return nil
}

// === Courses ===

// UpsertCourses inserts fetched courses, refreshing names but keeping any
// access toggle the student already set.
func (s *Storage) UpsertCourses(courses []*domain.Course) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range courses {
		_, err := tx.Exec(
			`INSERT INTO courses (id, name, allow_access) VALUES (?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
			c.ID, c.Name, c.AllowAccess,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Storage) ListCourses() ([]*domain.Course, error) {
	rows, err := s.db.Query(`SELECT id, name, allow_access FROM courses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []*domain.Course
	for rows.Next() {
		c := &domain.Course{}
		if err := rows.Scan(&c.ID, &c.Name, &c.AllowAccess); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (s *Storage) GetCourse(id string) (*domain.Course, error) {
	c := &domain.Course{}
	err := s.db.QueryRow(
		`SELECT id, name, allow_access FROM courses WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.AllowAccess)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (s *Storage) SetCourseAccess(id string, allow bool) error {
	res, err := s.db.Exec(`UPDATE courses SET allow_access = ? WHERE id = ?`, allow, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("course not found: %s", id)
	}
	return nil
}

// === Personal events ===

func (s *Storage) UpsertEvent(e *domain.PersonalEvent) error {
	_, err := s.db.Exec(
		`INSERT INTO personal_events (id, title, start_time, end_time, synced_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, start_time = excluded.start_time,
		   end_time = excluded.end_time, synced_at = excluded.synced_at`,
		e.ID, e.Title, e.Start, e.End, e.SyncedAt,
	)
	return err
}

func (s *Storage) ListEvents() ([]*domain.PersonalEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, title, start_time, end_time, synced_at FROM personal_events ORDER BY start_time`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.PersonalEvent
	for rows.Next() {
		e := &domain.PersonalEvent{}
		if err := rows.Scan(&e.ID, &e.Title, &e.Start, &e.End, &e.SyncedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Storage) DeleteEvent(id string) error {
	_, err := s.db.Exec(`DELETE FROM personal_events WHERE id = ?`, id)
	return err
}

// === Preferences ===

// GetPreferences returns the live preferences row, or nil when the session
// has never saved one.
func (s *Storage) GetPreferences() (*domain.Preferences, error) {
	p := &domain.Preferences{}
	var mode string
	err := s.db.QueryRow(
		`SELECT include_canvas, include_personal, consider_habits, focus_start, focus_end,
		        break_minutes, notifications_enabled, reminder_mode
		 FROM preferences WHERE id = 1`,
	).Scan(&p.IncludeCanvas, &p.IncludePersonal, &p.ConsiderHabits, &p.FocusStart, &p.FocusEnd,
		&p.BreakMinutes, &p.NotificationsEnabled, &mode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.ReminderMode = domain.ReminderMode(mode)
	return p, nil
}

func (s *Storage) SavePreferences(p *domain.Preferences) error {
	_, err := s.db.Exec(
		`INSERT INTO preferences (id, include_canvas, include_personal, consider_habits, focus_start,
		                          focus_end, break_minutes, notifications_enabled, reminder_mode)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   include_canvas = excluded.include_canvas,
		   include_personal = excluded.include_personal,
		   consider_habits = excluded.consider_habits,
		   focus_start = excluded.focus_start,
		   focus_end = excluded.focus_end,
		   break_minutes = excluded.break_minutes,
		   notifications_enabled = excluded.notifications_enabled,
		   reminder_mode = excluded.reminder_mode`,
		p.IncludeCanvas, p.IncludePersonal, p.ConsiderHabits, p.FocusStart, p.FocusEnd,
		p.BreakMinutes, p.NotificationsEnabled, string(p.ReminderMode),
	)
	return err
}

// === Plan blocks ===

// SavePlan replaces the stored plan with a new block list
func (s *Storage) SavePlan(blocks []*domain.ScheduleBlock) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM plan_blocks`); err != nil {
		return err
	}
	for i, b := range blocks {
		var courseID, note sql.NullString
		if b.CourseID != nil {
			courseID = sql.NullString{String: *b.CourseID, Valid: true}
		}
		if b.Note != nil {
			note = sql.NullString{String: *b.Note, Valid: true}
		}
		_, err := tx.Exec(
			`INSERT INTO plan_blocks (id, position, label, start_time, end_time, source, course_id, note)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, i, b.Label, b.Start, b.End, string(b.Source), courseID, note,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadPlan returns the stored plan in producer order
func (s *Storage) LoadPlan() ([]*domain.ScheduleBlock, error) {
	rows, err := s.db.Query(
		`SELECT id, label, start_time, end_time, source, course_id, note
		 FROM plan_blocks ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []*domain.ScheduleBlock
	for rows.Next() {
		b := &domain.ScheduleBlock{}
		var source string
		var courseID, note sql.NullString
		if err := rows.Scan(&b.ID, &b.Label, &b.Start, &b.End, &source, &courseID, &note); err != nil {
			return nil, err
		}
		b.Source = domain.BlockSource(source)
		if courseID.Valid {
			b.CourseID = &courseID.String
		}
		if note.Valid {
			b.Note = &note.String
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// UpdatePlanBlock persists a manually shifted block
func (s *Storage) UpdatePlanBlock(b *domain.ScheduleBlock) error {
	var note sql.NullString
	if b.Note != nil {
		note = sql.NullString{String: *b.Note, Valid: true}
	}
	res, err := s.db.Exec(
		`UPDATE plan_blocks SET start_time = ?, end_time = ?, note = ? WHERE id = ?`,
		b.Start, b.End, note, b.ID,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("block not found: %s", b.ID)
	}
	return nil
}

// MarkBlockReminded records that a start reminder went out for a block
func (s *Storage) MarkBlockReminded(id string, at time.Time) error {
	_, err := s.db.Exec(`UPDATE plan_blocks SET reminded_at = ? WHERE id = ?`, at, id)
	return err
}

// ListUpcomingUnreminded returns stored blocks starting inside the window
// that have not had a reminder sent yet.
func (s *Storage) ListUpcomingUnreminded(from, to time.Time) ([]*domain.ScheduleBlock, error) {
	rows, err := s.db.Query(
		`SELECT id, label, start_time, end_time, source, course_id, note
		 FROM plan_blocks
		 WHERE reminded_at IS NULL AND start_time >= ? AND start_time < ?
		 ORDER BY start_time`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []*domain.ScheduleBlock
	for rows.Next() {
		b := &domain.ScheduleBlock{}
		var source string
		var courseID, note sql.NullString
		if err := rows.Scan(&b.ID, &b.Label, &b.Start, &b.End, &source, &courseID, &note); err != nil {
			return nil, err
		}
		b.Source = domain.BlockSource(source)
		if courseID.Valid {
			b.CourseID = &courseID.String
		}
		if note.Valid {
			b.Note = &note.String
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}
