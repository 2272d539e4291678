package planner

import (
	"testing"

	"studybot/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestVisible(t *testing.T) {
	courses := testCourses()

	tests := []struct {
		name  string
		block *domain.ScheduleBlock
		prefs *domain.Preferences
		want  bool
	}{
		{
			name:  "canvas block from allowed course",
			block: &domain.ScheduleBlock{Source: domain.SourceCanvas, CourseID: strPtr("cs3377")},
			prefs: testPrefs(),
			want:  true,
		},
		{
			name:  "canvas block from revoked course",
			block: &domain.ScheduleBlock{Source: domain.SourceCanvas, CourseID: strPtr("hist1301")},
			prefs: testPrefs(),
			want:  false,
		},
		{
			name:  "canvas block with unknown course",
			block: &domain.ScheduleBlock{Source: domain.SourceCanvas, CourseID: strPtr("ghost")},
			prefs: testPrefs(),
			want:  false,
		},
		{
			name:  "canvas block without course reference",
			block: &domain.ScheduleBlock{Source: domain.SourceCanvas},
			prefs: testPrefs(),
			want:  false,
		},
		{
			name:  "canvas toggle off hides canvas",
			block: &domain.ScheduleBlock{Source: domain.SourceCanvas, CourseID: strPtr("cs3377")},
			prefs: func() *domain.Preferences { p := testPrefs(); p.IncludeCanvas = false; return p }(),
			want:  false,
		},
		{
			name:  "personal follows toggle",
			block: &domain.ScheduleBlock{Source: domain.SourcePersonal},
			prefs: testPrefs(),
			want:  true,
		},
		{
			name:  "personal toggle off",
			block: &domain.ScheduleBlock{Source: domain.SourcePersonal},
			prefs: func() *domain.Preferences { p := testPrefs(); p.IncludePersonal = false; return p }(),
			want:  false,
		},
		{
			name:  "ai always shown",
			block: &domain.ScheduleBlock{Source: domain.SourceAI},
			prefs: func() *domain.Preferences { p := testPrefs(); p.IncludeCanvas = false; p.IncludePersonal = false; return p }(),
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Visible(tt.block, courses, tt.prefs); got != tt.want {
				t.Errorf("Visible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterVisible_Idempotent(t *testing.T) {
	courses := testCourses()
	prefs := testPrefs()
	blocks := []*domain.ScheduleBlock{
		{ID: "1", Source: domain.SourceCanvas, CourseID: strPtr("cs3377")},
		{ID: "2", Source: domain.SourceCanvas, CourseID: strPtr("hist1301")},
		{ID: "3", Source: domain.SourcePersonal},
		{ID: "4", Source: domain.SourceAI},
	}

	once := FilterVisible(blocks, courses, prefs)
	twice := FilterVisible(once, courses, prefs)

	if len(once) != 3 {
		t.Fatalf("len(once) = %d, want 3", len(once))
	}
	if len(twice) != len(once) {
		t.Fatalf("len(twice) = %d, want %d", len(twice), len(once))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("twice[%d] = %s, want %s", i, twice[i].ID, once[i].ID)
		}
	}
}
