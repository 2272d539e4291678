package planner

import "studybot/internal/domain"

// Visible reports whether a block should be shown given the current course
// permissions and preferences. It is a pure predicate evaluated live by the
// presentation layer; toggling a course or preference changes visibility
// without re-running synthesis.
//
// Canvas blocks require a resolvable course that still allows access plus
// the Canvas toggle; personal blocks require the personal toggle; AI blocks
// are always shown.
func Visible(b *domain.ScheduleBlock, courses []*domain.Course, prefs *domain.Preferences) bool {
	switch b.Source {
	case domain.SourceCanvas:
		if !prefs.IncludeCanvas || b.CourseID == nil {
			return false
		}
		for _, c := range courses {
			if c.ID == *b.CourseID {
				return c.AllowAccess
			}
		}
		return false
	case domain.SourcePersonal:
		return prefs.IncludePersonal
	default:
		return true
	}
}

// FilterVisible returns the blocks that pass Visible, preserving order.
func FilterVisible(blocks []*domain.ScheduleBlock, courses []*domain.Course, prefs *domain.Preferences) []*domain.ScheduleBlock {
	var visible []*domain.ScheduleBlock
	for _, b := range blocks {
		if Visible(b, courses, prefs) {
			visible = append(visible, b)
		}
	}
	return visible
}
