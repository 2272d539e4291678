package domain

// Course represents a Canvas course the student is enrolled in
type Course struct {
	ID          string
	Name        string
	AllowAccess bool // Student can revoke planner access per course
}

// AllowedCourseIDs returns the set of course IDs the planner may use
func AllowedCourseIDs(courses []*Course) map[string]bool {
	allowed := make(map[string]bool, len(courses))
	for _, c := range courses {
		if c.AllowAccess {
			allowed[c.ID] = true
		}
	}
	return allowed
}

// CourseNames returns an id -> display name lookup
func CourseNames(courses []*Course) map[string]string {
	names := make(map[string]string, len(courses))
	for _, c := range courses {
		names[c.ID] = c.Name
	}
	return names
}
