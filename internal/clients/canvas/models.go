package canvas

// courseResponse is the Canvas API shape for a course
type courseResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CourseCode string `json:"course_code"`
}

// assignmentResponse is the Canvas API shape for an assignment
type assignmentResponse struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	DueAt    *string `json:"due_at"`
	CourseID int64   `json:"course_id"`
}
