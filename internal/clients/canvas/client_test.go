package canvas

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"studybot/internal/domain"
)

func TestFetchCourses(t *testing.T) {
	ctx := context.Background()

	t.Run("missing credentials fail fast", func(t *testing.T) {
		c := NewClient("", "")
		if _, err := c.FetchCourses(ctx); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("error = %v, want ErrNotConfigured", err)
		}
	})

	t.Run("maps courses with access allowed by default", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("Authorization = %q, want Bearer tok", got)
			}
			if r.URL.Path != "/api/v1/courses" {
				t.Errorf("path = %s", r.URL.Path)
			}
			if r.URL.Query().Get("enrollment_state") != "active" {
				t.Error("missing enrollment_state=active")
			}
			w.Write([]byte(`[
				{"id": 101, "name": "CS 3377 - Ethics in Computing", "course_code": "CS3377"},
				{"id": 102, "name": "", "course_code": "MATH2319"},
				{"id": 103, "name": "", "course_code": ""}
			]`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "tok")
		courses, err := c.FetchCourses(ctx)
		if err != nil {
			t.Fatalf("FetchCourses() error = %v", err)
		}

		if len(courses) != 3 {
			t.Fatalf("len(courses) = %d, want 3", len(courses))
		}
		want := []struct {
			id   string
			name string
		}{
			{"101", "CS 3377 - Ethics in Computing"},
			{"102", "MATH2319"},
			{"103", "Course 103"},
		}
		for i, w := range want {
			if courses[i].ID != w.id || courses[i].Name != w.name {
				t.Errorf("courses[%d] = {%s %s}, want {%s %s}", i, courses[i].ID, courses[i].Name, w.id, w.name)
			}
			if !courses[i].AllowAccess {
				t.Errorf("courses[%d].AllowAccess = false, want true", i)
			}
		}
	})

	t.Run("error carries status and body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid token", http.StatusUnauthorized)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "tok")
		_, err := c.FetchCourses(ctx)
		if err == nil {
			t.Fatal("FetchCourses() expected error")
		}
		if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "invalid token") {
			t.Errorf("error = %v, want status and body", err)
		}
	})
}

func TestFetchAssignments(t *testing.T) {
	ctx := context.Background()

	t.Run("missing credentials fail fast", func(t *testing.T) {
		c := NewClient("", "")
		if _, err := c.FetchAssignments(ctx, []string{"101"}); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("error = %v, want ErrNotConfigured", err)
		}
	})

	t.Run("drops undated, infers weight, skips bad timestamps", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/v1/courses/101/assignments") {
				t.Errorf("path = %s", r.URL.Path)
			}
			if r.URL.Query().Get("bucket") != "upcoming" {
				t.Error("missing bucket=upcoming")
			}
			w.Write([]byte(`[
				{"id": 1, "name": "Midterm Exam", "due_at": "2024-03-15T17:00:00Z", "course_id": 101},
				{"id": 2, "name": "Final Project", "due_at": "2024-03-20T17:00:00Z", "course_id": 101},
				{"id": 3, "name": "Reading", "due_at": null, "course_id": 101},
				{"id": 4, "name": "Quiz", "due_at": "soonish", "course_id": 101},
				{"id": 5, "name": "Worksheet", "due_at": "2024-03-18T17:00:00Z", "course_id": 101}
			]`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "tok")
		assignments, err := c.FetchAssignments(ctx, []string{"101"})
		if err != nil {
			t.Fatalf("FetchAssignments() error = %v", err)
		}

		if len(assignments) != 3 {
			t.Fatalf("len(assignments) = %d, want 3", len(assignments))
		}
		if assignments[0].Weight != domain.WeightExam {
			t.Errorf("Weight = %q, want exam", assignments[0].Weight)
		}
		if assignments[1].Weight != domain.WeightProject {
			t.Errorf("Weight = %q, want project", assignments[1].Weight)
		}
		if assignments[2].Weight != domain.WeightHomework {
			t.Errorf("Weight = %q, want homework", assignments[2].Weight)
		}
		wantDue := time.Date(2024, 3, 15, 17, 0, 0, 0, time.UTC)
		if !assignments[0].Due.Equal(wantDue) {
			t.Errorf("Due = %v, want %v", assignments[0].Due, wantDue)
		}
		for _, a := range assignments {
			if a.CourseID != "101" {
				t.Errorf("CourseID = %q, want 101", a.CourseID)
			}
		}
	})

	t.Run("queries each requested course", func(t *testing.T) {
		var paths []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "tok")
		if _, err := c.FetchAssignments(ctx, []string{"101", "102"}); err != nil {
			t.Fatalf("FetchAssignments() error = %v", err)
		}
		if len(paths) != 2 {
			t.Fatalf("requests = %d, want 2", len(paths))
		}
	})
}
