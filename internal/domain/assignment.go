package domain

import (
	"strings"
	"time"
)

type Weight string

const (
	WeightExam     Weight = "exam"
	WeightProject  Weight = "project"
	WeightHomework Weight = "homework"
)

// Assignment represents a due-dated Canvas assignment
type Assignment struct {
	ID       string
	CourseID string
	Title    string
	Due      time.Time
	Weight   Weight
}

// BlockDuration returns how long a study block for this weight should be
func (w Weight) BlockDuration() time.Duration {
	switch w {
	case WeightExam:
		return 120 * time.Minute
	case WeightProject:
		return 90 * time.Minute
	default:
		return 60 * time.Minute
	}
}

// InferWeight guesses assignment weight from its title
func InferWeight(title string) Weight {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "exam"):
		return WeightExam
	case strings.Contains(lower, "project"):
		return WeightProject
	default:
		return WeightHomework
	}
}
