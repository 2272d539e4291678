package domain

import (
	"testing"
	"time"
)

func TestInferWeight(t *testing.T) {
	tests := []struct {
		title string
		want  Weight
	}{
		{"Midterm Exam", WeightExam},
		{"Final EXAM review", WeightExam},
		{"Position Paper Project", WeightProject},
		{"Case Study Review", WeightHomework},
		{"", WeightHomework},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := InferWeight(tt.title); got != tt.want {
				t.Errorf("InferWeight(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestWeightBlockDuration(t *testing.T) {
	tests := []struct {
		weight Weight
		want   time.Duration
	}{
		{WeightExam, 120 * time.Minute},
		{WeightProject, 90 * time.Minute},
		{WeightHomework, 60 * time.Minute},
		{Weight("unknown"), 60 * time.Minute},
	}

	for _, tt := range tests {
		if got := tt.weight.BlockDuration(); got != tt.want {
			t.Errorf("%q.BlockDuration() = %v, want %v", tt.weight, got, tt.want)
		}
	}
}
