package domain

import "time"

type BlockSource string

const (
	SourceCanvas   BlockSource = "canvas"
	SourcePersonal BlockSource = "personal"
	SourceAI       BlockSource = "ai"
)

// ParseBlockSource maps a raw provenance string to a BlockSource,
// defaulting to ai for anything unrecognized.
func ParseBlockSource(s string) BlockSource {
	switch BlockSource(s) {
	case SourceCanvas, SourcePersonal:
		return BlockSource(s)
	default:
		return SourceAI
	}
}

// ScheduleBlock is one scheduled time interval in the daily timeline.
// CourseID is set only for canvas-sourced blocks; Note is nil when the
// producer attached no rationale.
type ScheduleBlock struct {
	ID       string
	Label    string
	Start    time.Time
	End      time.Time
	Source   BlockSource
	CourseID *string
	Note     *string
}

// Duration returns the block length
func (b *ScheduleBlock) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// NoteText returns the note or an empty string when absent
func (b *ScheduleBlock) NoteText() string {
	if b.Note == nil {
		return ""
	}
	return *b.Note
}

// AppendNote concatenates text onto the note, creating it if absent
func (b *ScheduleBlock) AppendNote(text string) {
	note := b.NoteText() + text
	b.Note = &note
}

// FormatRange returns formatted times for display
func (b *ScheduleBlock) FormatRange() string {
	return b.Start.Format("15:04") + "-" + b.End.Format("15:04")
}

// SourceEmoji returns a provenance marker for the timeline view
func (b *ScheduleBlock) SourceEmoji() string {
	switch b.Source {
	case SourceCanvas:
		return "📚"
	case SourcePersonal:
		return "📅"
	default:
		return "✨"
	}
}
