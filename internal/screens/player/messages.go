package player

import (
	"github.com/abiral/chessfeed/internal/lesson"
	"github.com/abiral/chessfeed/internal/playback"
)

// LessonStartMsg is sent when the scheduler begins a new lesson.
type LessonStartMsg struct {
	Lesson *lesson.Lesson
}

// SlideMsg is sent for each slide the scheduler advances to.
type SlideMsg struct {
	Slide *lesson.Slide
	Index int
	Total int
}

// WaitingMsg is sent when the scheduler finds the queue empty.
type WaitingMsg struct{}

// StatusMsg is sent when playback status changes.
type StatusMsg struct {
	Status playback.Status
}

// ProgressMsg carries refreshed aggregate counters.
type ProgressMsg struct {
	Progress playback.Progress
}
