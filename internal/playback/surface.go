package playback

import "github.com/abiral/chessfeed/internal/lesson"

// Status is the scheduler's externally visible run state.
type Status string

const (
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusLoading Status = "loading"
)

// Progress is the periodic statistics snapshot pushed to the surface.
type Progress struct {
	LessonsCompleted int64
	QueueDepth       int
	SlidesShown      int64
}

// Surface receives display events from the scheduler. Implementations own
// all render state and run on their own event loop; the scheduler treats
// every call as fire-and-forget and survives panics from any of them.
type Surface interface {
	// OnLessonStart announces the header of a newly dequeued lesson.
	OnLessonStart(l *lesson.Lesson)

	// OnSlide asks the surface to render one slide. index is zero-based.
	OnSlide(s *lesson.Slide, index, total int)

	// OnWaiting signals that the queue was empty at consumption time.
	OnWaiting()

	// OnStatusChange reports pause/resume/loading transitions.
	OnStatusChange(st Status)

	// OnProgress delivers updated lifetime counters.
	OnProgress(p Progress)
}

// NopSurface discards all events. Useful as a default and in tests.
type NopSurface struct{}

func (NopSurface) OnLessonStart(*lesson.Lesson)    {}
func (NopSurface) OnSlide(*lesson.Slide, int, int) {}
func (NopSurface) OnWaiting()                      {}
func (NopSurface) OnStatusChange(Status)           {}
func (NopSurface) OnProgress(Progress)             {}
