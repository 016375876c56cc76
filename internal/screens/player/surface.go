package player

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abiral/chessfeed/internal/lesson"
	"github.com/abiral/chessfeed/internal/playback"
)

// Sender delivers messages into the running Bubble Tea program.
// *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Surface bridges scheduler callbacks onto the program's message loop.
// Callbacks arrive on the scheduler goroutine; Send hands them over to
// the UI goroutine, so the screen itself stays single-threaded.
type Surface struct {
	sender Sender
}

var _ playback.Surface = (*Surface)(nil)

// NewSurface creates a Surface emitting into sender.
func NewSurface(sender Sender) *Surface {
	return &Surface{sender: sender}
}

func (s *Surface) OnLessonStart(l *lesson.Lesson) {
	s.sender.Send(LessonStartMsg{Lesson: l})
}

func (s *Surface) OnSlide(sl *lesson.Slide, index, total int) {
	s.sender.Send(SlideMsg{Slide: sl, Index: index, Total: total})
}

func (s *Surface) OnWaiting() {
	s.sender.Send(WaitingMsg{})
}

func (s *Surface) OnStatusChange(st playback.Status) {
	s.sender.Send(StatusMsg{Status: st})
}

func (s *Surface) OnProgress(p playback.Progress) {
	s.sender.Send(ProgressMsg{Progress: p})
}
