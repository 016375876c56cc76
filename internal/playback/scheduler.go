package playback

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/abiral/chessfeed/internal/lesson"
)

// Config holds scheduler construction parameters. Zero-value fields fall
// back to the defaults below.
type Config struct {
	// Speed is the initial pacing setting (1-200, clamped).
	Speed int

	// DequeueTimeout bounds each attempt to pull the next lesson.
	DequeueTimeout time.Duration

	// PausePoll is the idle-wait interval while paused.
	PausePoll time.Duration

	// WaitRetry is the pause before re-trying an empty queue.
	WaitRetry time.Duration

	// WaitingMultiplier stretches the delay of the first slide shown
	// after a starvation episode.
	WaitingMultiplier float64

	// NeedContent, when set, is invoked each time the queue turns up
	// empty, signalling the producer side that the consumer is starved.
	NeedContent func()

	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

const (
	defaultDequeueTimeout    = 500 * time.Millisecond
	defaultPausePoll         = 100 * time.Millisecond
	defaultWaitRetry         = 500 * time.Millisecond
	defaultWaitingMultiplier = 2.0
)

// Scheduler is the consumer loop: it pops lessons from the queue one at a
// time, walks their slides in order, and sleeps between slides according
// to the speed setting. It owns slide advancement; the queue owns lesson
// status.
type Scheduler struct {
	queue   *lesson.Queue
	surface Surface
	cfg     Config
	log     *zap.Logger

	speed       atomic.Int64
	paused      atomic.Bool
	skip        atomic.Bool
	slidesShown atomic.Int64

	// sleep waits for d or until stop; returns false when stopping.
	// Swappable in tests.
	sleep func(d time.Duration) bool

	stop chan struct{}
	done chan struct{}
}

// NewScheduler creates a scheduler reading from q and emitting to surface.
// A nil surface is replaced with NopSurface.
func NewScheduler(q *lesson.Queue, surface Surface, cfg Config) *Scheduler {
	if surface == nil {
		surface = NopSurface{}
	}
	if cfg.DequeueTimeout <= 0 {
		cfg.DequeueTimeout = defaultDequeueTimeout
	}
	if cfg.PausePoll <= 0 {
		cfg.PausePoll = defaultPausePoll
	}
	if cfg.WaitRetry <= 0 {
		cfg.WaitRetry = defaultWaitRetry
	}
	if cfg.WaitingMultiplier <= 0 {
		cfg.WaitingMultiplier = defaultWaitingMultiplier
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Scheduler{
		queue:   q,
		surface: surface,
		cfg:     cfg,
		log:     cfg.Logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.speed.Store(int64(ClampSpeed(cfg.Speed)))
	s.sleep = s.stoppableSleep
	return s
}

// SetSurface replaces the surface before Run is called. It exists so the
// TUI program, which needs the scheduler to construct its model, can be
// attached after both are built.
func (s *Scheduler) SetSurface(surface Surface) {
	if surface != nil {
		s.surface = surface
	}
}

// Run executes the playback loop until Stop is called. It is meant to be
// launched on its own goroutine.
func (s *Scheduler) Run() {
	defer close(s.done)

	s.notifyStatus(StatusRunning)

	var cur *lesson.Lesson
	idx := 0
	waitPenalty := false

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		if s.paused.Load() {
			if !s.sleep(s.cfg.PausePoll) {
				return
			}
			continue
		}

		if s.skip.Swap(false) && cur != nil {
			idx = len(cur.Slides)
		}

		if cur == nil || idx >= len(cur.Slides) {
			next, ok := s.queue.DequeueNext(s.cfg.DequeueTimeout)
			s.notifyProgress()
			if !ok {
				// Starvation: a defined state, not an error.
				waitPenalty = true
				s.notifyWaiting()
				s.notifyStatus(StatusLoading)
				if s.cfg.NeedContent != nil {
					s.cfg.NeedContent()
				}
				if !s.sleep(s.cfg.WaitRetry) {
					return
				}
				continue
			}
			cur, idx = next, 0
			s.log.Info("lesson started",
				zap.String("lesson_id", cur.ID),
				zap.String("topic", cur.Topic),
				zap.Int("slides", len(cur.Slides)),
			)
			s.notifyLessonStart(cur)
			s.notifyStatus(StatusRunning)
		}

		sl := &cur.Slides[idx]
		s.notifySlide(sl, idx, len(cur.Slides))
		idx++
		s.slidesShown.Add(1)
		s.notifyProgress()

		delay := Delay(int(s.speed.Load()))
		if waitPenalty {
			// Hysteresis: the starvation multiplier lands on the first
			// slide after content arrives, not on the wait itself.
			delay = time.Duration(float64(delay) * s.cfg.WaitingMultiplier)
			waitPenalty = false
		}
		if !s.sleep(delay) {
			return
		}
	}
}

// Stop signals the loop to exit and waits for it, up to timeout.
func (s *Scheduler) Stop(timeout time.Duration) {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	select {
	case <-s.done:
	case <-time.After(timeout):
		s.log.Warn("scheduler did not stop within timeout", zap.Duration("timeout", timeout))
	}
}

// Done is closed when the loop has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Pause halts slide advancement. The builder keeps working while paused.
func (s *Scheduler) Pause() {
	if !s.paused.Swap(true) {
		s.notifyStatus(StatusPaused)
	}
}

// Resume continues playback from the exact slide index where it paused.
func (s *Scheduler) Resume() {
	if s.paused.Swap(false) {
		s.notifyStatus(StatusRunning)
	}
}

// TogglePause flips the pause state and returns the new value.
func (s *Scheduler) TogglePause() bool {
	if s.paused.Load() {
		s.Resume()
		return false
	}
	s.Pause()
	return true
}

// Paused reports whether playback is paused.
func (s *Scheduler) Paused() bool {
	return s.paused.Load()
}

// SetSpeed sets the pacing speed, clamped to the valid range.
func (s *Scheduler) SetSpeed(speed int) {
	s.speed.Store(int64(ClampSpeed(speed)))
}

// AdjustSpeed shifts the speed by delta, clamped.
func (s *Scheduler) AdjustSpeed(delta int) {
	s.SetSpeed(s.Speed() + delta)
}

// Speed returns the current speed setting.
func (s *Scheduler) Speed() int {
	return int(s.speed.Load())
}

// SkipLesson forces the current slide index to the end of the lesson, so
// the next loop iteration requests a new one. It does not truncate the
// slide currently on screen.
func (s *Scheduler) SkipLesson() {
	s.skip.Store(true)
}

// SlidesShown returns the lifetime count of slides emitted.
func (s *Scheduler) SlidesShown() int64 {
	return s.slidesShown.Load()
}

// stoppableSleep waits d or until Stop; returns false when stopping.
func (s *Scheduler) stoppableSleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-s.stop:
		return false
	}
}

// notify runs a surface call, logging instead of propagating any panic: a
// render fault must never stall the loop.
func (s *Scheduler) notify(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("surface notification panicked",
				zap.String("event", event),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}

func (s *Scheduler) notifyLessonStart(l *lesson.Lesson) {
	s.notify("lesson_start", func() { s.surface.OnLessonStart(l) })
}

func (s *Scheduler) notifySlide(sl *lesson.Slide, index, total int) {
	s.notify("slide", func() { s.surface.OnSlide(sl, index, total) })
}

func (s *Scheduler) notifyWaiting() {
	s.notify("waiting", func() { s.surface.OnWaiting() })
}

func (s *Scheduler) notifyStatus(st Status) {
	s.notify("status", func() { s.surface.OnStatusChange(st) })
}

func (s *Scheduler) notifyProgress() {
	s.notify("progress", func() {
		s.surface.OnProgress(Progress{
			LessonsCompleted: s.queue.CompletedCount(),
			QueueDepth:       s.queue.Depth(),
			SlidesShown:      s.slidesShown.Load(),
		})
	})
}
