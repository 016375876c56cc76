package player

import (
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/abiral/chessfeed/internal/lesson"
	"github.com/abiral/chessfeed/internal/playback"
	"github.com/abiral/chessfeed/internal/screen"
	"github.com/abiral/chessfeed/internal/ui/layout"
	"github.com/abiral/chessfeed/internal/ui/theme"
)

// Controls is the slice of the scheduler the screen drives. Kept as an
// interface so tests can fake it.
type Controls interface {
	TogglePause() bool
	Paused() bool
	SkipLesson()
	AdjustSpeed(delta int)
	Speed() int
}

// PlayerScreen is the main playback view: one slide at a time, with the
// lesson context, pacing readout, and aggregate counters around it.
type PlayerScreen struct {
	controls Controls

	lessonTitle string
	lessonTopic string
	slide       *lesson.Slide
	slideIndex  int
	slideTotal  int

	status   playback.Status
	progress playback.Progress
	waiting  bool

	spin spinner.Model
}

var _ screen.Screen = (*PlayerScreen)(nil)
var _ screen.KeyHintProvider = (*PlayerScreen)(nil)

// New creates the playback screen bound to the given controls.
func New(controls Controls) *PlayerScreen {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.StatusLoading
	return &PlayerScreen{
		controls: controls,
		status:   playback.StatusLoading,
		waiting:  true,
		spin:     sp,
	}
}

func (p *PlayerScreen) Init() tea.Cmd {
	return p.spin.Tick
}

func (p *PlayerScreen) Topic() string {
	if p.lessonTopic == "" {
		return "warming up"
	}
	return p.lessonTopic
}

func (p *PlayerScreen) KeyHints() []layout.KeyHint {
	pauseHint := "Pause"
	if p.controls.Paused() {
		pauseHint = "Resume"
	}
	return []layout.KeyHint{
		{Key: "Space", Description: pauseHint},
		{Key: "N", Description: "Next lesson"},
		{Key: "←→", Description: "Speed ±10"},
		{Key: "↑↓", Description: "Speed ±25"},
		{Key: "Q", Description: "Quit"},
	}
}

func (p *PlayerScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case LessonStartMsg:
		p.lessonTitle = msg.Lesson.Title
		p.lessonTopic = msg.Lesson.Topic
		p.waiting = false
		return p, nil

	case SlideMsg:
		p.slide = msg.Slide
		p.slideIndex = msg.Index
		p.slideTotal = msg.Total
		p.waiting = false
		return p, nil

	case WaitingMsg:
		p.waiting = true
		return p, nil

	case StatusMsg:
		p.status = msg.Status
		return p, nil

	case ProgressMsg:
		p.progress = msg.Progress
		return p, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spin, cmd = p.spin.Update(msg)
		return p, cmd

	case tea.KeyPressMsg:
		switch msg.String() {
		case "space", " ":
			p.controls.TogglePause()
		case "n":
			p.controls.SkipLesson()
		case "right":
			p.controls.AdjustSpeed(10)
		case "left":
			p.controls.AdjustSpeed(-10)
		case "up":
			p.controls.AdjustSpeed(25)
		case "down":
			p.controls.AdjustSpeed(-25)
		}
		return p, nil
	}

	return p, nil
}
