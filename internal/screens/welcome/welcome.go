package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abiral/chessfeed/internal/router"
	"github.com/abiral/chessfeed/internal/screen"
	"github.com/abiral/chessfeed/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	phase1End    = 400 * time.Millisecond
	totalDur     = 2 * time.Second
)

const boardArt = `  ╭─────────────╮
  │ ♜ ♞ ♝ ♛ ♚ ♝ │
  │ ♟ ♟ ♟ ♟ ♟ ♟ │
  │ · · · · · · │
  │ · · · · · · │
  │ ♙ ♙ ♙ ♙ ♙ ♙ │
  │ ♖ ♘ ♗ ♕ ♔ ♗ │
  ╰─────────────╯`

type tickMsg time.Time

// WelcomeScreen shows a short splash, then hands off to the player
// screen. It transitions on its own; a key press only shortens the wait.
type WelcomeScreen struct {
	playerFactory func() screen.Screen
	elapsed       time.Duration
	transitioned  bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen that will transition to the screen produced
// by playerFactory.
func New(playerFactory func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{
		playerFactory: playerFactory,
	}
}

func (w *WelcomeScreen) Topic() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		w.elapsed += tickInterval
		if w.elapsed >= totalDur {
			return w, w.transition()
		}
		return w, tea.Tick(tickInterval, func(t time.Time) tea.Msg {
			return tickMsg(t)
		})

	case tea.KeyPressMsg:
		return w, w.transition()
	}

	return w, nil
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	playerScreen := w.playerFactory()
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: playerScreen}
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	var sections []string

	rendered := lipgloss.NewStyle().Foreground(theme.Accent).Render(boardArt)
	sections = append(sections, rendered)

	if w.elapsed >= phase1End {
		sections = append(sections, "")
		banner := lipgloss.NewStyle().
			Foreground(theme.Text).
			Bold(true).
			Render("C H E S S F E E D")
		sections = append(sections, banner)
		sections = append(sections, "")

		tagline := lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render("an endless stream of chess lessons")
		sections = append(sections, tagline)
	}

	content := strings.Join(sections, "\n")

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
