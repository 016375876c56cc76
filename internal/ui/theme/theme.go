package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette — dark board-room tones with a single warm accent
var (
	Accent    = lipgloss.Color("#e94560") // Crimson
	Secondary = lipgloss.Color("#16213e") // Midnight Blue
	Text      = lipgloss.Color("#eaeaea") // Off-white
	TextDim   = lipgloss.Color("#8a8aa3") // Muted Lavender
	BgDark    = lipgloss.Color("#1a1a2e") // Deep Indigo
	BgCard    = lipgloss.Color("#16213e") // Midnight Blue
	Border    = lipgloss.Color("#0f3460") // Navy
	Success   = lipgloss.Color("#53bf9d") // Sea Green
	Warning   = lipgloss.Color("#f9b572") // Amber
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Accent).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Layout
var (
	Header = lipgloss.NewStyle().
		Background(BgCard).
		Padding(0, 2)

	Footer = lipgloss.NewStyle().
		Background(BgCard).
		Padding(0, 2)

	Card = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// States
var (
	StatusRunning = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	StatusPaused = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	StatusLoading = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Accent)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)

	Glyph = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)
