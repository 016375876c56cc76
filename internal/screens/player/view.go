package player

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abiral/chessfeed/internal/lesson"
	"github.com/abiral/chessfeed/internal/playback"
	"github.com/abiral/chessfeed/internal/ui/components"
	"github.com/abiral/chessfeed/internal/ui/theme"
)

// Chess glyphs used as the stand-in when a slide has no renderable image.
var pieceGlyphs = []string{"♔", "♕", "♖", "♗", "♘", "♙"}

func (p *PlayerScreen) View(width, height int) string {
	if p.waiting {
		return p.renderWaiting(width, height)
	}
	if p.slide == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(p.renderInfoLine(width))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	b.WriteString(p.renderSlide(width))
	b.WriteString("\n\n")

	bar := components.NewProgressBar("", p.slidePercent(), false, width-8)
	b.WriteString("    " + bar.View())
	b.WriteString("\n")
	b.WriteString(p.renderStatsLine(width))

	return b.String()
}

// renderWaiting shows the spinner view while the queue is being refilled.
func (p *PlayerScreen) renderWaiting(width, height int) string {
	lines := []string{
		"",
		"",
		theme.Glyph.Render("♞"),
		"",
		p.spin.View() + " " + theme.Body.Render("Gathering fresh chess material..."),
		"",
		theme.Hint.Render("playback resumes as soon as a lesson is ready"),
	}
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render(strings.Join(lines, "\n"))
}

// renderInfoLine puts the lesson title left and the slide position right.
func (p *PlayerScreen) renderInfoLine(width int) string {
	left := lipgloss.NewStyle().
		Foreground(theme.Accent).
		Bold(true).
		Render("  " + p.lessonTitle)

	right := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("slide %d/%d", p.slideIndex+1, p.slideTotal))

	pad := width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + right
}

func (p *PlayerScreen) renderSlide(width int) string {
	sl := p.slide
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	switch sl.Kind {
	case lesson.KindTitle:
		return center.Render(
			theme.Title.Render(sl.Title) + "\n\n" +
				theme.Subtitle.Render(sl.Body))

	case lesson.KindImage:
		body := sl.Body
		if body == "" {
			body = sl.Title
		}
		caption := ""
		if len(sl.Images) > 0 {
			caption = sl.Images[0]
		}
		return center.Render(
			p.renderImagePlaceholder() + "\n\n" +
				theme.Body.Render(body) + "\n" +
				theme.Hint.Render(caption))

	case lesson.KindTransition:
		return center.Render(
			theme.Glyph.Render("· · ·") + "\n\n" +
				theme.Subtitle.Render(sl.Body))

	case lesson.KindSummary:
		return center.Render(
			theme.Title.Render(sl.Title) + "\n\n" +
				theme.Body.Render(sl.Body))

	default: // KindContent
		card := theme.Card.Width(min(width-8, 90))
		return center.Render(card.Render(theme.Body.Render(sl.Body)))
	}
}

// renderImagePlaceholder draws a row of piece glyphs instead of the
// bitmap; the slide index keeps the lead piece stable per slide.
func (p *PlayerScreen) renderImagePlaceholder() string {
	lead := pieceGlyphs[p.slideIndex%len(pieceGlyphs)]
	row := lead + "  " + strings.Join(pieceGlyphs, " ")
	return theme.Glyph.Render(row)
}

// renderStatsLine shows speed, computed delay, and aggregate counters.
func (p *PlayerScreen) renderStatsLine(width int) string {
	speed := p.controls.Speed()
	delay := playback.Delay(speed)

	stats := fmt.Sprintf("speed %d (%.1fs/slide)   shown %d   queued %d   lessons %d",
		speed, delay.Seconds(),
		p.progress.SlidesShown, p.progress.QueueDepth, p.progress.LessonsCompleted)

	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(stats)
}

func (p *PlayerScreen) slidePercent() float64 {
	if p.slideTotal <= 0 {
		return 0
	}
	return float64(p.slideIndex+1) / float64(p.slideTotal)
}
