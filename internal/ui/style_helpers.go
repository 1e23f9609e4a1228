package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders text segments that share one background color. Rendering
// segments separately leaves reset codes between them, which punches holes
// in the background; BgStyle styles every piece, spaces included.
type BgStyle struct {
	bg    lipgloss.Color
	fill  lipgloss.Style
	space string
}

// NewBgStyle creates a background helper for the given color.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	fill := lipgloss.NewStyle().Background(bg)
	return BgStyle{bg: bg, fill: fill, space: fill.Render(" ")}
}

// Render styles text word by word, joining the words with background
// spaces. Runs of spaces are kept.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	word := style.Background(b.bg)
	var out strings.Builder
	for {
		before, after, found := strings.Cut(text, " ")
		if before != "" {
			out.WriteString(word.Render(before))
		}
		if !found {
			return out.String()
		}
		out.WriteString(b.space)
		text = after
	}
}

// Space returns a single styled space.
func (b BgStyle) Space() string {
	return b.space
}

// FillLine pads content to exactly width cells, cutting anything longer.
func (b BgStyle) FillLine(content string, width int) string {
	return b.fill.Width(width).MaxWidth(width).Render(content)
}
