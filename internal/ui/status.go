package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

func newProgressBar(t Theme) progress.Model {
	return progress.New(
		progress.WithSolidFill(t.Accent),
		progress.WithoutPercentage(),
		progress.WithWidth(20),
	)
}

// renderStatus renders the bottom bar. The search prompt and search results
// take precedence over load progress.
func (m Model) renderStatus() string {
	bg := NewBgStyle(m.theme.Surface)
	styles := m.theme.Styles()

	if m.search.active {
		return bg.FillLine(m.search.input.View(), m.width)
	}

	if q := m.search.query; q != "" {
		var line string
		switch {
		case m.search.err != nil:
			line = bg.Render("Search failed: "+m.search.err.Error(), styles.DangerText)
		case m.search.pending && len(m.search.hits) == 0:
			line = bg.Render("/"+q, styles.AccentText) + bg.Render(" - searching...", styles.FaintText)
		case len(m.search.hits) == 0:
			line = bg.Render("Pattern not found: "+q, styles.DangerText)
		default:
			line = bg.Render("/"+q, styles.AccentText) +
				bg.Render(" - ", styles.FaintText) +
				bg.Render(fmt.Sprintf("%d/%d", m.search.idx+1, len(m.search.hits)), styles.WarningText) +
				bg.Render(" - Press ", styles.FaintText) +
				bg.Render("n", styles.AccentText) +
				bg.Render(" for next, ", styles.FaintText) +
				bg.Render("N", styles.AccentText) +
				bg.Render(" for previous, ", styles.FaintText) +
				bg.Render("Esc", styles.AccentText) +
				bg.Render(" to clear", styles.FaintText)
		}
		if m.search.fold {
			line += bg.Render(" [i]", styles.MutedText)
		}
		return bg.FillLine(bg.Space()+line, m.width)
	}

	snap := m.snapshot
	var parts []string
	switch {
	case snap.Failed():
		parts = append(parts, bg.Render("load failed: "+snap.LastError.Error(), styles.DangerText))
	case snap.Loading:
		if f := snap.Fraction(); f >= 0 && f < 1 {
			parts = append(parts, m.bar.ViewAs(f)+bg.Render(fmt.Sprintf(" %3.0f%%", f*100), styles.AccentText))
		} else {
			parts = append(parts, bg.Render("loading", styles.AccentText))
		}
	case snap.Done:
		parts = append(parts, bg.Render("loaded", styles.SuccessText))
	}
	parts = append(parts,
		bg.Render(fmt.Sprintf("%d lines", snap.Stats.Lines), styles.Text),
		bg.Render(formatBytes(int64(snap.Stats.Bytes)), styles.MutedText),
	)
	if snap.Done {
		parts = append(parts, bg.Render(fmt.Sprintf("xxh3 %016x", snap.Stats.Digest), styles.FaintText))
	}
	parts = append(parts, bg.Render("h for help", styles.FaintText))

	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return bg.FillLine(bg.Space()+strings.Join(parts, sep), m.width)
}

// formatBytes renders n with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// truncateMiddle shortens value by cutting from the middle so both the
// directory prefix and the file name stay visible.
func truncateMiddle(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if limit <= 0 || len(runes) <= limit {
		return string(runes)
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	keep := limit - 1 // one rune for the ellipsis
	head := keep / 2
	tail := keep - head
	return string(runes[:head]) + "…" + string(runes[len(runes)-tail:])
}
