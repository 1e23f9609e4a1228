package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// viewState is the virtualised window onto the log. Only the visible lines
// are ever held; everything else stays in the engine.
type viewState struct {
	top    int      // index of the first visible line
	total  int      // line count at the last fetch
	lines  []string // decoded lines [top, top+len(lines))
	follow bool     // keep the last line in view as the log grows
	seq    int      // id of the newest window request
	err    error
}

type windowMsg struct {
	seq   int
	top   int
	lines []string
	total int
	err   error
}

// bodyHeight is the number of log rows: everything except the title and
// status bars.
func (m Model) bodyHeight() int {
	return max(m.height-2, 1)
}

func (m Model) maxTop() int {
	return max(m.view.total-m.bodyHeight(), 0)
}

// refreshWindow requests the lines for the current position. Responses to
// older requests are dropped in handleWindow.
func (m *Model) refreshWindow() tea.Cmd {
	if m.backend == nil || !m.ready {
		return nil
	}
	m.view.seq++
	return fetchWindowCmd(m.ctx, m.backend, m.view.seq, m.view.top, m.bodyHeight(), m.view.follow)
}

func fetchWindowCmd(ctx context.Context, backend Backend, seq, top, n int, follow bool) tea.Cmd {
	return func() tea.Msg {
		if follow {
			total, err := backend.LineCount(ctx)
			if err != nil {
				return windowMsg{seq: seq, top: top, err: err}
			}
			top = max(total-n, 0)
		}
		lines, total, err := backend.Window(ctx, top, n)
		return windowMsg{seq: seq, top: top, lines: lines, total: total, err: err}
	}
}

func (m *Model) handleWindow(msg windowMsg) {
	if msg.seq != m.view.seq {
		return
	}
	if msg.err != nil {
		m.view.err = msg.err
		return
	}
	m.view.err = nil
	m.view.top = msg.top
	m.view.lines = msg.lines
	m.view.total = msg.total
}

// scrollTo moves the window so that top is the first visible line.
func (m *Model) scrollTo(top int) tea.Cmd {
	m.view.follow = false
	m.view.top = min(max(top, 0), m.maxTop())
	return m.refreshWindow()
}

// handleNavKey processes scrolling keys.
func (m *Model) handleNavKey(msg tea.KeyMsg) tea.Cmd {
	page := m.bodyHeight()
	switch {
	case key.Matches(msg, m.keys.Down):
		return m.scrollTo(m.view.top + 1)
	case key.Matches(msg, m.keys.Up):
		return m.scrollTo(m.view.top - 1)
	case key.Matches(msg, m.keys.HalfPageDown):
		return m.scrollTo(m.view.top + page/2)
	case key.Matches(msg, m.keys.HalfPageUp):
		return m.scrollTo(m.view.top - page/2)
	case key.Matches(msg, m.keys.PageDown):
		return m.scrollTo(m.view.top + page)
	case key.Matches(msg, m.keys.PageUp):
		return m.scrollTo(m.view.top - page)
	case key.Matches(msg, m.keys.Top):
		return m.scrollTo(0)
	case key.Matches(msg, m.keys.Bottom):
		m.view.follow = true
		return m.refreshWindow()
	case key.Matches(msg, m.keys.ToggleFollow):
		m.view.follow = !m.view.follow
		return m.refreshWindow()
	}
	return nil
}

// renderLines renders exactly bodyHeight rows.
func (m Model) renderLines() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	rows := m.bodyHeight()

	if len(m.view.lines) == 0 {
		msg := "No lines"
		switch {
		case m.view.err != nil:
			msg = "Read failed: " + m.view.err.Error()
		case m.snapshot.Loading:
			msg = "Loading..."
		}
		out := []string{bg.FillLine(bg.Render(msg, styles.MutedText), m.width)}
		for len(out) < rows {
			out = append(out, bg.FillLine("", m.width))
		}
		return strings.Join(out, "\n")
	}

	gutter := len(strconv.Itoa(max(m.view.total, 1)))
	active := m.search.activeLine()
	out := make([]string, 0, rows)
	for i, line := range m.view.lines {
		if i >= rows {
			break
		}
		idx := m.view.top + i
		numStyle := styles.FaintText
		if m.search.isHit(idx) {
			numStyle = styles.AccentText
		}
		num := bg.Render(fmt.Sprintf("%*d │ ", gutter, idx+1), numStyle)

		text := expandTabs(line)
		var body string
		switch {
		case idx == active:
			body = m.highlight(text, styles.ActiveMatch, bg, styles)
		case m.search.isHit(idx):
			body = m.highlight(text, styles.Match, bg, styles)
		default:
			body = bg.Render(text, styles.Text)
		}
		out = append(out, bg.FillLine(num+body, m.width))
	}
	for len(out) < rows {
		out = append(out, bg.FillLine("", m.width))
	}
	return strings.Join(out, "\n")
}

// renderTitle renders the top bar: path, format and visible range.
func (m Model) renderTitle() string {
	bg := NewBgStyle(m.theme.Surface)
	styles := m.theme.Styles()

	name := m.snapshot.Path
	if name == "" {
		name = "logscope"
	}
	parts := []string{bg.Render(truncateMiddle(name, max(m.width/2, 12)), styles.Text.Bold(true))}
	if m.snapshot.Format != "" && m.snapshot.Format != "plain" {
		parts = append(parts, bg.Render(m.snapshot.Format, styles.InfoText))
	}
	if n := len(m.view.lines); n > 0 {
		first := m.view.top + 1
		last := m.view.top + min(n, m.bodyHeight())
		parts = append(parts, bg.Render(fmt.Sprintf("%d-%d of %d", first, last, m.view.total), styles.MutedText))
	}
	if m.view.follow {
		parts = append(parts, bg.Render("follow", styles.SuccessText))
	}
	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return bg.FillLine(bg.Space()+strings.Join(parts, sep), m.width)
}

// expandTabs replaces tabs with spaces so column math stays right.
func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := 4 - col%4
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}
