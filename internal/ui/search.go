package ui

import (
	"context"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/logscope/internal/engine"
)

// searchState holds the prompt and the results of the last search.
type searchState struct {
	active bool // prompt is open
	input  textinput.Model

	query string
	fold  bool
	hits  []int // ascending line indices
	idx   int   // position of the active hit in hits
	err   error

	pending       bool // a search is in flight
	searchedBytes int  // log size the current hits were computed for
}

type searchMsg struct {
	query string
	fold  bool
	hits  []int
	bytes int
	jump  bool
	err   error
}

// activeLine returns the line of the active hit, or -1.
func (s searchState) activeLine() int {
	if s.query == "" || s.idx >= len(s.hits) {
		return -1
	}
	return s.hits[s.idx]
}

func (s searchState) isHit(line int) bool {
	if s.query == "" {
		return false
	}
	_, found := slices.BinarySearch(s.hits, line)
	return found
}

// handleSearchKey processes search keys outside the prompt. ok is false when
// msg is not a search key.
func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.search.active = true
		m.search.input.SetValue(m.prefs.LastSearch)
		m.search.input.CursorEnd()
		return m.search.input.Focus(), true

	case key.Matches(msg, m.keys.NextMatch):
		return m.stepMatch(1), true

	case key.Matches(msg, m.keys.PrevMatch):
		return m.stepMatch(-1), true

	case key.Matches(msg, m.keys.IgnoreCase):
		m.search.fold = !m.search.fold
		m.prefs.IgnoreCase = m.search.fold
		m.savePrefs()
		if m.search.query == "" {
			return nil, true
		}
		return m.runSearch(true), true

	case key.Matches(msg, m.keys.Escape):
		m.clearSearch()
		return nil, true
	}
	return nil, false
}

// handleSearchInput handles keyboard input while the prompt is open.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		query := m.search.input.Value()
		m.search.active = false
		m.search.input.Blur()
		if query == "" {
			m.clearSearch()
			return m, nil
		}
		m.search.query = query
		m.search.hits = nil
		m.search.idx = 0
		m.prefs.LastSearch = query
		m.savePrefs()
		cmd := m.runSearch(true)
		return m, cmd

	case key.Matches(msg, m.keys.Escape):
		m.search.active = false
		m.search.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search.input, cmd = m.search.input.Update(msg)
	return m, cmd
}

func (m *Model) clearSearch() {
	m.search.query = ""
	m.search.hits = nil
	m.search.idx = 0
	m.search.err = nil
	m.search.pending = false
}

// runSearch asks the backend for every line holding the current query. With
// jump set the view moves to the first hit at or below the current position
// once results arrive.
func (m *Model) runSearch(jump bool) tea.Cmd {
	if m.backend == nil || m.search.query == "" {
		return nil
	}
	m.search.pending = true
	return searchCmd(m.ctx, m.backend, m.search.query, m.search.fold, m.snapshot.Stats.Bytes, jump)
}

func searchCmd(ctx context.Context, backend Backend, query string, fold bool, bytes int, jump bool) tea.Cmd {
	return func() tea.Msg {
		hits, err := backend.Search(ctx, query, fold)
		return searchMsg{query: query, fold: fold, hits: hits, bytes: bytes, jump: jump, err: err}
	}
}

func (m Model) handleSearchResult(msg searchMsg) (tea.Model, tea.Cmd) {
	if msg.query != m.search.query || msg.fold != m.search.fold {
		// Superseded while in flight.
		return m, nil
	}
	m.search.pending = false
	m.search.err = msg.err
	if msg.err != nil {
		return m, nil
	}
	m.search.searchedBytes = msg.bytes

	if !msg.jump {
		// Background refresh: keep the active hit on the same line.
		line := m.search.activeLine()
		m.search.hits = msg.hits
		if i, ok := slices.BinarySearch(msg.hits, line); ok {
			m.search.idx = i
		} else {
			m.search.idx = min(m.search.idx, max(len(msg.hits)-1, 0))
		}
		return m, nil
	}

	m.search.hits = msg.hits
	if len(msg.hits) == 0 {
		m.search.idx = 0
		return m, nil
	}
	i, _ := slices.BinarySearch(msg.hits, m.view.top)
	if i == len(msg.hits) {
		i = 0
	}
	m.search.idx = i
	cmd := m.centerOn(msg.hits[i])
	return m, cmd
}

// stepMatch moves the active hit by delta, wrapping around.
func (m *Model) stepMatch(delta int) tea.Cmd {
	n := len(m.search.hits)
	if m.search.query == "" || n == 0 {
		return nil
	}
	m.search.idx = ((m.search.idx+delta)%n + n) % n
	return m.centerOn(m.search.hits[m.search.idx])
}

// centerOn scrolls so that line sits in the middle of the view.
func (m *Model) centerOn(line int) tea.Cmd {
	m.view.total = max(m.view.total, line+1)
	return m.scrollTo(line - m.bodyHeight()/2)
}

// highlight renders text with every occurrence of the query in style.
func (m Model) highlight(text string, style lipgloss.Style, bg BgStyle, styles Styles) string {
	needle := []byte(m.search.query)
	var f engine.Finder = engine.Literal(needle)
	if m.search.fold {
		f = engine.FoldASCII(needle)
	}
	if f.Len() == 0 {
		return bg.Render(text, styles.Text)
	}

	var out []byte
	rest := []byte(text)
	for {
		i := f.Index(rest)
		if i < 0 {
			break
		}
		out = append(out, bg.Render(string(rest[:i]), styles.Text)...)
		out = append(out, style.Render(string(rest[i:i+f.Len()]))...)
		rest = rest[i+f.Len():]
	}
	out = append(out, bg.Render(string(rest), styles.Text)...)
	return string(out)
}
