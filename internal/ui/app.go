package ui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/logscope/internal/prefs"
	"github.com/five82/logscope/internal/state"
)

// Backend answers the viewer's queries. *session.Session implements it.
type Backend interface {
	LineCount(ctx context.Context) (int, error)
	Window(ctx context.Context, start, n int) ([]string, int, error)
	Search(ctx context.Context, needle string, foldCase bool) ([]int, error)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Backend   Backend
	Store     *state.Store
	Tick      time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    *slog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	backend   Backend
	store     *state.Store
	prefs     prefs.Prefs
	prefsPath string
	tick      time.Duration
	logger    *slog.Logger
	keys      keyMap

	// UI state
	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool
	bar      progress.Model

	// Data state
	snapshot state.Snapshot
	view     viewState
	search   searchState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	tick := opts.Tick
	if tick <= 0 {
		tick = 250 * time.Millisecond
	}

	p := opts.Prefs
	if strings.TrimSpace(p.Theme) == "" {
		p = prefs.Default()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	theme := GetTheme(p.Theme)

	input := textinput.New()
	input.Prompt = "/"
	input.Placeholder = "search"
	input.CharLimit = 256

	return Model{
		ctx:       ctx,
		backend:   opts.Backend,
		store:     opts.Store,
		prefs:     p,
		prefsPath: prefsPath,
		tick:      tick,
		logger:    logger.With("component", "ui"),
		keys:      DefaultKeyMap(),
		theme:     theme,
		bar:       newProgressBar(theme),
		view:      viewState{follow: true},
		search:    searchState{input: input, fold: p.IgnoreCase},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.bar.Width = max(m.width/5, 10)
		cmd := m.refreshWindow()
		return m, cmd

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		return m.handleSnapshot(state.Snapshot(msg))

	case windowMsg:
		m.handleWindow(msg)
		return m, nil

	case searchMsg:
		return m.handleSearchResult(msg)
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderTitle())
	b.WriteString("\n")
	b.WriteString(m.renderLines())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if m.search.active {
		return m.handleSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.bar = newProgressBar(m.theme)
		m.bar.Width = max(m.width/5, 10)
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil
	}

	if cmd, ok := m.handleSearchKey(msg); ok {
		return m, cmd
	}
	cmd := m.handleNavKey(msg)
	return m, cmd
}

// handleTick refreshes progress, the visible window and, while a load is
// still growing the log, the active search.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if cmd := m.refreshWindow(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, tickCmd(m.tick))
	return m, tea.Batch(cmds...)
}

// handleSnapshot resets view state when a new load replaced the log and
// re-runs a search whose results went stale.
func (m Model) handleSnapshot(snap state.Snapshot) (tea.Model, tea.Cmd) {
	prev := m.snapshot
	m.snapshot = snap

	var cmds []tea.Cmd
	if snap.Generation != prev.Generation {
		m.view = viewState{follow: m.view.follow, seq: m.view.seq}
		m.search.hits = nil
		m.search.idx = 0
		m.search.pending = false
		m.search.searchedBytes = -1
		cmds = append(cmds, m.refreshWindow())
	}
	if m.search.query != "" && !m.search.pending && snap.Stats.Bytes != m.search.searchedBytes {
		cmds = append(cmds, m.runSearch(false))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) savePrefs() {
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs", "error", err)
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
