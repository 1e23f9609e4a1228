package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/logscope/internal/engine"
	"github.com/five82/logscope/internal/prefs"
	"github.com/five82/logscope/internal/state"
)

// fakeBackend serves a fixed slice of lines and records window sizes.
type fakeBackend struct {
	mu      sync.Mutex
	lines   []string
	windows []int
}

func (f *fakeBackend) LineCount(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lines), nil
}

func (f *fakeBackend) Window(_ context.Context, start, n int) ([]string, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, n)
	end := min(start+n, len(f.lines))
	start = min(max(start, 0), end)
	return append([]string(nil), f.lines[start:end]...), len(f.lines), nil
}

func (f *fakeBackend) Search(_ context.Context, needle string, fold bool) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	finder := engine.Literal([]byte(needle))
	if fold {
		finder = engine.FoldASCII([]byte(needle))
	}
	hits := []int{}
	for i, line := range f.lines {
		if needle != "" && finder.Index([]byte(line)) >= 0 {
			hits = append(hits, i)
		}
	}
	return hits, nil
}

func numberedLines(n int, mark func(int) bool) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("entry %d", i)
		if mark != nil && mark(i) {
			lines[i] += " needle"
		}
	}
	return lines
}

// execCmd runs cmd and returns its message, or nil when it does not finish
// quickly (cursor blink and similar timers).
func execCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// drain feeds the results of cmd back into m until nothing is left. Ticks
// are dropped so the loop terminates.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 1000 {
			t.Fatalf("drain did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		switch msg := execCmd(next).(type) {
		case nil, tickMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			updated, c := m.Update(msg)
			m = updated.(Model)
			queue = append(queue, c)
		}
	}
	return m
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	return drain(t, updated.(Model), cmd)
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "ctrl+d":
			msg = tea.KeyMsg{Type: tea.KeyCtrlD}
		case "ctrl+u":
			msg = tea.KeyMsg{Type: tea.KeyCtrlU}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m = send(t, m, msg)
	}
	return m
}

func newTestModel(t *testing.T, backend *fakeBackend, store *state.Store) Model {
	t.Helper()
	m := New(Options{
		Backend:   backend,
		Store:     store,
		Tick:      time.Millisecond,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	return send(t, m, tea.WindowSizeMsg{Width: 80, Height: 12})
}

func TestViewerRequestsOnlyVisibleWindow(t *testing.T) {
	backend := &fakeBackend{lines: numberedLines(10000, nil)}
	m := newTestModel(t, backend, nil)

	if m.bodyHeight() != 10 {
		t.Fatalf("bodyHeight = %d, want 10", m.bodyHeight())
	}
	if m.view.top != 9990 || len(m.view.lines) != 10 || m.view.total != 10000 {
		t.Fatalf("view = top %d lines %d total %d, want 9990 10 10000", m.view.top, len(m.view.lines), m.view.total)
	}
	m = press(t, m, "g", "j", "ctrl+d")

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.windows) == 0 {
		t.Fatalf("no window requests")
	}
	for _, n := range backend.windows {
		if n != 10 {
			t.Fatalf("window request for %d lines, want 10", n)
		}
	}
}

func TestViewerNavigation(t *testing.T) {
	backend := &fakeBackend{lines: numberedLines(100, nil)}
	m := newTestModel(t, backend, nil)

	if !m.view.follow || m.view.top != 90 {
		t.Fatalf("initial follow=%v top=%d, want true 90", m.view.follow, m.view.top)
	}

	tests := []struct {
		key     string
		wantTop int
		follow  bool
	}{
		{"g", 0, false},
		{"k", 0, false},
		{"j", 1, false},
		{"ctrl+d", 6, false},
		{"ctrl+u", 1, false},
		{"f", 11, false},
		{"b", 1, false},
		{"G", 90, true},
		{" ", 90, false},
		{" ", 90, true},
	}
	for _, tt := range tests {
		m = press(t, m, tt.key)
		if m.view.top != tt.wantTop || m.view.follow != tt.follow {
			t.Fatalf("after %q: top=%d follow=%v, want %d %v", tt.key, m.view.top, m.view.follow, tt.wantTop, tt.follow)
		}
	}

	m = press(t, m, "g")
	if got := m.view.lines[0]; got != "entry 0" {
		t.Fatalf("first visible line = %q, want entry 0", got)
	}
	if view := m.View(); !strings.Contains(view, "entry 0") || !strings.Contains(view, "1-10 of 100") {
		t.Fatalf("View() missing first line or range:\n%s", view)
	}
}

func TestViewerSearch(t *testing.T) {
	backend := &fakeBackend{lines: numberedLines(200, func(i int) bool { return i%50 == 7 })}
	m := newTestModel(t, backend, nil)
	m = press(t, m, "g")

	m = press(t, m, "/")
	if !m.search.active {
		t.Fatalf("search prompt not active after /")
	}
	m = press(t, m, "n", "e", "e", "d", "l", "e", "enter")

	if m.search.active || m.search.query != "needle" {
		t.Fatalf("search state = active %v query %q", m.search.active, m.search.query)
	}
	want := []int{7, 57, 107, 157}
	if fmt.Sprint(m.search.hits) != fmt.Sprint(want) {
		t.Fatalf("hits = %v, want %v", m.search.hits, want)
	}
	if m.search.activeLine() != 7 || m.view.follow {
		t.Fatalf("active line %d follow %v, want 7 false", m.search.activeLine(), m.view.follow)
	}
	if status := m.renderStatus(); !strings.Contains(status, "1/4") {
		t.Fatalf("status missing 1/4: %q", status)
	}

	m = press(t, m, "n")
	if m.search.activeLine() != 57 || m.view.top != 52 {
		t.Fatalf("after n: active %d top %d, want 57 52", m.search.activeLine(), m.view.top)
	}
	m = press(t, m, "N", "N")
	if m.search.activeLine() != 157 {
		t.Fatalf("after N N: active %d, want 157 (wrapped)", m.search.activeLine())
	}

	m = press(t, m, "esc")
	if m.search.query != "" || m.search.isHit(157) {
		t.Fatalf("esc did not clear search")
	}

	if m.prefs.LastSearch != "needle" {
		t.Fatalf("LastSearch = %q, want needle", m.prefs.LastSearch)
	}
	m = press(t, m, "/")
	if got := m.search.input.Value(); got != "needle" {
		t.Fatalf("prompt prefilled with %q, want needle", got)
	}
	m = press(t, m, "esc")
	if m.search.active {
		t.Fatalf("esc did not close the prompt")
	}
}

func TestViewerSearchIgnoreCase(t *testing.T) {
	backend := &fakeBackend{lines: []string{"ERROR a", "error b", "ok"}}
	m := newTestModel(t, backend, nil)

	m = press(t, m, "/", "e", "r", "r", "o", "r", "enter")
	if fmt.Sprint(m.search.hits) != "[1]" {
		t.Fatalf("hits = %v, want [1]", m.search.hits)
	}
	m = press(t, m, "i")
	if !m.search.fold || fmt.Sprint(m.search.hits) != "[0 1]" {
		t.Fatalf("fold=%v hits=%v, want true [0 1]", m.search.fold, m.search.hits)
	}
	loaded, _ := prefs.Load(m.prefsPath)
	if !loaded.IgnoreCase {
		t.Fatalf("IgnoreCase not persisted")
	}
}

func TestViewerSearchNotFound(t *testing.T) {
	backend := &fakeBackend{lines: numberedLines(5, nil)}
	m := newTestModel(t, backend, nil)
	m = press(t, m, "/", "z", "z", "z", "enter")
	if len(m.search.hits) != 0 {
		t.Fatalf("hits = %v, want none", m.search.hits)
	}
	if status := m.renderStatus(); !strings.Contains(status, "Pattern not found") {
		t.Fatalf("status = %q, want Pattern not found", status)
	}
}

func TestViewerThemeCycleSavesPrefs(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, nil)
	m = press(t, m, "T")
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	loaded, err := prefs.Load(m.prefsPath)
	if err != nil || loaded.Theme != "Kanagawa" {
		t.Fatalf("saved theme = %q, %v", loaded.Theme, err)
	}
}

func TestViewerHelpAndQuit(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, nil)
	m = press(t, m, "?")
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatalf("help overlay not shown")
	}
	m = press(t, m, "x")
	if m.showHelp {
		t.Fatalf("any key should close help")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("q did not quit")
	}
}

func TestViewerStatusShowsProgress(t *testing.T) {
	store := &state.Store{}
	store.Begin("/tmp/app.log", "plain", 1000)
	store.Update(250, engine.Stats{Bytes: 250, Lines: 12}, nil)

	m := newTestModel(t, &fakeBackend{lines: numberedLines(12, nil)}, store)
	m = send(t, m, snapshotMsg(store.Snapshot()))
	status := m.renderStatus()
	if !strings.Contains(status, "25%") || !strings.Contains(status, "12 lines") {
		t.Fatalf("status = %q, want progress and line count", status)
	}

	store.Finish(1000, engine.Stats{Bytes: 1000, Lines: 40, Digest: 0xabc})
	m = send(t, m, snapshotMsg(store.Snapshot()))
	if status := m.renderStatus(); !strings.Contains(status, "loaded") || !strings.Contains(status, "0000000000000abc") {
		t.Fatalf("status = %q, want loaded and digest", status)
	}
}

func TestViewerNewLoadResetsSearch(t *testing.T) {
	store := &state.Store{}
	store.Begin("a", "plain", 0)
	backend := &fakeBackend{lines: []string{"x needle"}}
	m := newTestModel(t, backend, store)
	m = send(t, m, snapshotMsg(store.Snapshot()))
	m = press(t, m, "/", "n", "e", "e", "d", "l", "e", "enter")
	if len(m.search.hits) != 1 {
		t.Fatalf("hits = %v, want one", m.search.hits)
	}

	store.Begin("b", "plain", 0)
	backend.mu.Lock()
	backend.lines = []string{"other", "needle here", "needle again"}
	backend.mu.Unlock()
	m = send(t, m, snapshotMsg(store.Snapshot()))
	if fmt.Sprint(m.search.hits) != "[1 2]" {
		t.Fatalf("hits after reload = %v, want [1 2]", m.search.hits)
	}
}
