package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/five82/logscope/internal/state"
)

func startSession(t *testing.T, opts Options) *Session {
	t.Helper()
	s := New(opts)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-errc; err != nil {
			t.Errorf("Run: %v", err)
		}
	})
	return s
}

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestSessionLoadAndQuery(t *testing.T) {
	ctx := context.Background()
	store := &state.Store{}
	s := startSession(t, Options{ChunkSize: 5, Store: store})

	path := writeLog(t, "foo bar\r\nbaz\nfoo")
	if err := s.Load(ctx, path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	n, err := s.LineCount(ctx)
	if err != nil || n != 3 {
		t.Fatalf("LineCount = %d, %v, want 3", n, err)
	}
	lines, err := s.Lines(ctx, 0, 10)
	if err != nil || !reflect.DeepEqual(lines, []string{"foo bar", "baz", "foo"}) {
		t.Fatalf("Lines = %q, %v", lines, err)
	}
	hits, err := s.Search(ctx, "foo", false)
	if err != nil || !reflect.DeepEqual(hits, []int{0, 2}) {
		t.Fatalf("Search = %v, %v, want [0 2]", hits, err)
	}
	hits, err = s.Search(ctx, "BAZ", true)
	if err != nil || !reflect.DeepEqual(hits, []int{1}) {
		t.Fatalf("Search fold = %v, %v, want [1]", hits, err)
	}

	window, total, err := s.Window(ctx, 1, 5)
	if err != nil || total != 3 || !reflect.DeepEqual(window, []string{"baz", "foo"}) {
		t.Fatalf("Window = %q, %d, %v", window, total, err)
	}

	snap := store.Snapshot()
	if !snap.Done || snap.Loading || snap.Loaded != 16 || snap.Stats.Lines != 3 {
		t.Fatalf("snapshot = %#v", snap)
	}
	if snap.Path != path || snap.Format != "plain" || snap.Total != 16 {
		t.Fatalf("snapshot source = %q %q %d", snap.Path, snap.Format, snap.Total)
	}
}

func TestSessionQueriesDuringLoadSeePrefix(t *testing.T) {
	ctx := context.Background()
	var b strings.Builder
	var want []string
	for i := range 2000 {
		line := fmt.Sprintf("line %04d", i)
		want = append(want, line)
		b.WriteString(line + "\n")
	}
	s := startSession(t, Options{ChunkSize: 7})
	if err := s.LoadReader(ctx, "mem", strings.NewReader(b.String())); err != nil {
		t.Fatalf("LoadReader: %v", err)
	}

	for range 50 {
		lines, total, err := s.Window(ctx, 0, 1<<30)
		if err != nil {
			t.Fatalf("Window: %v", err)
		}
		if len(lines) != total {
			t.Fatalf("Window returned %d lines, count %d", len(lines), total)
		}
		// Every line but the open tail must be final.
		for i := 0; i+1 < len(lines); i++ {
			if lines[i] != want[i] {
				t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
			}
		}
		if last := len(lines) - 1; last >= 0 && !strings.HasPrefix(want[last], lines[last]) {
			t.Fatalf("open line %q is not a prefix of %q", lines[last], want[last])
		}
	}

	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	got, err := s.Lines(ctx, 0, len(want))
	if err != nil || !reflect.DeepEqual(got, want) {
		t.Fatalf("final lines mismatch (err %v)", err)
	}
}

func TestSessionLoadReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	s := startSession(t, Options{ChunkSize: 1})

	if err := s.LoadReader(ctx, "first", strings.NewReader(strings.Repeat("old\n", 500))); err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if err := s.LoadReader(ctx, "second", strings.NewReader("new\n")); err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	lines, _ := s.Lines(ctx, 0, 10)
	if !reflect.DeepEqual(lines, []string{"new"}) {
		t.Fatalf("Lines = %q, want [new]", lines)
	}
	if got := s.Store().Snapshot(); got.Path != "second" || got.Generation != 2 {
		t.Fatalf("snapshot path %q generation %d", got.Path, got.Generation)
	}
}

func TestSessionWaitReportsLoadError(t *testing.T) {
	ctx := context.Background()
	s := startSession(t, Options{})

	boom := errors.New("boom")
	if err := s.LoadReader(ctx, "broken", iotest.ErrReader(boom)); err == nil {
		// Sniffing already hit the error; nothing was started.
		t.Fatalf("LoadReader succeeded on a failing reader")
	}

	r := iotest.TimeoutReader(strings.NewReader("abcdefgh\nmore"))
	if err := s.LoadReader(ctx, "flaky", r); err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if err := s.Wait(ctx); !errors.Is(err, iotest.ErrTimeout) {
		t.Fatalf("Wait = %v, want ErrTimeout", err)
	}
	if err := s.Wait(ctx); !errors.Is(err, iotest.ErrTimeout) {
		t.Fatalf("second Wait = %v, want the same error", err)
	}
	if snap := s.Store().Snapshot(); !snap.Failed() || snap.Loading {
		t.Fatalf("snapshot Failed=%v Loading=%v", snap.Failed(), snap.Loading)
	}
	// Bytes read before the failure stay queryable.
	if n, _ := s.LineCount(ctx); n == 0 {
		t.Fatalf("LineCount = 0 after partial load")
	}
}

func TestSessionClear(t *testing.T) {
	ctx := context.Background()
	s := startSession(t, Options{ChunkSize: 1})

	if err := s.LoadReader(ctx, "big", strings.NewReader(strings.Repeat("x\n", 10000))); err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, _ := s.LineCount(ctx); n != 0 {
		t.Fatalf("LineCount after Clear = %d, want 0", n)
	}
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait after Clear = %v, want nil", err)
	}
	if snap := s.Store().Snapshot(); snap.Path != "" || snap.Loading {
		t.Fatalf("snapshot after Clear = %#v", snap)
	}
}

func TestSessionTail(t *testing.T) {
	ctx := context.Background()
	s := startSession(t, Options{})
	if err := s.LoadReader(ctx, "mem", strings.NewReader("a\nb\nc\nd")); err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	tests := []struct {
		n    int
		want []string
	}{
		{2, []string{"c", "d"}},
		{10, []string{"a", "b", "c", "d"}},
		{0, []string{}},
	}
	for _, tt := range tests {
		got, err := s.Tail(ctx, tt.n)
		if err != nil || !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("Tail(%d) = %q, %v, want %q", tt.n, got, err, tt.want)
		}
	}
	if _, err := s.Tail(ctx, -1); err == nil {
		t.Fatalf("Tail(-1) succeeded")
	}
}

func TestSessionClosed(t *testing.T) {
	s := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	<-done

	if _, err := s.LineCount(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("LineCount after stop = %v, want ErrClosed", err)
	}
	if err := s.Wait(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Wait after stop = %v, want ErrClosed", err)
	}
}

func TestSessionCallerContext(t *testing.T) {
	s := New(Options{}) // never started
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Stats(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Stats = %v, want context.Canceled", err)
	}
}
