package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/text/encoding"

	"github.com/five82/logscope/internal/engine"
	"github.com/five82/logscope/internal/source"
	"github.com/five82/logscope/internal/state"
)

// ErrClosed is returned by calls made after the worker has stopped.
var ErrClosed = errors.New("session closed")

// Options configure a Session.
type Options struct {
	ChunkSize int               // bytes per load step; zero uses source.DefaultChunkSize
	MaxBytes  int               // engine buffer ceiling; zero is unlimited
	Encoding  encoding.Encoding // nil means UTF-8
	Store     *state.Store      // progress sink; nil allocates a private store
	Logger    *slog.Logger      // nil discards
}

// Session owns one engine on a dedicated goroutine. Every engine access,
// loading included, happens inside Run; other goroutines reach the engine
// through the request methods.
type Session struct {
	reqs   chan request
	done   chan struct{}
	store  *state.Store
	logger *slog.Logger
	chunk  int
	eng    *engine.Engine

	// Owned by the Run goroutine.
	load    *loadState
	waiters []chan error
	lastErr error
}

type request func(*Session)

type loadState struct {
	src    io.Closer
	loader *source.Loader
}

// New returns a Session. Nothing happens until Run is called.
func New(opts Options) *Session {
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		reqs:   make(chan request),
		done:   make(chan struct{}),
		store:  store,
		logger: logger.With("component", "session"),
		chunk:  opts.ChunkSize,
		eng: engine.New(
			engine.WithMaxBytes(opts.MaxBytes),
			engine.WithEncoding(opts.Encoding),
		),
	}
}

// Store returns the progress store the session publishes to.
func (s *Session) Store() *state.Store {
	return s.store
}

// Run serves requests until ctx is cancelled. While a load is active it
// commits one chunk per iteration and drains queued requests in between.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	defer func() { s.stopLoad(context.Cause(ctx)) }()

	for {
		if s.load == nil {
			select {
			case <-ctx.Done():
				return nil
			case req := <-s.reqs:
				req(s)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case req := <-s.reqs:
			req(s)
		default:
			s.step()
		}
	}
}

func (s *Session) step() {
	_, err := s.load.loader.Step()
	loaded := s.load.loader.Loaded()
	switch {
	case errors.Is(err, io.EOF):
		stats := s.eng.Stats()
		s.store.Finish(loaded, stats)
		s.logger.Info("load complete", "bytes", loaded, "lines", stats.Lines)
		s.finishLoad(nil)
	case err != nil:
		s.store.Update(loaded, s.eng.Stats(), err)
		s.logger.Error("load failed", "bytes", loaded, "error", err)
		s.finishLoad(err)
	default:
		s.store.Update(loaded, s.eng.Stats(), nil)
	}
}

func (s *Session) finishLoad(err error) {
	if s.load != nil {
		if cerr := s.load.src.Close(); cerr != nil {
			s.logger.Warn("close source", "error", cerr)
		}
		s.load = nil
	}
	s.lastErr = err
	for _, w := range s.waiters {
		w <- err
	}
	s.waiters = nil
}

// stopLoad abandons the active load, if any.
func (s *Session) stopLoad(cause error) {
	if s.load == nil {
		return
	}
	if cause == nil {
		cause = context.Canceled
	}
	s.logger.Debug("load cancelled", "bytes", s.load.loader.Loaded())
	s.finishLoad(cause)
}

// do runs fn on the worker goroutine and waits for it to return.
func (s *Session) do(ctx context.Context, fn func(*Session)) error {
	reply := make(chan struct{})
	req := func(s *Session) {
		defer close(reply)
		fn(s)
	}
	select {
	case s.reqs <- req:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	// Once accepted the request runs to completion without blocking.
	<-reply
	return nil
}

// Load opens path and starts loading it in the background, replacing the
// current log. It returns once the source is open; use Wait to block until
// the whole file is indexed.
func (s *Session) Load(ctx context.Context, path string) error {
	src, err := source.Open(path)
	if err != nil {
		return err
	}
	if err := s.start(ctx, path, src); err != nil {
		_ = src.Close()
		return err
	}
	return nil
}

// LoadReader is Load for an already open stream.
func (s *Session) LoadReader(ctx context.Context, name string, r io.Reader) error {
	src, err := source.NewReader(r)
	if err != nil {
		return err
	}
	if err := s.start(ctx, name, src); err != nil {
		_ = src.Close()
		return err
	}
	return nil
}

func (s *Session) start(ctx context.Context, name string, src *source.Source) error {
	return s.do(ctx, func(s *Session) {
		s.stopLoad(errors.New("superseded by a new load"))
		s.eng.Clear()
		if src.Format == source.Plain && src.Size > 0 {
			if err := s.eng.Grow(int(src.Size)); err != nil {
				s.logger.Debug("preallocate buffer", "size", src.Size, "error", err)
			}
		}
		s.store.Begin(name, src.Format.String(), src.Size)
		s.lastErr = nil
		s.load = &loadState{src: src, loader: source.NewLoader(src, s.eng, s.chunk)}
		s.logger.Info("load started", "path", name, "format", src.Format, "size", src.Size)
	})
}

// Wait blocks until the current load finishes and returns its error. With no
// load in progress it returns the outcome of the last one.
func (s *Session) Wait(ctx context.Context) error {
	ch := make(chan error, 1)
	err := s.do(ctx, func(s *Session) {
		if s.load == nil {
			ch <- s.lastErr
			return
		}
		s.waiters = append(s.waiters, ch)
	})
	if err != nil {
		return err
	}
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		select {
		case err := <-ch:
			return err
		default:
			return ErrClosed
		}
	}
}

// Clear abandons any load and empties the engine.
func (s *Session) Clear(ctx context.Context) error {
	return s.do(ctx, func(s *Session) {
		s.stopLoad(errors.New("cleared"))
		s.eng.Clear()
		s.store.Reset()
		s.lastErr = nil
	})
}

// LineCount returns the number of lines indexed so far.
func (s *Session) LineCount(ctx context.Context) (int, error) {
	var n int
	err := s.do(ctx, func(s *Session) { n = s.eng.LineCount() })
	return n, err
}

// Lines returns decoded lines [start, end), clamped to what is indexed.
func (s *Session) Lines(ctx context.Context, start, end int) ([]string, error) {
	var lines []string
	err := s.do(ctx, func(s *Session) { lines = s.eng.Lines(start, end) })
	return lines, err
}

// Window returns up to n lines starting at start together with the total
// line count, in one round trip.
func (s *Session) Window(ctx context.Context, start, n int) ([]string, int, error) {
	var (
		lines []string
		total int
	)
	err := s.do(ctx, func(s *Session) {
		total = s.eng.LineCount()
		lines = s.eng.Lines(start, start+n)
	})
	return lines, total, err
}

// Search returns the lines containing needle. With foldCase ASCII letters
// match regardless of case.
func (s *Session) Search(ctx context.Context, needle string, foldCase bool) ([]int, error) {
	f := engine.Literal([]byte(needle))
	if foldCase {
		f = engine.FoldASCII([]byte(needle))
	}
	var hits []int
	err := s.do(ctx, func(s *Session) { hits = s.eng.SearchFunc(f) })
	return hits, err
}

// Stats returns the engine counters.
func (s *Session) Stats(ctx context.Context) (engine.Stats, error) {
	var st engine.Stats
	err := s.do(ctx, func(s *Session) { st = s.eng.Stats() })
	return st, err
}

// Tail returns the last n lines.
func (s *Session) Tail(ctx context.Context, n int) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: tail %d", engine.ErrInvalidArgument, n)
	}
	var lines []string
	err := s.do(ctx, func(s *Session) {
		total := s.eng.LineCount()
		lines = s.eng.Lines(total-n, total)
	})
	return lines, err
}
