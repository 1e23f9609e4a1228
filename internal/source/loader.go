package source

import (
	"errors"
	"fmt"
	"io"
)

// DefaultChunkSize is the number of bytes requested per Step.
const DefaultChunkSize = 4 << 20

// Sink receives loaded bytes through a reserve/commit handshake.
// *engine.Engine satisfies it.
type Sink interface {
	Reserve(min int) ([]byte, error)
	Commit(n int) error
}

// Loader copies a reader into a Sink one chunk at a time, reading straight
// into the sink's reserved region.
type Loader struct {
	r     io.Reader
	sink  Sink
	chunk int
	read  int64
	done  bool
}

// NewLoader returns a Loader that reads chunk bytes per step. A chunk of zero
// or less uses DefaultChunkSize.
func NewLoader(r io.Reader, sink Sink, chunk int) *Loader {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	return &Loader{r: r, sink: sink, chunk: chunk}
}

// Step reads and commits at most one chunk. It returns io.EOF once the reader
// is exhausted; the bytes of the final read are committed before that.
func (l *Loader) Step() (int, error) {
	if l.done {
		return 0, io.EOF
	}
	region, err := l.sink.Reserve(l.chunk)
	if err != nil {
		return 0, fmt.Errorf("reserve: %w", err)
	}

	n, rerr := l.r.Read(region[:l.chunk])
	if n > 0 {
		if err := l.sink.Commit(n); err != nil {
			return 0, fmt.Errorf("commit: %w", err)
		}
		l.read += int64(n)
	}
	switch {
	case errors.Is(rerr, io.EOF):
		l.done = true
		return n, io.EOF
	case rerr != nil:
		return n, fmt.Errorf("read source: %w", rerr)
	}
	return n, nil
}

// Run calls Step until the reader is exhausted.
func (l *Loader) Run() (int64, error) {
	for {
		if _, err := l.Step(); err != nil {
			if errors.Is(err, io.EOF) {
				return l.read, nil
			}
			return l.read, err
		}
	}
}

// Loaded returns the number of bytes committed so far.
func (l *Loader) Loaded() int64 {
	return l.read
}

// Done reports whether the reader has been exhausted.
func (l *Loader) Done() bool {
	return l.done
}
