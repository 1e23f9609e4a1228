package engine

import (
	"fmt"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// Engine is one log session: the committed bytes, the line index built over
// them, and the scanner state carried between commits. An Engine is not safe
// for concurrent use; a single goroutine must drive both ingestion and
// queries.
type Engine struct {
	buf     buffer
	scan    scanner
	index   offsetIndex
	digest  *xxh3.Hasher
	enc     encoding.Encoding
	decoder lineDecoder
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxBytes caps the buffer at n bytes. Reserving past the cap fails with
// ErrOutOfMemory. Zero means unlimited.
func WithMaxBytes(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.buf.max = n
		}
	}
}

// WithInitialCapacity preallocates n bytes of buffer storage, typically the
// size of the file about to be loaded.
func WithInitialCapacity(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.buf.data = make([]byte, 0, n)
		}
	}
}

// WithEncoding sets the text encoding used to decode lines. The default is
// UTF-8 with U+FFFD replacement of invalid sequences.
func WithEncoding(enc encoding.Encoding) Option {
	return func(e *Engine) {
		if enc != nil {
			e.enc = enc
		}
	}
}

// New returns an empty Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		index:  newOffsetIndex(),
		digest: xxh3.New(),
		enc:    unicode.UTF8,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.buf.max > 0 && cap(e.buf.data) > e.buf.max {
		e.buf.data = make([]byte, 0, e.buf.max)
	}
	e.decoder = newLineDecoder(e.enc)
	return e
}

// Reserve returns a writable region of at least min bytes at the tail of the
// buffer. The region stays valid until the next Reserve or Clear; bytes
// written there become part of the log only once Commit is called.
func (e *Engine) Reserve(min int) ([]byte, error) {
	return e.buf.reserve(min)
}

// Commit appends the first n bytes of the last reserved region and indexes
// them. n larger than the reservation fails with ErrInvalidArgument and
// leaves the session untouched.
func (e *Engine) Commit(n int) error {
	from, err := e.buf.commit(n)
	if err != nil {
		return err
	}
	data := e.buf.bytes()
	_, _ = e.digest.Write(data[from:])
	e.scan.scan(data, from, &e.index)
	return nil
}

// Grow makes room for n more bytes up front, typically the size of a file
// about to be loaded. Like Reserve it invalidates an outstanding region, so
// the next Commit must follow a fresh Reserve.
func (e *Engine) Grow(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: grow %d bytes", ErrInvalidArgument, n)
	}
	e.buf.reserved = 0
	if e.buf.capacity()-e.buf.len() >= n {
		return nil
	}
	return e.buf.grow(n)
}

// Write copies p into the buffer and commits it. It implements io.Writer.
func (e *Engine) Write(p []byte) (int, error) {
	region, err := e.Reserve(len(p))
	if err != nil {
		return 0, err
	}
	n := copy(region, p)
	if err := e.Commit(n); err != nil {
		return 0, err
	}
	return n, nil
}

// LineCount returns the number of lines, including an open trailing line
// whose terminator has not been seen yet.
func (e *Engine) LineCount() int {
	return e.index.lineCount(e.buf.len())
}

// LineRange returns the byte range of line i without its terminator.
func (e *Engine) LineRange(i int) (start, end uint64, ok bool) {
	return e.index.lineRange(e.buf.bytes(), i, e.scan.pendingCR())
}

// Lines decodes lines [start, end). end is clamped to LineCount; an empty
// range yields an empty slice.
func (e *Engine) Lines(start, end int) []string {
	end = min(end, e.LineCount())
	start = max(start, 0)
	if start >= end {
		return []string{}
	}
	data := e.buf.bytes()
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		s, t, _ := e.LineRange(i)
		lines = append(lines, e.decoder.decode(data[s:t]))
	}
	return lines
}

// Line decodes a single line.
func (e *Engine) Line(i int) (string, error) {
	s, t, ok := e.LineRange(i)
	if !ok {
		return "", fmt.Errorf("%w: line %d of %d", ErrInvalidArgument, i, e.LineCount())
	}
	return e.decoder.decode(e.buf.bytes()[s:t]), nil
}

// Search returns the index of every line containing needle, ascending and
// without duplicates. An empty needle matches nothing.
func (e *Engine) Search(needle []byte) []int {
	return e.SearchFunc(literal(needle))
}

// SearchFunc is Search with a caller-supplied Finder.
func (e *Engine) SearchFunc(f Finder) []int {
	hits := match(e.buf.bytes(), &e.index, e.scan.pendingCR(), f)
	if hits == nil {
		return []int{}
	}
	return hits
}

// Clear resets the session to empty. Buffer storage is kept for reuse.
func (e *Engine) Clear() {
	e.buf.reset()
	e.index.reset()
	e.scan.reset()
	e.digest.Reset()
}

// Len returns the number of committed bytes.
func (e *Engine) Len() int {
	return e.buf.len()
}

// Digest returns the xxh3 hash of every byte committed since the last Clear.
// Identical streams produce identical digests however they were chunked.
func (e *Engine) Digest() uint64 {
	return e.digest.Sum64()
}

// Stats is a point-in-time summary of a session.
type Stats struct {
	Bytes      int    `json:"bytes"`
	Lines      int    `json:"lines"`
	Terminated int    `json:"terminated"`
	Capacity   int    `json:"capacity"`
	Digest     uint64 `json:"digest"`
}

// Stats returns current counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Bytes:      e.buf.len(),
		Lines:      e.LineCount(),
		Terminated: e.index.terminated(),
		Capacity:   e.buf.capacity(),
		Digest:     e.Digest(),
	}
}
