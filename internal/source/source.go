package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Format identifies how the bytes of a source are stored.
type Format int

const (
	Plain Format = iota
	Gzip
	Zstd
)

func (f Format) String() string {
	switch f {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return "plain"
	}
}

// Stdin is the path that selects standard input.
const Stdin = "-"

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Source is an open, sequential byte stream.
type Source struct {
	io.Reader
	Format Format
	// Size is the on-disk size in bytes, or 0 when unknown. For compressed
	// files it is the compressed size.
	Size int64

	closers []func() error
}

// Close releases the decoder and the underlying file.
func (s *Source) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Open opens path for sequential reading. Gzip and zstd content is detected
// from its magic bytes and decompressed transparently; anything else is read
// as is.
func Open(path string) (*Source, error) {
	if path == Stdin {
		return wrap(os.Stdin, 0, nil)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	var size int64
	if info, err := file.Stat(); err == nil && info.Mode().IsRegular() {
		size = info.Size()
	}
	src, err := wrap(file, size, file.Close)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return src, nil
}

// NewReader sniffs r the same way Open sniffs a file.
func NewReader(r io.Reader) (*Source, error) {
	return wrap(r, 0, nil)
}

func wrap(r io.Reader, size int64, closer func() error) (*Source, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	src := &Source{Reader: br, Size: size}
	if closer != nil {
		src.closers = append(src.closers, closer)
	}

	head, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read source: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		src.Reader = dec
		src.Format = Zstd
		src.closers = append(src.closers, func() error { dec.Close(); return nil })
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		src.Reader = zr
		src.Format = Gzip
		src.closers = append(src.closers, zr.Close)
	}
	return src, nil
}
