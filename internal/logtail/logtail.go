package logtail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/five82/logscope/internal/engine"
	"github.com/five82/logscope/internal/source"
)

// minWindow is the first tail window tried for a seekable file.
const minWindow = 64 << 10

// bytesPerLine estimates how far back maxLines reach.
const bytesPerLine = 256

// Read returns at most maxLines from the end of the log at path, decoded by an
// engine built with opts. maxLines <= 0 returns every line.
//
// Plain files are read backwards in growing windows, so the cost follows
// maxLines rather than the file size. Compressed files are streamed.
func Read(path string, maxLines int, opts ...engine.Option) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}

	if maxLines > 0 && info.Mode().IsRegular() {
		plain, err := isPlain(file)
		if err != nil {
			return nil, err
		}
		if plain {
			return readWindows(file, info.Size(), maxLines, opts)
		}
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind log: %w", err)
	}
	src, err := source.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	eng := engine.New(opts...)
	if _, err := source.NewLoader(src, eng, 0).Run(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return last(eng, maxLines, false), nil
}

// readWindows loads ever larger suffixes of the file until one holds
// maxLines complete lines or covers the whole file.
func readWindows(file *os.File, size int64, maxLines int, opts []engine.Option) ([]string, error) {
	window := max(int64(maxLines)*bytesPerLine, minWindow)
	for {
		offset := max(size-window, 0)
		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek log: %w", err)
		}

		span := size - offset
		eng := engine.New(append([]engine.Option{engine.WithInitialCapacity(int(span))}, opts...)...)
		chunk := int(max(min(span, source.DefaultChunkSize), 1))
		if _, err := source.NewLoader(io.LimitReader(file, span), eng, chunk).Run(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}

		// The first line of a partial window may be cut short; it only
		// counts when the window reaches the start of the file.
		partial := offset > 0
		available := eng.LineCount()
		if partial {
			available--
		}
		if available >= maxLines || !partial {
			return last(eng, maxLines, partial), nil
		}
		window *= 2
	}
}

func last(eng *engine.Engine, maxLines int, skipFirst bool) []string {
	total := eng.LineCount()
	start := 0
	if skipFirst {
		start = 1
	}
	if maxLines > 0 {
		start = max(start, total-maxLines)
	}
	return eng.Lines(start, total)
}

func isPlain(file *os.File) (bool, error) {
	head := make([]byte, 4)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, fmt.Errorf("read log: %w", err)
	}
	head = head[:n]
	return !bytes.HasPrefix(head, []byte{0x1f, 0x8b}) && !bytes.HasPrefix(head, []byte{0x28, 0xb5, 0x2f, 0xfd}), nil
}
