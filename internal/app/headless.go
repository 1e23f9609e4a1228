package app

import (
	"bufio"
	"context"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/five82/logscope/internal/engine"
	"github.com/five82/logscope/internal/logtail"
	"github.com/five82/logscope/internal/session"
	"github.com/five82/logscope/internal/source"
)

// Output is where headless commands print. Line numbers are zero-based in
// both formats.
type Output struct {
	W    io.Writer
	JSON bool
}

type countResult struct {
	Path string `json:"path"`
	engine.Stats
}

type linesResult struct {
	Start int      `json:"start"`
	Lines []string `json:"lines"`
}

type tailResult struct {
	Lines []string `json:"lines"`
}

type searchResult struct {
	Needle     string      `json:"needle"`
	IgnoreCase bool        `json:"ignore_case"`
	Count      int         `json:"count"`
	Hits       []int       `json:"hits"`
	Lines      []matchLine `json:"lines,omitempty"`
}

type matchLine struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// withSession fully loads opts.Path into a fresh session and hands it to fn.
func withSession(ctx context.Context, opts Options, fn func(context.Context, *session.Session) error) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.close()

	sess := rt.newSession(nil)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sess.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		if err := sess.Load(gctx, opts.Path); err != nil {
			return err
		}
		if err := sess.Wait(gctx); err != nil {
			return fmt.Errorf("load %s: %w", opts.Path, err)
		}
		return fn(gctx, sess)
	})
	return g.Wait()
}

// Count prints the number of lines in opts.Path. JSON output adds the byte
// count and digest.
func Count(ctx context.Context, opts Options, out Output) error {
	return withSession(ctx, opts, func(ctx context.Context, sess *session.Session) error {
		stats, err := sess.Stats(ctx)
		if err != nil {
			return err
		}
		if out.JSON {
			return json.NewEncoder(out.W).Encode(countResult{Path: opts.Path, Stats: stats})
		}
		_, err = fmt.Fprintln(out.W, stats.Lines)
		return err
	})
}

// Lines prints lines [start, end) of opts.Path, clamped to the file.
func Lines(ctx context.Context, opts Options, out Output, start, end int) error {
	if start < 0 || end < start {
		return fmt.Errorf("%w: lines %d..%d", engine.ErrInvalidArgument, start, end)
	}
	return withSession(ctx, opts, func(ctx context.Context, sess *session.Session) error {
		lines, err := sess.Lines(ctx, start, end)
		if err != nil {
			return err
		}
		return printLines(out, start, lines)
	})
}

// Search prints the lines of opts.Path containing needle. With withText each
// hit is printed as "index:text".
func Search(ctx context.Context, opts Options, out Output, needle string, foldCase, withText bool) error {
	return withSession(ctx, opts, func(ctx context.Context, sess *session.Session) error {
		hits, err := sess.Search(ctx, needle, foldCase)
		if err != nil {
			return err
		}

		var matches []matchLine
		if withText {
			matches = make([]matchLine, 0, len(hits))
			for _, i := range hits {
				text, err := sess.Lines(ctx, i, i+1)
				if err != nil {
					return err
				}
				matches = append(matches, matchLine{Index: i, Text: first(text)})
			}
		}

		if out.JSON {
			if hits == nil {
				hits = []int{}
			}
			return json.NewEncoder(out.W).Encode(searchResult{
				Needle:     needle,
				IgnoreCase: foldCase,
				Count:      len(hits),
				Hits:       hits,
				Lines:      matches,
			})
		}

		w := bufio.NewWriter(out.W)
		if withText {
			for _, m := range matches {
				fmt.Fprintf(w, "%d:%s\n", m.Index, m.Text)
			}
		} else {
			for _, i := range hits {
				fmt.Fprintln(w, i)
			}
		}
		return w.Flush()
	})
}

// Tail prints the last n lines of opts.Path. Plain files are read from the
// end; streams and compressed files are loaded whole.
func Tail(ctx context.Context, opts Options, out Output, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: tail %d", engine.ErrInvalidArgument, n)
	}
	if opts.Path == source.Stdin {
		return withSession(ctx, opts, func(ctx context.Context, sess *session.Session) error {
			lines, err := sess.Tail(ctx, n)
			if err != nil {
				return err
			}
			return printTail(out, lines)
		})
	}

	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.close()

	if n == 0 {
		return printTail(out, nil)
	}
	lines, err := logtail.Read(opts.Path, n, engine.WithEncoding(rt.enc))
	if err != nil {
		return err
	}
	return printTail(out, lines)
}

// printTail omits the start index, which a backwards read does not know.
func printTail(out Output, lines []string) error {
	if out.JSON {
		if lines == nil {
			lines = []string{}
		}
		return json.NewEncoder(out.W).Encode(tailResult{Lines: lines})
	}
	return printLines(out, 0, lines)
}

func printLines(out Output, start int, lines []string) error {
	if out.JSON {
		if lines == nil {
			lines = []string{}
		}
		return json.NewEncoder(out.W).Encode(linesResult{Start: start, Lines: lines})
	}
	w := bufio.NewWriter(out.W)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	return w.Flush()
}

func first(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}
