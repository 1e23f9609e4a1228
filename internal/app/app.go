package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"

	"github.com/five82/logscope/internal/config"
	"github.com/five82/logscope/internal/engine"
	"github.com/five82/logscope/internal/prefs"
	"github.com/five82/logscope/internal/session"
	"github.com/five82/logscope/internal/source"
	"github.com/five82/logscope/internal/state"
	"github.com/five82/logscope/internal/ui"
)

// ErrNoTerminalInput is returned when the viewer is asked to read standard
// input, which it needs for key events.
var ErrNoTerminalInput = errors.New("the viewer reads keys from stdin; pass a file path or use a headless command")

// Options configure a logscope run. Zero-valued overrides keep the config
// file's values.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/logscope/prefs.toml
	Path       string // log file, or "-" for stdin

	ChunkSize int
	MaxBytes  int
	Encoding  string
}

type runtime struct {
	cfg      config.Config
	enc      encoding.Encoding
	logger   *slog.Logger
	closeLog func() error
}

func setup(opts Options) (*runtime, error) {
	if opts.Path == "" {
		return nil, errors.New("no log file given")
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.ChunkSize > 0 {
		cfg.ChunkSize = opts.ChunkSize
	}
	if opts.MaxBytes > 0 {
		cfg.MaxBufferBytes = opts.MaxBytes
	}
	if opts.Encoding != "" {
		cfg.Encoding = opts.Encoding
	}

	enc, err := engine.LookupEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, enc: enc, logger: logger, closeLog: closeLog}, nil
}

func (rt *runtime) close() {
	if err := rt.closeLog(); err != nil {
		slog.Default().Warn("close log file", "error", err)
	}
}

func (rt *runtime) newSession(store *state.Store) *session.Session {
	return session.New(session.Options{
		ChunkSize: rt.cfg.ChunkSize,
		MaxBytes:  rt.cfg.MaxBufferBytes,
		Encoding:  rt.enc,
		Store:     store,
		Logger:    rt.logger,
	})
}

// Run loads opts.Path in the background and runs the viewer until the user
// quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Path == source.Stdin {
		return ErrNoTerminalInput
	}
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.close()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		rt.logger.Warn("load prefs", "error", err)
	}

	store := &state.Store{}
	sess := rt.newSession(store)
	rt.logger.Info("viewer starting", "path", opts.Path, "chunk_size", rt.cfg.ChunkSize, "encoding", rt.cfg.Encoding)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sess.Run(gctx) })
	g.Go(func() error {
		reportProgress(gctx, store, rt.logger.With("component", "progress"), defaultReportInterval)
		return nil
	})
	g.Go(func() error {
		// The viewer exiting ends the whole run.
		defer cancel()
		if err := sess.Load(gctx, opts.Path); err != nil {
			return err
		}
		err := ui.Run(ui.Options{
			Context:   gctx,
			Backend:   sess,
			Store:     store,
			Tick:      rt.cfg.Tick,
			Prefs:     userPrefs,
			PrefsPath: opts.PrefsPath,
			Logger:    rt.logger,
		})
		if errors.Is(err, tea.ErrProgramKilled) && gctx.Err() != nil {
			return nil
		}
		return err
	})
	return g.Wait()
}
