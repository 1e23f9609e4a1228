package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/logscope/internal/state"
)

const (
	defaultReportInterval = 2 * time.Second
	maxBackoff            = 30 * time.Second
)

// reportProgress logs load progress from store at a fixed cadence until the
// load finishes, fails or ctx is cancelled. While nothing changes (a stalled
// pipe) the cadence backs off exponentially.
func reportProgress(ctx context.Context, store *state.Store, logger *slog.Logger, interval time.Duration) {
	if interval <= 0 {
		interval = defaultReportInterval
	}
	var (
		lastLoaded int64 = -1
		idle       int
	)
	for {
		snap := store.Snapshot()
		switch {
		case snap.Failed():
			return
		case snap.Done:
			logger.Info("load finished",
				"path", snap.Path,
				"bytes", snap.Loaded,
				"lines", snap.Stats.Lines,
				"elapsed", snap.LastUpdated.Sub(snap.StartedAt).Round(time.Millisecond),
			)
			return
		case snap.Loaded == lastLoaded:
			idle++
		default:
			idle = 0
			lastLoaded = snap.Loaded
			logger.Debug("load progress", "bytes", snap.Loaded, "lines", snap.Stats.Lines, "fraction", snap.Fraction())
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(calculateBackoff(idle, interval)):
		}
	}
}

// calculateBackoff returns the wait after failures consecutive idle polls:
// interval doubled per idle poll, capped at maxBackoff.
func calculateBackoff(failures int, interval time.Duration) time.Duration {
	if failures <= 0 {
		return interval
	}
	d := interval
	for range failures {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
