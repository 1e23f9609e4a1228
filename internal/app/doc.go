// Package app is logscope's composition root.
//
// It resolves configuration (config file, then flag overrides), opens the
// diagnostic log, and connects a session.Session to either the interactive
// viewer or one of the headless commands.
//
// # Components
//
//   - app.go: Run, which loads a file in the background and runs the viewer
//   - headless.go: Count, Lines, Search and Tail for scripted use
//   - logging.go: slog text logger writing to log_file or LOGSCOPE_LOG
//   - progress.go: logs load progress, backing off while a stream stalls
//
// # Goroutines
//
// Run and the headless commands start the session worker and their own work
// under one errgroup. When that work returns, or the context is cancelled,
// the group is cancelled too, which stops the worker and closes the source.
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	err := app.Count(ctx, app.Options{Path: "server.log"}, app.Output{W: os.Stdout})
//
// The viewer cannot read standard input because Bubble Tea reads keys from
// it; headless commands accept "-".
package app
