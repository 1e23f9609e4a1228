// Package session runs an engine behind a single owning goroutine.
//
// The engine has no locks and must be driven from one goroutine. Session is
// that goroutine: Run loops until its context ends, and the exported methods
// package each call as a closure, hand it to the loop and wait for it to
// finish. Results (line slices, hit lists) are freshly allocated by the
// engine, so they can be returned to the caller without copying.
//
// # Loading
//
// Load opens the file on the caller's goroutine, then asks the worker to
// swap it in. While a load is active the loop alternates between one
// source.Loader step and any queued requests:
//
//	for {
//		select {
//		case req := <-reqs:  // LineCount, Lines, Search, ...
//			req(s)
//		default:
//			loader.Step()    // reserve, read, commit one chunk
//		}
//	}
//
// A query therefore waits for at most one chunk, never for the whole file,
// and always sees a consistent prefix of the stream: every terminated line
// is final and the open line can only grow.
//
// Progress is pushed to a state.Store after every step so the UI can render
// it without going through the request channel.
//
// # Cancellation
//
// A new Load, Clear, or the end of Run's context abandons the active load
// and closes its source. Anyone blocked in Wait receives the reason.
//
// Reads happen on the worker goroutine, so a source that blocks in Read
// (a slow pipe) delays queries until it returns. Regular files never do.
package session
