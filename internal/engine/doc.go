// Package engine indexes a log as it streams in and answers line and
// substring queries without decoding the whole file.
//
// # Overview
//
// An Engine holds one session: an append-only byte buffer, the line-start
// index built over it, and the few bits of scanner state that carry across
// chunk boundaries. Only the lines a caller asks for are ever decoded to
// text, so memory stays proportional to file size rather than line count.
//
// # Ingestion
//
// The host writes bytes directly into engine storage:
//
//	region, err := eng.Reserve(chunkSize)
//	if err != nil {
//		return err
//	}
//	n, _ := src.Read(region[:chunkSize])
//	if err := eng.Commit(n); err != nil {
//		return err
//	}
//
// Reserve may relocate storage, so a region must be requested again before
// every write. Commit scans only the newly committed range.
//
// # Line Terminators
//
// "\n", "\r\n" and a lone "\r" all end a line. A "\r" that arrives as the
// last byte of a chunk is held back until the next commit shows whether a
// "\n" follows. Splitting the same stream into different chunks always
// yields the same lines.
//
// Bytes after the last terminator form an open trailing line. It is counted
// by LineCount and returned by Lines; once its terminator arrives it becomes
// an ordinary line.
//
// # Queries
//
//   - LineCount: terminated lines plus the open trailing line
//   - Lines: decoded text for a clamped range, terminators stripped
//   - Search: ascending, de-duplicated indices of lines containing a needle
//
// Decoding is lossy: invalid input becomes U+FFFD and never fails.
//
// # Concurrency
//
// The engine has no locks and starts no goroutines. Ingestion and queries
// must come from one goroutine; see package session for a worker that owns
// an Engine and serves requests from other goroutines.
//
// # Errors
//
// Commit past the last reservation returns ErrInvalidArgument. Growing the
// buffer past WithMaxBytes, or past what the runtime can allocate, returns
// ErrOutOfMemory; call Clear before reusing the session.
package engine
