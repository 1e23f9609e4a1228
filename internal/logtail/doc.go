// Package logtail reads the last lines of a log file.
//
// # Overview
//
// Read backs the `tail` command. It decodes lines with the same engine the
// viewer uses, so terminator handling (\n, \r\n, lone \r), the open trailing
// line and the text encoding all behave identically in both places.
//
//	lines, err := logtail.Read("/var/log/app.log", 100)
//	if err != nil {
//		return err
//	}
//
// # Window Algorithm
//
// For a plain regular file the engine is fed a suffix of the file instead of
// the whole thing:
//
//	1. window = max(maxLines × 256, 64 KiB)
//	2. Seek to size - window and load the rest into a fresh engine
//	3. Discard the first line (it may start mid-line) unless the window
//	   reached offset 0
//	4. If at least maxLines complete lines remain, return the last maxLines
//	5. Otherwise double the window and repeat
//
// Memory therefore follows maxLines × average line length, with at most one
// doubling's worth of overshoot. A window that begins between the \r and \n
// of a CRLF pair only mis-terminates the discarded first line.
//
// Compressed files cannot be seeked into, so gzip and zstd logs are streamed
// through the engine from the start. The same happens for maxLines <= 0,
// which asks for every line.
//
// # Error Handling
//
// Unlike the viewer, a missing file is an error: `tail` on a path that does
// not exist should fail loudly. Errors are wrapped with the failing step
// ("open log", "seek log", "read log").
package logtail
