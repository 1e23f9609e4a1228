package engine

import "errors"

// Sentinel errors. Callers match them with errors.Is; the engine wraps them
// with the offending values for context.
var (
	// ErrInvalidArgument reports a caller contract violation, such as
	// committing more bytes than the last reservation handed out.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfMemory reports that the byte buffer could not grow. The session
	// must be cleared before it is used again.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrUnsupportedEncoding reports a text encoding the engine cannot decode
	// lines with.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
)
