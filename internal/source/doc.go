// Package source opens log inputs and feeds them to the engine.
//
// Open accepts a file path or "-" for standard input. The first bytes are
// peeked to recognise gzip (1f 8b) and zstd (28 b5 2f fd) streams, which are
// decompressed on the fly; anything else is passed through untouched, so a
// plain text file whose first bytes happen to be printable is never
// misdetected.
//
// Loader moves bytes from a Source into a Sink without an intermediate copy:
//
//	src, err := source.Open(path)
//	if err != nil {
//		return err
//	}
//	defer src.Close()
//
//	ld := source.NewLoader(src, eng, cfg.ChunkSize)
//	for {
//		if _, err := ld.Step(); err != nil {
//			if errors.Is(err, io.EOF) {
//				break
//			}
//			return err
//		}
//	}
//
// Each Step reserves one chunk, performs a single Read into it and commits
// whatever arrived. A short read is normal and simply commits fewer bytes.
// Callers that need to interleave other work (the session worker does) call
// Step in their own loop; Run is the blocking shorthand.
package source
