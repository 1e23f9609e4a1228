package engine

import "bytes"

// Finder locates the first occurrence of a fixed-length pattern in a byte
// range. Implementations should run in linear (or average-case linear)
// time; the matcher calls Index repeatedly over a monotonically advancing
// window.
type Finder interface {
	// Index returns the offset of the first match in haystack, or -1.
	Index(haystack []byte) int
	// Len returns the pattern length in bytes.
	Len() int
}

// Literal returns a Finder for the exact bytes of needle.
func Literal(needle []byte) Finder {
	return literal(bytes.Clone(needle))
}

type literal []byte

func (l literal) Index(haystack []byte) int { return bytes.Index(haystack, l) }
func (l literal) Len() int                  { return len(l) }

// FoldASCII returns a Finder that compares ASCII letters case-insensitively
// and every other byte exactly. Non-ASCII text is not folded.
func FoldASCII(needle []byte) Finder {
	folded := make([]byte, len(needle))
	for i, c := range needle {
		folded[i] = lowerASCII(c)
	}
	return foldASCII(folded)
}

type foldASCII []byte

func (f foldASCII) Len() int { return len(f) }

func (f foldASCII) Index(haystack []byte) int {
	n := len(f)
	if n == 0 {
		return 0
	}
	if n > len(haystack) {
		return -1
	}

	// Candidates are first-byte hits in either case. Both cursors only move
	// forward, so each byte is examined by IndexByte at most twice.
	window := haystack[:len(haystack)-n+1]
	lo, up := f[0], upperASCII(f[0])
	nextLo, nextUp := indexByteFrom(window, 0, lo), -1
	if up != lo {
		nextUp = indexByteFrom(window, 0, up)
	}
	for {
		at := earliest(nextLo, nextUp)
		if at < 0 {
			return -1
		}
		if equalFoldASCII(haystack[at:at+n], f) {
			return at
		}
		if at == nextLo {
			nextLo = indexByteFrom(window, at+1, lo)
		}
		if at == nextUp {
			nextUp = indexByteFrom(window, at+1, up)
		}
	}
}

func earliest(a, b int) int {
	switch {
	case a < 0:
		return b
	case b < 0:
		return a
	}
	return min(a, b)
}

// equalFoldASCII reports whether s matches the lower-cased pattern.
func equalFoldASCII(s, lowered []byte) bool {
	for i, c := range s {
		if lowerASCII(c) != lowered[i] {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func upperASCII(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// match scans buf once with f and returns every line whose content holds a
// match, ascending and without duplicates. After a hit the scan resumes at
// the next line start, so a line is never resolved twice.
func match(buf []byte, idx *offsetIndex, pendingCR bool, f Finder) []int {
	n := f.Len()
	if n == 0 || n > len(buf) {
		return nil
	}

	var hits []int
	line := 0
	pos := 0
	for pos <= len(buf)-n {
		m := f.Index(buf[pos:])
		if m < 0 {
			break
		}
		m += pos

		line = idx.locate(uint64(m), line)
		_, end, ok := idx.lineRange(buf, line, pendingCR)
		if !ok {
			break
		}
		if uint64(m+n) > end {
			// The match runs into a terminator; try the next offset.
			pos = m + 1
			continue
		}

		hits = append(hits, line)
		if line+1 >= len(idx.starts) {
			break
		}
		line++
		pos = int(idx.starts[line])
	}
	return hits
}
