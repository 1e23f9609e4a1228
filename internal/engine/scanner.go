package engine

import "bytes"

// scanState carries terminator state between commits.
type scanState uint8

const (
	stateNone scanState = iota
	// statePendingCR means the last committed byte is a '\r' whose
	// terminator width depends on the next byte.
	statePendingCR
)

// scanner turns newly committed bytes into line starts. It never looks at
// bytes before the range it is handed, apart from the carried state, so any
// split of the same stream produces the same index.
type scanner struct {
	state scanState
}

// scan indexes buf[from:], the range committed since the previous call, and
// pushes the start offset of every line it finalises onto idx.
func (s *scanner) scan(buf []byte, from int, idx *offsetIndex) {
	end := len(buf)
	pos := from

	if s.state == statePendingCR {
		if pos == end {
			return
		}
		s.state = stateNone
		if buf[pos] == '\n' {
			pos++
		}
		idx.push(uint64(pos))
	}

	nextLF := indexByteFrom(buf, pos, '\n')
	nextCR := indexByteFrom(buf, pos, '\r')
	for {
		switch {
		case nextLF < 0 && nextCR < 0:
			return

		case nextCR < 0 || (nextLF >= 0 && nextLF < nextCR):
			pos = nextLF + 1
			idx.push(uint64(pos))
			nextLF = indexByteFrom(buf, pos, '\n')

		default:
			at := nextCR
			if at+1 == end {
				s.state = statePendingCR
				return
			}
			if buf[at+1] == '\n' {
				pos = at + 2
				nextLF = indexByteFrom(buf, pos, '\n')
			} else {
				pos = at + 1
			}
			idx.push(uint64(pos))
			nextCR = indexByteFrom(buf, pos, '\r')
		}
	}
}

func (s *scanner) pendingCR() bool {
	return s.state == statePendingCR
}

func (s *scanner) reset() {
	s.state = stateNone
}

// indexByteFrom is bytes.IndexByte over buf[from:] reporting an absolute
// position, or -1.
func indexByteFrom(buf []byte, from int, c byte) int {
	if from >= len(buf) {
		return -1
	}
	i := bytes.IndexByte(buf[from:], c)
	if i < 0 {
		return -1
	}
	return from + i
}
