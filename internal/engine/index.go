package engine

import "sort"

// offsetIndex records the byte offset of every line start. starts[0] is
// always 0; every further entry follows a finalised terminator, so
// len(starts)-1 lines are fully terminated.
type offsetIndex struct {
	starts []uint64
}

func newOffsetIndex() offsetIndex {
	return offsetIndex{starts: []uint64{0}}
}

func (x *offsetIndex) push(start uint64) {
	x.starts = append(x.starts, start)
}

// terminated returns the number of lines whose terminator has been scanned.
func (x *offsetIndex) terminated() int {
	return len(x.starts) - 1
}

// last returns the start of the line after the last terminator.
func (x *offsetIndex) last() uint64 {
	return x.starts[len(x.starts)-1]
}

func (x *offsetIndex) reset() {
	x.starts = x.starts[:1]
}

// lineCount counts terminated lines plus the open trailing line, if any
// bytes follow the last terminator.
func (x *offsetIndex) lineCount(bufLen int) int {
	n := x.terminated()
	if uint64(bufLen) > x.last() {
		n++
	}
	return n
}

// lineRange returns the content bounds of line i with its terminator
// stripped. A '\r' still waiting for its successor is not part of the open
// line's content.
func (x *offsetIndex) lineRange(buf []byte, i int, pendingCR bool) (start, end uint64, ok bool) {
	n := x.terminated()
	switch {
	case i < 0:
		return 0, 0, false

	case i < n:
		start = x.starts[i]
		end = x.starts[i+1] - 1
		if buf[end] == '\n' && end > start && buf[end-1] == '\r' {
			end--
		}
		return start, end, true

	case i == n && uint64(len(buf)) > x.last():
		start = x.last()
		end = uint64(len(buf))
		if pendingCR {
			end--
		}
		return start, end, true
	}
	return 0, 0, false
}

// locate returns the line containing byte offset off, searching only lines
// at or after from. Callers guarantee starts[from] <= off.
func (x *offsetIndex) locate(off uint64, from int) int {
	rest := x.starts[from:]
	i := sort.Search(len(rest), func(i int) bool { return rest[i] > off })
	return from + i - 1
}
