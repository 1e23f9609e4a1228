package engine

import (
	"fmt"
	"math"
)

// buffer is the append-only byte store of a session. len(data) is the
// committed length; cap(data) is storage that may be handed out by reserve.
type buffer struct {
	data     []byte
	reserved int // spare bytes promised by the last reserve, consumed by commit
	max      int // growth ceiling in bytes; zero means unlimited
}

// reserve guarantees at least min writable bytes past the committed tail and
// returns the whole spare region. Growth may relocate storage, invalidating
// regions returned earlier.
func (b *buffer) reserve(min int) ([]byte, error) {
	if min < 0 {
		return nil, fmt.Errorf("%w: reserve %d bytes", ErrInvalidArgument, min)
	}
	if cap(b.data)-len(b.data) < min {
		if err := b.grow(min); err != nil {
			b.reserved = 0
			return nil, err
		}
	}
	region := b.data[len(b.data):cap(b.data)]
	b.reserved = len(region)
	return region, nil
}

// commit advances the logical length over n bytes the caller wrote into the
// last reserved region and returns the newly committed range start.
func (b *buffer) commit(n int) (int, error) {
	if n < 0 || n > b.reserved {
		return 0, fmt.Errorf("%w: commit %d bytes, %d reserved", ErrInvalidArgument, n, b.reserved)
	}
	prior := len(b.data)
	b.data = b.data[:prior+n]
	b.reserved = 0
	return prior, nil
}

// grow relocates storage so that at least min bytes are free at the tail.
// Capacity at least doubles to keep appends amortised O(1) per byte.
func (b *buffer) grow(min int) (err error) {
	used := len(b.data)
	if min > math.MaxInt-used {
		return fmt.Errorf("%w: need %d bytes past %d", ErrOutOfMemory, min, used)
	}
	need := used + min
	if b.max > 0 && need > b.max {
		return fmt.Errorf("%w: need %d bytes, limit %d", ErrOutOfMemory, need, b.max)
	}

	newCap := cap(b.data) * 2
	if newCap < need || newCap < 0 {
		newCap = need
	}
	if b.max > 0 && newCap > b.max {
		newCap = b.max
	}

	// make panics instead of returning an error for absurd sizes.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: allocate %d bytes: %v", ErrOutOfMemory, newCap, r)
		}
	}()
	grown := make([]byte, used, newCap)
	copy(grown, b.data)
	b.data = grown
	return nil
}

// reset drops all committed bytes but keeps the storage for the next session.
func (b *buffer) reset() {
	b.data = b.data[:0]
	b.reserved = 0
}

func (b *buffer) bytes() []byte {
	return b.data
}

func (b *buffer) len() int {
	return len(b.data)
}

func (b *buffer) capacity() int {
	return cap(b.data)
}
