package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/logscope/internal/engine"
)

// Snapshot represents the latest load progress available to the UI.
type Snapshot struct {
	Path        string
	Format      string
	Total       int64 // source size in bytes; 0 when unknown
	Loaded      int64 // bytes committed so far
	Stats       engine.Stats
	Loading     bool
	Done        bool
	StartedAt   time.Time
	LastUpdated time.Time
	LastError   error
	Generation  int // incremented by every Begin and Reset
}

// Fraction returns load progress in [0, 1], or -1 when the total is unknown.
func (s Snapshot) Fraction() float64 {
	if s.Done {
		return 1
	}
	if s.Total <= 0 {
		return -1
	}
	return min(float64(s.Loaded)/float64(s.Total), 1)
}

// Failed reports whether the most recent load stopped on an error.
func (s Snapshot) Failed() bool {
	return s.LastError != nil
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Begin starts tracking a new load, discarding the previous one.
func (s *Store) Begin(path, format string, total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.snapshot = Snapshot{
		Path:        path,
		Format:      format,
		Total:       total,
		Loading:     true,
		StartedAt:   now,
		LastUpdated: now,
		Generation:  s.snapshot.Generation + 1,
	}
}

// Update records progress. When err is non-nil the previous counters are
// kept, the error is recorded and the load is marked as stopped.
func (s *Store) Update(loaded int64, stats engine.Stats, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.Loading = false
		return
	}
	s.snapshot.Loaded = loaded
	s.snapshot.Stats = stats
}

// Finish marks the current load as complete.
func (s *Store) Finish(loaded int64, stats engine.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Loaded = loaded
	s.snapshot.Stats = stats
	s.snapshot.Loading = false
	s.snapshot.Done = true
	s.snapshot.LastUpdated = time.Now()
}

// Reset forgets the current load.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = Snapshot{
		Generation:  s.snapshot.Generation + 1,
		LastUpdated: time.Now(),
	}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
