// Package state shares load progress between the session worker and the UI.
//
// # Overview
//
// The session worker owns the engine and is the only goroutine allowed to
// touch it. The viewer still needs to know how far a load has come (bytes
// read, lines indexed, whether it failed) on every refresh tick, without
// queueing a request behind a chunk commit. Store is the side channel for
// that: the worker writes, the UI reads.
//
// # Architecture
//
//	Producer (session worker):     Consumer (UI):
//	┌────────────────────┐        ┌────────────────────┐
//	│ store.Begin()      │        │                    │
//	│ loader.Step()      │        │                    │
//	│      ↓             │        │                    │
//	│ store.Update()     │───────→│ store.Snapshot()   │
//	│      ↓             │(mutex) │      ↓             │
//	│ store.Finish()     │        │ render status bar  │
//	└────────────────────┘        └────────────────────┘
//
// # Lifecycle
//
//	store.Begin(path, format, size) → Loading=true, counters zeroed
//	store.Update(loaded, stats, nil) → counters replaced
//	store.Update(_, _, err)          → counters kept, LastError set, Loading=false
//	store.Finish(loaded, stats)      → Loading=false, Done=true
//	store.Reset()                    → empty snapshot
//
// Begin and Reset increment Generation. The UI compares generations to
// notice that the log it is showing has been replaced and its cached window
// and search hits are stale.
//
// # Progress
//
// Snapshot.Fraction reports Loaded/Total clamped to 1, or -1 when the total
// is unknown (standard input). For compressed files Total is the compressed
// size while Loaded counts decompressed bytes, so the fraction saturates
// early; the status bar then falls back to showing byte and line counts.
//
// # Copying
//
// Snapshot returns the struct by value. engine.Stats holds only scalars, so
// the only field needing care is LastError, which is re-wrapped so callers
// never share the producer's error value.
//
// The zero Store is ready to use.
package state
