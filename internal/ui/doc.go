// Package ui provides the terminal log viewer.
//
// # Architecture Overview
//
// The viewer is a Bubble Tea program styled with Lipgloss. It never holds the
// log: each frame shows a window of bodyHeight lines fetched from a Backend
// (in practice a session.Session), so a multi-gigabyte file costs the UI no
// more memory than a short one.
//
// # Package Structure
//
//   - app.go: Model, Options, the Update loop and Run
//   - viewer.go: the virtualised window, scrolling keys and line rendering
//   - search.go: "/" prompt, hit navigation and match highlighting
//   - status.go: title and status bars, load progress bar
//   - keys.go, help.go: key bindings and the help overlay
//   - theme.go, style_helpers.go: palettes and background-safe rendering
//
// # Event Flow
//
//  1. A tick fires every Options.Tick
//  2. The tick reads state.Store (load progress) and re-requests the window
//  3. Window responses carry a sequence number; only the newest is applied
//  4. Snapshot changes in log size re-run an active search in the background
//  5. A new Generation in the store means a new log: position and hits reset
//
// # Follow Mode
//
// Follow is on at start. While on, every window request first asks for the
// line count and then fetches the last bodyHeight lines, so the view tracks
// a file that is still loading. Any scroll key turns follow off; G or Space
// turn it back on.
//
// # Search
//
// Search is a byte substring match done by the engine, optionally with ASCII
// case folding (toggle with i). Hit lines get an accented line number and
// the needle highlighted; the active hit uses the theme's warning color.
// The last query and the case setting are saved to prefs.
//
// # Usage Example
//
//	err := ui.Run(ui.Options{
//		Context: ctx,
//		Backend: sess,
//		Store:   sess.Store(),
//		Tick:    cfg.Tick,
//		Prefs:   userPrefs,
//	})
package ui
