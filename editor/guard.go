package editor

import "sync/atomic"

// Guard marks "the mutation being applied originated from a remote peer (or a history restoration)".
// It is a single boolean, not a counter: Run calls must not nest.
type Guard struct {
	active atomic.Bool
}

// Set raises the flag.
func (g *Guard) Set() {
	g.active.Store(true)
}

// Clear drops the flag.
func (g *Guard) Clear() {
	g.active.Store(false)
}

// Active checks if the flag is raised.
func (g *Guard) Active() bool {
	return g.active.Load()
}

// Run raises the flag for the duration of fn.
func (g *Guard) Run(fn func()) {
	g.Set()
	defer g.Clear()

	fn()
}
