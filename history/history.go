package history

import (
	"fmt"
	"sync"

	"github.com/itiky/collaborate-canvas/model"
)

// MaxSize is the default number of undo steps kept.
const MaxSize = 50

type (
	// History keeps linear undo/redo stacks of canvas snapshots.
	// Present always equals the canvas collaborative state at the last checkpoint.
	History struct {
		sync.RWMutex
		// Max past length (oldest versions are evicted first)
		limit int
		// Previous versions, the last one is the most recent
		past []model.Snapshot
		// The current version
		present model.Snapshot
		// Undone versions, the first one is the next to redo
		future []model.Snapshot
	}
)

// String implements the stringer interface.
func (h *History) String() string {
	h.RLock()
	defer h.RUnlock()

	return fmt.Sprintf("History (past %d / future %d, %d elements)", len(h.past), len(h.future), len(h.present.Elements))
}

// Checkpoint pushes the present version to the past and makes the snapshot a new present.
// Redo is invalidated.
func (h *History) Checkpoint(s model.Snapshot) {
	h.Lock()
	defer h.Unlock()

	h.past = append(h.past, h.present)
	if len(h.past) > h.limit {
		h.past = append([]model.Snapshot(nil), h.past[len(h.past)-h.limit:]...)
	}

	h.present = s.Clone()
	h.future = nil
}

// Undo moves the present version to the future and restores the latest past one.
// Returns false if there is nothing to undo.
func (h *History) Undo() bool {
	h.Lock()
	defer h.Unlock()

	if len(h.past) == 0 {
		return false
	}

	h.future = append([]model.Snapshot{h.present}, h.future...)

	lastIdx := len(h.past) - 1
	h.present = h.past[lastIdx]
	h.past = h.past[:lastIdx]

	return true
}

// Redo moves the present version to the past and restores the first future one.
// Returns false if there is nothing to redo.
func (h *History) Redo() bool {
	h.Lock()
	defer h.Unlock()

	if len(h.future) == 0 {
		return false
	}

	h.past = append(h.past, h.present)
	h.present = h.future[0]
	h.future = h.future[1:]

	return true
}

// Init resets the history to a single baseline version with no undo available.
func (h *History) Init(s model.Snapshot) {
	h.Lock()
	defer h.Unlock()

	h.past = nil
	h.present = s.Clone()
	h.future = nil
}

// Present returns the current version.
func (h *History) Present() model.Snapshot {
	h.RLock()
	defer h.RUnlock()

	return h.present.Clone()
}

// Past returns previous versions (oldest first).
func (h *History) Past() []model.Snapshot {
	h.RLock()
	defer h.RUnlock()

	return cloneSnapshots(h.past)
}

// Future returns undone versions (next to redo first).
func (h *History) Future() []model.Snapshot {
	h.RLock()
	defer h.RUnlock()

	return cloneSnapshots(h.future)
}

// CanUndo checks if Undo would move.
func (h *History) CanUndo() bool {
	h.RLock()
	defer h.RUnlock()

	return len(h.past) > 0
}

// CanRedo checks if Redo would move.
func (h *History) CanRedo() bool {
	h.RLock()
	defer h.RUnlock()

	return len(h.future) > 0
}

func cloneSnapshots(list []model.Snapshot) []model.Snapshot {
	res := make([]model.Snapshot, 0, len(list))
	for _, s := range list {
		res = append(res, s.Clone())
	}

	return res
}

// New creates a History keeping up to limit undo steps with the default snapshot as present.
func New(limit int) (*History, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "limit")
	}

	return &History{
		limit:   limit,
		present: model.DefaultSnapshot(),
	}, nil
}

// NewDefault creates a History with the MaxSize limit.
func NewDefault() *History {
	h, _ := New(MaxSize)
	return h
}
