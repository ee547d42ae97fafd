package editor

import (
	"github.com/itiky/collaborate-canvas/canvas"
)

// capturedKinds are the mutations producing a history checkpoint.
// Selection, zoom and element renames are view / cosmetic changes and never captured.
var capturedKinds = map[canvas.ActionKind]bool{
	canvas.AddElementKind:    true,
	canvas.UpdateElementKind: true,
	canvas.DeleteElementKind: true,
	canvas.ClearKind:         true,
	canvas.ReorderKind:       true,
	canvas.SetBackgroundKind: true,
	canvas.SetDimensionsKind: true,
}

// restorationKinds re-apply an existing history version, capturing them would push the same state twice.
var restorationKinds = map[canvas.ActionKind]bool{
	canvas.RestoreKind: true,
}

// IsCaptured checks if the action kind participates in history at all.
func IsCaptured(kind canvas.ActionKind) bool {
	return capturedKinds[kind]
}

// IsRestoration checks if the action kind is a history restoration.
func IsRestoration(kind canvas.ActionKind) bool {
	return restorationKinds[kind]
}

// ShouldCapture decides if an applied action creates a new checkpoint.
// Remote changes (guard raised) are owned by the history of the peer which made them.
func ShouldCapture(kind canvas.ActionKind, guard *Guard) bool {
	return IsCaptured(kind) && !IsRestoration(kind) && !guard.Active()
}

// ShouldReplicate decides if an applied action is sent to peers.
// View-only actions and restorations are never sent incrementally.
func ShouldReplicate(kind canvas.ActionKind, guard *Guard) bool {
	if guard.Active() || IsRestoration(kind) {
		return false
	}

	return IsCaptured(kind) || kind == canvas.RenameElementKind
}
