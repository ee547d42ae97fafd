package editor

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/itiky/collaborate-canvas/canvas"
	"github.com/itiky/collaborate-canvas/history"
	"github.com/itiky/collaborate-canvas/model"
)

type (
	// Replicator is the outbound side of the replication channel.
	// Emits are fire-and-forget: they are dropped while disconnected.
	Replicator interface {
		IsConnected() bool
		EmitElementAdd(sessionId model.SessionId, clientId model.ClientId, timestamp int64, element model.Element)
		EmitElementUpdate(sessionId model.SessionId, clientId model.ClientId, timestamp int64, elementId string, updates model.ElementPatch)
		EmitElementDelete(sessionId model.SessionId, clientId model.ClientId, timestamp int64, elementId string)
		EmitBackgroundChange(sessionId model.SessionId, clientId model.ClientId, timestamp int64, canvasBackground string)
		EmitResize(sessionId model.SessionId, clientId model.ClientId, timestamp int64, width, height int)
		EmitNameChange(sessionId model.SessionId, clientId model.ClientId, timestamp int64, name string)
		EmitUpdate(sessionId model.SessionId, clientId model.ClientId, timestamp int64, changes model.FullUpdate)
	}

	// CanvasView is the read side of the editor canvas, edits go through Dispatch.
	CanvasView interface {
		Snapshot() model.Snapshot
		Elements() []model.Element
		Element(id string) (model.Element, bool)
		SelectedId() string
		Zoom() float64
	}

	// HistoryView is the read side of the editor history, moves go through Undo and Redo.
	HistoryView interface {
		Present() model.Snapshot
		Past() []model.Snapshot
		Future() []model.Snapshot
		CanUndo() bool
		CanRedo() bool
		String() string
	}

	// Editor ties the canvas, its history and outbound replication together.
	// Every entry point is serialized by the editor lock, so inbound remote changes
	// and local edits never interleave.
	Editor struct {
		sync.Mutex
		// Components
		canvas  *canvas.Canvas
		history *history.History
		guard   *Guard
		out     Replicator
		now     func() time.Time
		// Session
		sessionId   model.SessionId
		clientId    model.ClientId
		design      model.Design
		dirty       bool
		activeUsers int
	}
)

// String implements the stringer interface.
func (e *Editor) String() string {
	return fmt.Sprintf("Editor (%s / %s)", e.sessionId, e.clientId)
}

// Canvas returns the read view of the canvas.
func (e *Editor) Canvas() CanvasView {
	return canvasView{c: e.canvas}
}

// History returns the read view of the undo/redo history.
func (e *Editor) History() HistoryView {
	return historyView{h: e.history}
}

// Guard returns the remote update guard.
func (e *Editor) Guard() *Guard {
	return e.guard
}

// Open loads a design as the new session state: no undo is available and nothing is unsaved.
func (e *Editor) Open(design model.Design, sessionId model.SessionId, clientId model.ClientId) {
	e.Lock()
	defer e.Unlock()

	e.sessionId, e.clientId = sessionId, clientId
	e.design = design
	e.design.Elements = nil
	e.activeUsers = 0

	e.guard.Run(func() {
		e.canvas.Apply(
			canvas.DeselectElement{},
			canvas.SetDimensions{Width: design.Width, Height: design.Height},
			canvas.SetBackground{Background: design.CanvasBackground},
			canvas.ReorderElements{Elements: design.Elements},
		)
	})
	e.history.Init(e.canvas.Snapshot())
	e.dirty = false

	log.Printf("%s: opened %s", e.String(), design)
}

// Close drops the session and resets the canvas to the default state.
func (e *Editor) Close() {
	e.Lock()
	defer e.Unlock()

	log.Printf("%s: closed", e.String())

	e.sessionId, e.clientId = "", ""
	e.design = model.Design{}
	e.activeUsers = 0

	e.guard.Run(func() {
		e.canvas.Apply(canvas.RestoreSnapshot{Snapshot: model.DefaultSnapshot()}, canvas.ResetZoom{})
	})
	e.history.Init(model.DefaultSnapshot())
	e.dirty = false
}

// Dispatch applies a local edit.
func (e *Editor) Dispatch(actions ...canvas.Action) {
	e.Lock()
	defer e.Unlock()

	e.canvas.Apply(actions...)
}

// ApplyRemote applies changes received from a peer with the guard raised:
// no checkpoint is recorded and nothing is sent back.
func (e *Editor) ApplyRemote(actions ...canvas.Action) {
	e.Lock()
	defer e.Unlock()

	e.guard.Run(func() {
		e.canvas.Apply(actions...)
	})
}

// Undo restores the previous history version and broadcasts it as a full update.
// Returns false if there is nothing to undo.
func (e *Editor) Undo() bool {
	e.Lock()
	defer e.Unlock()

	if !e.history.Undo() {
		return false
	}
	e.restorePresent()

	return true
}

// Redo restores the next history version and broadcasts it as a full update.
// Returns false if there is nothing to redo.
func (e *Editor) Redo() bool {
	e.Lock()
	defer e.Unlock()

	if !e.history.Redo() {
		return false
	}
	e.restorePresent()

	return true
}

// restorePresent applies the history present version to the canvas.
// Peers can't undo on a foreign history stack, so they get the authoritative snapshot.
func (e *Editor) restorePresent() {
	present := e.history.Present()

	e.guard.Run(func() {
		e.canvas.Apply(canvas.RestoreSnapshot{Snapshot: present})
	})
	e.dirty = true

	e.emit(func(ts int64) {
		e.out.EmitUpdate(e.sessionId, e.clientId, ts, model.NewFullUpdate(present))
	})
}

// BroadcastFullUpdate sends the current canvas state to peers (explicit save).
// Returns false if the update couldn't be sent.
func (e *Editor) BroadcastFullUpdate() bool {
	e.Lock()
	defer e.Unlock()

	changes := model.NewFullUpdate(e.canvas.Snapshot())
	return e.emit(func(ts int64) {
		e.out.EmitUpdate(e.sessionId, e.clientId, ts, changes)
	})
}

// RenameDesign renames the open design locally and notifies peers.
func (e *Editor) RenameDesign(name string) {
	e.Lock()
	defer e.Unlock()

	e.design.Name = name
	e.emit(func(ts int64) {
		e.out.EmitNameChange(e.sessionId, e.clientId, ts, name)
	})
}

// SetDesignName applies a design rename received from a peer.
func (e *Editor) SetDesignName(name string) {
	e.Lock()
	defer e.Unlock()

	e.design.Name = name
}

// SetActiveUsers stores the session presence counter.
func (e *Editor) SetActiveUsers(count int) {
	e.Lock()
	defer e.Unlock()

	e.activeUsers = count
}

// MarkSaved clears the unsaved changes flag.
func (e *Editor) MarkSaved() {
	e.Lock()
	defer e.Unlock()

	e.dirty = false
}

// Dirty checks if there are unsaved changes.
func (e *Editor) Dirty() bool {
	e.Lock()
	defer e.Unlock()

	return e.dirty
}

// ActiveUsers returns the last presence counter received.
func (e *Editor) ActiveUsers() int {
	e.Lock()
	defer e.Unlock()

	return e.activeUsers
}

// Session returns the open session and the local client ids ("" if none).
func (e *Editor) Session() (model.SessionId, model.ClientId) {
	e.Lock()
	defer e.Unlock()

	return e.sessionId, e.clientId
}

// Design returns the open design with the live canvas state.
func (e *Editor) Design() model.Design {
	e.Lock()
	defer e.Unlock()

	d := e.design
	s := e.canvas.Snapshot()
	d.Elements = s.Elements
	d.CanvasBackground = s.CanvasBackground
	d.Width, d.Height = s.CanvasWidth, s.CanvasHeight

	return d
}

// onApplied is the canvas observer implementing the history capture and outbound replication policies.
func (e *Editor) onApplied(a canvas.Action) {
	kind := a.Kind()

	if ShouldCapture(kind, e.guard) {
		e.history.Checkpoint(e.canvas.Snapshot())
		e.dirty = true
	}

	if ShouldReplicate(kind, e.guard) {
		e.replicate(a)
	}
}

// replicate sends the incremental message matching a local action.
func (e *Editor) replicate(a canvas.Action) {
	e.emit(func(ts int64) {
		switch action := a.(type) {
		case canvas.AddElement:
			e.out.EmitElementAdd(e.sessionId, e.clientId, ts, action.Element)
		case canvas.UpdateElement:
			e.out.EmitElementUpdate(e.sessionId, e.clientId, ts, action.Id, action.Changes)
		case canvas.RenameElement:
			e.out.EmitElementUpdate(e.sessionId, e.clientId, ts, action.Id, model.ElementPatch{Name: model.Str(action.Name)})
		case canvas.DeleteElement:
			e.out.EmitElementDelete(e.sessionId, e.clientId, ts, action.Id)
		case canvas.SetBackground:
			e.out.EmitBackgroundChange(e.sessionId, e.clientId, ts, action.Background)
		case canvas.SetDimensions:
			e.out.EmitResize(e.sessionId, e.clientId, ts, action.Width, action.Height)
		case canvas.ClearCanvas, canvas.ReorderElements:
			// Bulk list changes have no incremental message
			e.out.EmitUpdate(e.sessionId, e.clientId, ts, model.FullUpdate{Elements: e.canvas.Elements()})
		}
	})
}

// emit calls send if a session is open and the channel is connected.
func (e *Editor) emit(send func(ts int64)) bool {
	if e.out == nil || e.sessionId == "" || e.clientId == "" {
		return false
	}
	if !e.out.IsConnected() {
		return false
	}

	send(e.now().UnixMilli())

	return true
}

// NewEditor creates a new Editor object.
// out might be nil for a local-only editor.
func NewEditor(out Replicator, historyLimit int) (*Editor, error) {
	h, err := history.New(historyLimit)
	if err != nil {
		return nil, fmt.Errorf("history.New: %w", err)
	}

	e := &Editor{
		canvas:  canvas.NewCanvas(),
		history: h,
		guard:   &Guard{},
		out:     out,
		now:     time.Now,
	}
	e.canvas.Subscribe(e.onApplied)

	return e, nil
}
