package editor

import (
	"github.com/itiky/collaborate-canvas/canvas"
	"github.com/itiky/collaborate-canvas/history"
	"github.com/itiky/collaborate-canvas/model"
)

// canvasView hides the canvas mutators from Editor callers.
type canvasView struct {
	c *canvas.Canvas
}

func (v canvasView) Snapshot() model.Snapshot                { return v.c.Snapshot() }
func (v canvasView) Elements() []model.Element               { return v.c.Elements() }
func (v canvasView) Element(id string) (model.Element, bool) { return v.c.Element(id) }
func (v canvasView) SelectedId() string                      { return v.c.SelectedId() }
func (v canvasView) Zoom() float64                           { return v.c.Zoom() }

// historyView hides the history mutators from Editor callers.
type historyView struct {
	h *history.History
}

func (v historyView) Present() model.Snapshot  { return v.h.Present() }
func (v historyView) Past() []model.Snapshot   { return v.h.Past() }
func (v historyView) Future() []model.Snapshot { return v.h.Future() }
func (v historyView) CanUndo() bool            { return v.h.CanUndo() }
func (v historyView) CanRedo() bool            { return v.h.CanRedo() }
func (v historyView) String() string           { return v.h.String() }
