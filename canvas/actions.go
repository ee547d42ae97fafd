package canvas

import (
	"github.com/itiky/collaborate-canvas/model"
)

// ActionKind names a Canvas mutation.
type ActionKind string

const (
	AddElementKind      ActionKind = "add-element"
	UpdateElementKind   ActionKind = "update-element"
	DeleteElementKind   ActionKind = "delete-element"
	SelectElementKind   ActionKind = "select-element"
	DeselectElementKind ActionKind = "deselect-element"
	ClearKind           ActionKind = "clear"
	ReorderKind         ActionKind = "reorder"
	RestoreKind         ActionKind = "restore"
	SetBackgroundKind   ActionKind = "set-background"
	SetDimensionsKind   ActionKind = "set-dimensions"
	SetZoomKind         ActionKind = "set-zoom"
	ZoomInKind          ActionKind = "zoom-in"
	ZoomOutKind         ActionKind = "zoom-out"
	ResetZoomKind       ActionKind = "reset-zoom"
	RenameElementKind   ActionKind = "rename-element"
)

type (
	// Action is a named operation performed on Canvas to update its state.
	Action interface {
		// Mutation kind (used by the history capture and replication policies)
		Kind() ActionKind
		// Update the canvas state (called with the Canvas write lock held)
		Apply(c *Canvas)
	}

	// AddElement puts a new element on top of the others.
	AddElement struct {
		Element model.Element
	}

	// UpdateElement merges partial changes into the element with the given id.
	UpdateElement struct {
		Id      string
		Changes model.ElementPatch
	}

	DeleteElement struct {
		Id string
	}

	SelectElement struct {
		Id string
	}

	DeselectElement struct{}

	ClearCanvas struct{}

	// ReorderElements replaces the whole element list (z-order changes, bulk replace).
	ReorderElements struct {
		Elements []model.Element
	}

	// RestoreSnapshot replaces the collaborative state with a snapshot (undo/redo restoration).
	RestoreSnapshot struct {
		Snapshot model.Snapshot
	}

	SetBackground struct {
		Background string
	}

	SetDimensions struct {
		Width  int
		Height int
	}

	SetZoom struct {
		Zoom float64
	}

	ZoomIn struct{}

	ZoomOut struct{}

	ResetZoom struct{}

	RenameElement struct {
		Id   string
		Name string
	}
)

func (a AddElement) Kind() ActionKind      { return AddElementKind }
func (a UpdateElement) Kind() ActionKind   { return UpdateElementKind }
func (a DeleteElement) Kind() ActionKind   { return DeleteElementKind }
func (a SelectElement) Kind() ActionKind   { return SelectElementKind }
func (a DeselectElement) Kind() ActionKind { return DeselectElementKind }
func (a ClearCanvas) Kind() ActionKind     { return ClearKind }
func (a ReorderElements) Kind() ActionKind { return ReorderKind }
func (a RestoreSnapshot) Kind() ActionKind { return RestoreKind }
func (a SetBackground) Kind() ActionKind   { return SetBackgroundKind }
func (a SetDimensions) Kind() ActionKind   { return SetDimensionsKind }
func (a SetZoom) Kind() ActionKind         { return SetZoomKind }
func (a ZoomIn) Kind() ActionKind          { return ZoomInKind }
func (a ZoomOut) Kind() ActionKind         { return ZoomOutKind }
func (a ResetZoom) Kind() ActionKind       { return ResetZoomKind }
func (a RenameElement) Kind() ActionKind   { return RenameElementKind }

// Apply implements Action interface.
func (a AddElement) Apply(c *Canvas) {
	c.add(a.Element)
}

// Apply implements Action interface.
func (a UpdateElement) Apply(c *Canvas) {
	c.update(a.Id, a.Changes)
}

// Apply implements Action interface.
func (a DeleteElement) Apply(c *Canvas) {
	c.delete(a.Id)
}

// Apply implements Action interface.
func (a SelectElement) Apply(c *Canvas) {
	c.selectedId = a.Id
}

// Apply implements Action interface.
func (a DeselectElement) Apply(c *Canvas) {
	c.selectedId = ""
}

// Apply implements Action interface.
func (a ClearCanvas) Apply(c *Canvas) {
	c.elements = []model.Element{}
	c.selectedId = ""
}

// Apply implements Action interface.
func (a ReorderElements) Apply(c *Canvas) {
	c.replace(a.Elements)
}

// Apply implements Action interface.
func (a RestoreSnapshot) Apply(c *Canvas) {
	c.restore(a.Snapshot)
}

// Apply implements Action interface.
func (a SetBackground) Apply(c *Canvas) {
	c.background = a.Background
}

// Apply implements Action interface.
func (a SetDimensions) Apply(c *Canvas) {
	c.width, c.height = a.Width, a.Height
}

// Apply implements Action interface.
func (a SetZoom) Apply(c *Canvas) {
	c.zoom = clampZoom(a.Zoom)
}

// Apply implements Action interface.
func (a ZoomIn) Apply(c *Canvas) {
	c.zoom = nextZoomLevel(c.zoom)
}

// Apply implements Action interface.
func (a ZoomOut) Apply(c *Canvas) {
	c.zoom = prevZoomLevel(c.zoom)
}

// Apply implements Action interface.
func (a ResetZoom) Apply(c *Canvas) {
	c.zoom = DefaultZoom
}

// Apply implements Action interface.
func (a RenameElement) Apply(c *Canvas) {
	c.rename(a.Id, a.Name)
}
