package canvas

import (
	"fmt"
	"strings"
	"sync"

	"github.com/itiky/collaborate-canvas/model"
)

type (
	// Canvas keeps the live design state: the collaborative fields (elements, background,
	// dimensions) alongside the view-only ones (selection, zoom).
	// All mutations go through Apply with an Action.
	Canvas struct {
		sync.RWMutex
		// Collaborative state
		elements   []model.Element
		background string
		width      int
		height     int
		// View state
		selectedId string
		zoom       float64
		//
		observers     []observerEntry
		nextObserver  int
		observersLock sync.Mutex
	}

	observerEntry struct {
		id int
		fn Observer
	}

	// Observer is notified after every applied Action.
	Observer func(a Action)
)

// String implements stringer interface.
func (c *Canvas) String() string {
	c.RLock()
	defer c.RUnlock()

	str := strings.Builder{}
	str.WriteString(fmt.Sprintf("Canvas %dx%d %s (zoom %.2f, selected %q)\n", c.width, c.height, c.background, c.zoom, c.selectedId))
	for i, el := range c.elements {
		str.WriteString(fmt.Sprintf("- [%d] %s\n", i, el))
	}

	return str.String()
}

// Snapshot builds a model.Snapshot of the collaborative fields (deep copy).
func (c *Canvas) Snapshot() model.Snapshot {
	c.RLock()
	defer c.RUnlock()

	return model.Snapshot{
		Elements:         model.CloneElements(c.elements),
		CanvasBackground: c.background,
		CanvasWidth:      c.width,
		CanvasHeight:     c.height,
	}
}

// Elements returns a copy of the ordered element list (z-order, last is on top).
func (c *Canvas) Elements() []model.Element {
	c.RLock()
	defer c.RUnlock()

	return model.CloneElements(c.elements)
}

// Element returns an element by id.
func (c *Canvas) Element(id string) (model.Element, bool) {
	c.RLock()
	defer c.RUnlock()

	idx := model.FindElement(c.elements, id)
	if idx < 0 {
		return model.Element{}, false
	}

	return c.elements[idx].Clone(), true
}

// SelectedId returns the selected element id ("" if none).
func (c *Canvas) SelectedId() string {
	c.RLock()
	defer c.RUnlock()

	return c.selectedId
}

// Zoom returns the current zoom factor.
func (c *Canvas) Zoom() float64 {
	c.RLock()
	defer c.RUnlock()

	return c.zoom
}

// Apply updates the canvas state with Action list and notifies observers about each one.
func (c *Canvas) Apply(actions ...Action) {
	for _, a := range actions {
		if a == nil {
			continue
		}

		c.Lock()
		a.Apply(c)
		c.Unlock()

		c.notify(a)
	}
}

// Subscribe registers an Observer and returns the function removing it.
func (c *Canvas) Subscribe(o Observer) func() {
	c.observersLock.Lock()
	defer c.observersLock.Unlock()

	id := c.nextObserver
	c.nextObserver++
	c.observers = append(c.observers, observerEntry{id: id, fn: o})

	return func() {
		c.observersLock.Lock()
		defer c.observersLock.Unlock()

		for i, entry := range c.observers {
			if entry.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// notify calls observers in the subscription order.
func (c *Canvas) notify(a Action) {
	c.observersLock.Lock()
	observers := make([]observerEntry, len(c.observers))
	copy(observers, c.observers)
	c.observersLock.Unlock()

	for _, entry := range observers {
		entry.fn(a)
	}
}

// add appends a new element on top.
func (c *Canvas) add(el model.Element) {
	c.elements = append(c.elements, el.Clone())
}

// update merges the patch into an existing element, no-op if absent.
func (c *Canvas) update(id string, changes model.ElementPatch) {
	idx := model.FindElement(c.elements, id)
	if idx < 0 {
		return
	}

	c.elements[idx] = changes.Apply(c.elements[idx])
}

// delete removes an element and drops the selection if it pointed to it.
func (c *Canvas) delete(id string) {
	list := make([]model.Element, 0, len(c.elements))
	for _, el := range c.elements {
		if el.Id != id {
			list = append(list, el)
		}
	}
	c.elements = list

	if c.selectedId == id {
		c.selectedId = ""
	}
}

// rename sets an element display name, no-op if absent.
func (c *Canvas) rename(id, name string) {
	idx := model.FindElement(c.elements, id)
	if idx < 0 {
		return
	}

	c.elements[idx].Name = name
}

// replace replaces the whole element list.
func (c *Canvas) replace(elements []model.Element) {
	c.elements = model.CloneElements(elements)
}

// restore replaces the collaborative state with a snapshot and drops the selection.
func (c *Canvas) restore(s model.Snapshot) {
	c.elements = model.CloneElements(s.Elements)
	c.background = s.CanvasBackground
	c.width, c.height = s.CanvasWidth, s.CanvasHeight
	c.selectedId = ""
}

// reset drops everything back to the default canvas.
func (c *Canvas) reset() {
	c.restore(model.DefaultSnapshot())
	c.zoom = DefaultZoom
}

// NewCanvas creates a Canvas with the default 1080x1080 white state.
func NewCanvas() *Canvas {
	c := &Canvas{}
	c.reset()

	return c
}
