package model

import (
	"fmt"
	"strings"
)

// Snapshot is the collaborative part of the canvas state: the unit of undo/redo.
// Selection and zoom are view-only and not part of it.
type Snapshot struct {
	Elements         []Element `json:"elements"`
	CanvasBackground string    `json:"canvasBackground"`
	CanvasWidth      int       `json:"canvasWidth"`
	CanvasHeight     int       `json:"canvasHeight"`
}

// String implements the stringer interface.
func (s Snapshot) String() string {
	str := strings.Builder{}
	str.WriteString(fmt.Sprintf("%dx%d %s\n", s.CanvasWidth, s.CanvasHeight, s.CanvasBackground))
	for i, el := range s.Elements {
		str.WriteString(fmt.Sprintf("- [%d] %s\n", i, el))
	}

	return str.String()
}

// Clone returns a deep copy (the elements list is never shared).
func (s Snapshot) Clone() Snapshot {
	s.Elements = CloneElements(s.Elements)

	return s
}

// DefaultSnapshot returns the empty 1080x1080 white canvas.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Elements:         []Element{},
		CanvasBackground: DefaultCanvasBackground,
		CanvasWidth:      DefaultCanvasWidth,
		CanvasHeight:     DefaultCanvasHeight,
	}
}

// CloneElements copies an element list, a nil list becomes an empty one.
func CloneElements(elements []Element) []Element {
	list := make([]Element, 0, len(elements))
	for _, el := range elements {
		list = append(list, el.Clone())
	}

	return list
}

// FindElement returns the element index in the list or -1.
func FindElement(elements []Element, id string) int {
	for i, el := range elements {
		if el.Id == id {
			return i
		}
	}

	return -1
}
