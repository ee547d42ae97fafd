package canvas

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/itiky/collaborate-canvas/model"
)

func newRect(id string, x, y float64) model.Element {
	return model.Element{
		Id:     id,
		Type:   model.RectangleElementType,
		X:      x,
		Y:      y,
		Fill:   "#3b82f6",
		Width:  model.Float(200),
		Height: model.Float(150),
	}
}

// Test applies element CRUD actions and checks the list order and selection handling.
func Test_Canvas_ElementCRUD(t *testing.T) {
	c := NewCanvas()

	ids := func() []string {
		list := make([]string, 0)
		for _, el := range c.Elements() {
			list = append(list, el.Id)
		}
		return list
	}

	// add a few elements: list order is the z-order
	c.Apply(
		AddElement{Element: newRect("a", 0, 0)},
		AddElement{Element: newRect("b", 10, 10)},
		AddElement{Element: newRect("c", 20, 20)},
	)
	t.Logf("Adding:\n%s", c)
	require.Equal(t, []string{"a", "b", "c"}, ids())

	// update by id merges partial changes
	c.Apply(UpdateElement{Id: "b", Changes: model.ElementPatch{X: model.Float(500), Fill: model.Str("#000000")}})
	el, found := c.Element("b")
	require.True(t, found)
	require.Equal(t, 500.0, el.X)
	require.Equal(t, 10.0, el.Y)
	require.Equal(t, "#000000", el.Fill)

	// update / rename of an absent id is a no-op
	before := c.Snapshot()
	c.Apply(
		UpdateElement{Id: "x", Changes: model.ElementPatch{X: model.Float(1)}},
		RenameElement{Id: "x", Name: "nope"},
		DeleteElement{Id: "x"},
	)
	require.Equal(t, before, c.Snapshot())

	// rename
	c.Apply(RenameElement{Id: "a", Name: "Background box"})
	el, _ = c.Element("a")
	require.Equal(t, "Background box", el.Name)

	// delete clears the selection only if the deleted element was selected
	c.Apply(SelectElement{Id: "a"})
	c.Apply(DeleteElement{Id: "c"})
	require.Equal(t, "a", c.SelectedId())
	c.Apply(DeleteElement{Id: "a"})
	require.Equal(t, "", c.SelectedId())
	require.Equal(t, []string{"b"}, ids())

	// reorder replaces the whole list
	c.Apply(ReorderElements{Elements: []model.Element{newRect("z", 1, 1), newRect("b", 2, 2)}})
	require.Equal(t, []string{"z", "b"}, ids())

	// clear
	c.Apply(SelectElement{Id: "z"}, ClearCanvas{})
	require.Empty(t, c.Elements())
	require.Equal(t, "", c.SelectedId())
}

// Test checks the state returned by getters can't be used to mutate the canvas.
func Test_Canvas_Isolation(t *testing.T) {
	c := NewCanvas()

	el := newRect("a", 0, 0)
	c.Apply(AddElement{Element: el})
	el.X = 100

	list := c.Elements()
	list[0].X = 200

	snapshot := c.Snapshot()
	snapshot.Elements[0].X = 300

	stored, _ := c.Element("a")
	require.Equal(t, 0.0, stored.X)
}

func Test_Canvas_RestoreAndDimensions(t *testing.T) {
	c := NewCanvas()
	require.Equal(t, model.DefaultSnapshot(), c.Snapshot())

	c.Apply(
		SetBackground{Background: "#ff0000"},
		SetDimensions{Width: 1920, Height: 1080},
		AddElement{Element: newRect("a", 0, 0)},
		SelectElement{Id: "a"},
	)
	snapshot := c.Snapshot()
	require.Equal(t, "#ff0000", snapshot.CanvasBackground)
	require.Equal(t, 1920, snapshot.CanvasWidth)
	require.Equal(t, 1080, snapshot.CanvasHeight)

	c.Apply(RestoreSnapshot{Snapshot: model.DefaultSnapshot()})
	require.Equal(t, model.DefaultSnapshot(), c.Snapshot())
	require.Equal(t, "", c.SelectedId(), "restore drops the selection")
}

// Test walks the zoom ladder.
func Test_Canvas_Zoom(t *testing.T) {
	c := NewCanvas()
	require.Equal(t, 1.0, c.Zoom())

	// zoom-in from 1.0 reaches exactly 4, further zoom-in is a no-op
	for i := 0; i < 10; i++ {
		c.Apply(ZoomIn{})
	}
	require.Equal(t, 4.0, c.Zoom())
	c.Apply(ZoomIn{})
	require.Equal(t, 4.0, c.Zoom())

	// zoom-out walks every ladder entry backwards
	for i := len(ZoomLevels) - 2; i >= 0; i-- {
		c.Apply(ZoomOut{})
		require.Equal(t, ZoomLevels[i], c.Zoom(), fmt.Sprintf("step to [%d]", i))
	}
	c.Apply(ZoomOut{})
	require.Equal(t, 0.1, c.Zoom())

	// clamping
	c.Apply(SetZoom{Zoom: 10})
	require.Equal(t, MaxZoom, c.Zoom())
	c.Apply(SetZoom{Zoom: 0})
	require.Equal(t, MinZoom, c.Zoom())

	// off-ladder values step to the neighbouring entries
	c.Apply(SetZoom{Zoom: 0.3})
	c.Apply(ZoomIn{})
	require.Equal(t, 0.5, c.Zoom())
	c.Apply(SetZoom{Zoom: 0.3})
	c.Apply(ZoomOut{})
	require.Equal(t, 0.25, c.Zoom())

	c.Apply(ResetZoom{})
	require.Equal(t, DefaultZoom, c.Zoom())
}

func Test_Canvas_Observers(t *testing.T) {
	c := NewCanvas()

	seen := make([]ActionKind, 0)
	unsubscribe := c.Subscribe(func(a Action) {
		// observers are called after the mutation is visible
		if a.Kind() == AddElementKind {
			_, found := c.Element(a.(AddElement).Element.Id)
			require.True(t, found)
		}
		seen = append(seen, a.Kind())
	})

	second := 0
	c.Subscribe(func(a Action) { second++ })

	c.Apply(AddElement{Element: newRect("a", 0, 0)}, SetZoom{Zoom: 2}, nil)
	require.Equal(t, []ActionKind{AddElementKind, SetZoomKind}, seen)

	unsubscribe()
	c.Apply(ZoomIn{})
	require.Len(t, seen, 2)
	require.Equal(t, 3, second)
}

func Benchmark_Canvas_Update(b *testing.B) {
	c := NewCanvas()
	for i := 0; i < 1000; i++ {
		c.Apply(AddElement{Element: newRect(fmt.Sprintf("el-%d", i), 0, 0)})
	}
	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		c.Apply(UpdateElement{Id: fmt.Sprintf("el-%d", n%1000), Changes: model.ElementPatch{X: model.Float(float64(n))}})
	}
}
