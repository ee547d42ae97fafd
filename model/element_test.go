package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Test applies patches and checks untouched fields and the original element stay intact.
func Test_ElementPatch_Apply(t *testing.T) {
	el := Element{
		Id:      "a",
		Type:    StarElementType,
		X:       10,
		Y:       20,
		Fill:    "#ff0000",
		Opacity: Float(1),
		Points:  []float64{0, 0, 10, 10},
	}

	patch := ElementPatch{
		X:       Float(100),
		Opacity: Float(0),
		Text:    Str("hello"),
		Points:  []float64{1, 1},
	}
	require.False(t, patch.IsEmpty())

	updated := patch.Apply(el)
	require.Equal(t, "a", updated.Id)
	require.Equal(t, StarElementType, updated.Type)
	require.Equal(t, 100.0, updated.X)
	require.Equal(t, 20.0, updated.Y)
	require.Equal(t, "#ff0000", updated.Fill)
	require.Equal(t, 0.0, *updated.Opacity, "zero opacity is a valid value")
	require.Equal(t, "hello", *updated.Text)
	require.Equal(t, []float64{1, 1}, updated.Points)

	// original is untouched
	require.Equal(t, 10.0, el.X)
	require.Equal(t, 1.0, *el.Opacity)
	require.Nil(t, el.Text)
	require.Equal(t, []float64{0, 0, 10, 10}, el.Points)

	// patch values are copied
	*patch.X = 5
	require.Equal(t, 100.0, updated.X)

	require.True(t, ElementPatch{}.IsEmpty())
	require.Equal(t, el, ElementPatch{}.Apply(el))
}

func Test_ElementType_IsKnown(t *testing.T) {
	for _, elType := range ElementTypes {
		require.True(t, elType.IsKnown(), "%s", elType)
	}
	require.False(t, ElementType("blob").IsKnown())
}

func Test_Snapshot_Clone(t *testing.T) {
	s := DefaultSnapshot()
	s.Elements = append(s.Elements, Element{Id: "a", Type: LineElementType, Points: []float64{0, 0, 5, 5}})

	c := s.Clone()
	c.Elements[0].X = 99
	c.Elements[0].Points[0] = 42

	require.Equal(t, 0.0, s.Elements[0].X)
	require.Equal(t, 0.0, s.Elements[0].Points[0])
	require.Equal(t, 0, FindElement(s.Elements, "a"))
	require.Equal(t, -1, FindElement(s.Elements, "b"))

	require.NotNil(t, Snapshot{}.Clone().Elements)
}
