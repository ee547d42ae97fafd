package model

import (
	"encoding/json"
	"fmt"
)

// ElementType is the discriminant of a canvas element.
type ElementType string

const (
	RectangleElementType ElementType = "rectangle"
	CircleElementType    ElementType = "circle"
	TriangleElementType  ElementType = "triangle"
	StarElementType      ElementType = "star"
	PentagonElementType  ElementType = "pentagon"
	HexagonElementType   ElementType = "hexagon"
	LineElementType      ElementType = "line"
	ArrowElementType     ElementType = "arrow"
	TextElementType      ElementType = "text"
	ImageElementType     ElementType = "image"
)

// ElementTypes lists the closed set of known element types.
var ElementTypes = []ElementType{
	RectangleElementType,
	CircleElementType,
	TriangleElementType,
	StarElementType,
	PentagonElementType,
	HexagonElementType,
	LineElementType,
	ArrowElementType,
	TextElementType,
	ImageElementType,
}

// IsKnown checks if the type belongs to the closed element type set.
// Elements of unknown types are still valid state (the renderer skips them).
func (t ElementType) IsKnown() bool {
	for _, known := range ElementTypes {
		if t == known {
			return true
		}
	}

	return false
}

type (
	// Element is one object placed on the canvas.
	// Id is immutable after creation, optional attributes are pointers.
	Element struct {
		Id       string      `json:"id"`
		Type     ElementType `json:"type"`
		Name     string      `json:"name,omitempty"`
		X        float64     `json:"x"`
		Y        float64     `json:"y"`
		Rotation float64     `json:"rotation"`
		Fill     string      `json:"fill"`
		// Stroke
		Stroke          *string  `json:"stroke,omitempty"`
		StrokeWidth     *float64 `json:"strokeWidth,omitempty"`
		StrokeDasharray *string  `json:"strokeDasharray,omitempty"`
		Opacity         *float64 `json:"opacity,omitempty"`
		// Geometry
		Width       *float64  `json:"width,omitempty"`
		Height      *float64  `json:"height,omitempty"`
		Radius      *float64  `json:"radius,omitempty"`
		RadiusX     *float64  `json:"radiusX,omitempty"`
		RadiusY     *float64  `json:"radiusY,omitempty"`
		Sides       *int      `json:"sides,omitempty"`
		Points      []float64 `json:"points,omitempty"`
		InnerRadius *float64  `json:"innerRadius,omitempty"`
		OuterRadius *float64  `json:"outerRadius,omitempty"`
		ScaleX      *float64  `json:"scaleX,omitempty"`
		ScaleY      *float64  `json:"scaleY,omitempty"`
		// Text
		Text       *string  `json:"text,omitempty"`
		FontSize   *float64 `json:"fontSize,omitempty"`
		FontFamily *string  `json:"fontFamily,omitempty"`
		FontStyle  *string  `json:"fontStyle,omitempty"`
		FontWeight *int     `json:"fontWeight,omitempty"`
		// Image
		ImageUrl             *string  `json:"imageUrl,omitempty"`
		Photographer         *string  `json:"photographer,omitempty"`
		ImageFilter          *string  `json:"imageFilter,omitempty"`
		ImageFilterIntensity *float64 `json:"imageFilterIntensity,omitempty"`
	}

	// ElementPatch is a partial Element update: only non-nil fields are applied.
	// Id and Type are not part of the patch.
	ElementPatch struct {
		Name     *string  `json:"name,omitempty"`
		X        *float64 `json:"x,omitempty"`
		Y        *float64 `json:"y,omitempty"`
		Rotation *float64 `json:"rotation,omitempty"`
		Fill     *string  `json:"fill,omitempty"`
		//
		Stroke          *string  `json:"stroke,omitempty"`
		StrokeWidth     *float64 `json:"strokeWidth,omitempty"`
		StrokeDasharray *string  `json:"strokeDasharray,omitempty"`
		Opacity         *float64 `json:"opacity,omitempty"`
		//
		Width       *float64  `json:"width,omitempty"`
		Height      *float64  `json:"height,omitempty"`
		Radius      *float64  `json:"radius,omitempty"`
		RadiusX     *float64  `json:"radiusX,omitempty"`
		RadiusY     *float64  `json:"radiusY,omitempty"`
		Sides       *int      `json:"sides,omitempty"`
		Points      []float64 `json:"points,omitempty"`
		InnerRadius *float64  `json:"innerRadius,omitempty"`
		OuterRadius *float64  `json:"outerRadius,omitempty"`
		ScaleX      *float64  `json:"scaleX,omitempty"`
		ScaleY      *float64  `json:"scaleY,omitempty"`
		//
		Text       *string  `json:"text,omitempty"`
		FontSize   *float64 `json:"fontSize,omitempty"`
		FontFamily *string  `json:"fontFamily,omitempty"`
		FontStyle  *string  `json:"fontStyle,omitempty"`
		FontWeight *int     `json:"fontWeight,omitempty"`
		//
		ImageUrl             *string  `json:"imageUrl,omitempty"`
		Photographer         *string  `json:"photographer,omitempty"`
		ImageFilter          *string  `json:"imageFilter,omitempty"`
		ImageFilterIntensity *float64 `json:"imageFilterIntensity,omitempty"`
	}
)

// String implements the stringer interface.
func (e Element) String() string {
	return fmt.Sprintf("%s (%s) @ %.1f,%.1f", e.Id, e.Type, e.X, e.Y)
}

// Clone returns a copy which doesn't share the points slice with the original.
// Pointer attributes are shared: they are never mutated in place, patches replace them.
func (e Element) Clone() Element {
	if e.Points != nil {
		points := make([]float64, len(e.Points))
		copy(points, e.Points)
		e.Points = points
	}

	return e
}

// Apply returns a new Element with patch fields overlaid on top of the current ones.
func (p ElementPatch) Apply(e Element) Element {
	e = e.Clone()

	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.X != nil {
		e.X = *p.X
	}
	if p.Y != nil {
		e.Y = *p.Y
	}
	if p.Rotation != nil {
		e.Rotation = *p.Rotation
	}
	if p.Fill != nil {
		e.Fill = *p.Fill
	}

	overlayString(&e.Stroke, p.Stroke)
	overlayFloat(&e.StrokeWidth, p.StrokeWidth)
	overlayString(&e.StrokeDasharray, p.StrokeDasharray)
	overlayFloat(&e.Opacity, p.Opacity)

	overlayFloat(&e.Width, p.Width)
	overlayFloat(&e.Height, p.Height)
	overlayFloat(&e.Radius, p.Radius)
	overlayFloat(&e.RadiusX, p.RadiusX)
	overlayFloat(&e.RadiusY, p.RadiusY)
	overlayInt(&e.Sides, p.Sides)
	if p.Points != nil {
		e.Points = make([]float64, len(p.Points))
		copy(e.Points, p.Points)
	}
	overlayFloat(&e.InnerRadius, p.InnerRadius)
	overlayFloat(&e.OuterRadius, p.OuterRadius)
	overlayFloat(&e.ScaleX, p.ScaleX)
	overlayFloat(&e.ScaleY, p.ScaleY)

	overlayString(&e.Text, p.Text)
	overlayFloat(&e.FontSize, p.FontSize)
	overlayString(&e.FontFamily, p.FontFamily)
	overlayString(&e.FontStyle, p.FontStyle)
	overlayInt(&e.FontWeight, p.FontWeight)

	overlayString(&e.ImageUrl, p.ImageUrl)
	overlayString(&e.Photographer, p.Photographer)
	overlayString(&e.ImageFilter, p.ImageFilter)
	overlayFloat(&e.ImageFilterIntensity, p.ImageFilterIntensity)

	return e
}

// IsEmpty checks if the patch carries no changes.
func (p ElementPatch) IsEmpty() bool {
	raw, err := json.Marshal(p)
	if err != nil {
		return false
	}

	return string(raw) == "{}"
}

func overlayString(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func overlayFloat(dst **float64, src *float64) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func overlayInt(dst **int, src *int) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// Float returns a pointer to v (optional attribute helper).
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v (optional attribute helper).
func Int(v int) *int {
	return &v
}

// Str returns a pointer to v (optional attribute helper).
func Str(v string) *string {
	return &v
}
