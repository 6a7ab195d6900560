package engine

import (
	"math"

	"localboard/internal/geom"
)

const (
	MinZoom  = 0.1
	MaxZoom  = 3.0
	ZoomStep = 1.2
)

// Camera is the local viewport: screen = canvas*Zoom + (X, Y).
type Camera struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// DefaultCamera is the unpanned, unscaled view.
func DefaultCamera() Camera { return Camera{Zoom: 1} }

func (c Camera) scale() float64 {
	if c.Zoom <= 0 {
		return 1
	}
	return c.Zoom
}

// Offset returns the pan offset as a point.
func (c Camera) Offset() geom.Point { return geom.Pt(c.X, c.Y) }

// ToCanvas converts a screen point to canvas space.
func (c Camera) ToCanvas(screen geom.Point) geom.Point {
	return screen.Sub(c.Offset()).Scale(1 / c.scale())
}

// ToScreen converts a canvas point to screen space.
func (c Camera) ToScreen(p geom.Point) geom.Point {
	return p.Scale(c.scale()).Add(c.Offset())
}

// Pan shifts the view by a screen-space delta.
func (c Camera) Pan(d geom.Point) Camera {
	c.X += d.X
	c.Y += d.Y
	return c
}

// ZoomAbout scales by factor, clamped to [MinZoom, MaxZoom], keeping the
// canvas point under the screen point anchor in place.
func (c Camera) ZoomAbout(anchor geom.Point, factor float64) Camera {
	under := c.ToCanvas(anchor)
	zoom := math.Min(MaxZoom, math.Max(MinZoom, c.scale()*factor))
	return Camera{
		X:    anchor.X - under.X*zoom,
		Y:    anchor.Y - under.Y*zoom,
		Zoom: zoom,
	}
}
