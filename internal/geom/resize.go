package geom

import "math"

// Side is a bitmask of box edges. A resize handle is the set of edges it
// drags: Top|Left is the top-left corner, Right alone the right edge.
type Side uint8

const (
	Top Side = 1 << iota
	Bottom
	Left
	Right
)

// Handles lists the eight resize handles of a selection box.
var Handles = []Side{
	Top | Left, Top, Top | Right, Right,
	Bottom | Right, Bottom, Bottom | Left, Left,
}

// Has reports whether every edge of o is part of s.
func (s Side) Has(o Side) bool { return s&o == o }

// MinExtent is the smallest width or height a resize can produce.
const MinExtent = 1.0

// Resized is the outcome of a corner drag.
type Resized struct {
	Bounds Rect
	// FlipX/FlipY are set when the dragged edge crossed the fixed edge, so
	// content laid out inside the box must be mirrored on that axis.
	FlipX, FlipY bool
}

// ResizeBounds drags the edges named by corner of initial to the pointer p.
// Edges not named by corner stay where they are; in particular the corner
// opposite the handle never moves. When the dragged edge passes the fixed one
// the box flips instead of collapsing.
func ResizeBounds(initial Rect, corner Side, p Point) Resized {
	out := Resized{Bounds: initial}
	if corner&Left != 0 {
		out.Bounds.X, out.Bounds.Width, out.FlipX = dragEdge(initial.Right(), p.X, true)
	} else if corner&Right != 0 {
		out.Bounds.X, out.Bounds.Width, out.FlipX = dragEdge(initial.X, p.X, false)
	}
	if corner&Top != 0 {
		out.Bounds.Y, out.Bounds.Height, out.FlipY = dragEdge(initial.Bottom(), p.Y, true)
	} else if corner&Bottom != 0 {
		out.Bounds.Y, out.Bounds.Height, out.FlipY = dragEdge(initial.Y, p.Y, false)
	}
	return out
}

// dragEdge places the dragged edge at pos against the fixed edge. low says
// the dragged edge normally sits below fixed (a left or top handle).
func dragEdge(fixed, pos float64, low bool) (start, extent float64, flipped bool) {
	flipped = (low && pos > fixed) || (!low && pos < fixed)
	extent = math.Max(math.Abs(pos-fixed), MinExtent)
	below := low != flipped
	if below {
		return fixed - extent, extent, flipped
	}
	return fixed, extent, flipped
}
