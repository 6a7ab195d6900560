package render

import (
	"image/color"
	"image/draw"

	"localboard/internal/geom"
	"localboard/internal/layer"
)

var (
	selectionColor = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
	netFill        = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0x14}
	handleFill     = color.White
)

// Overlay is the live editing chrome drawn over the layers. It is never
// part of an export.
type Overlay struct {
	Selection    geom.Rect
	HasSelection bool
	// Handles are canvas points of the resize handles.
	Handles []geom.Point
	Net     geom.Rect
	HasNet  bool
	Remote  []Remote
}

// Remote is another participant's selection and cursor.
type Remote struct {
	Color     layer.Color
	Bounds    geom.Rect
	HasBounds bool
	Cursor    *geom.Point
}

// Overlay draws o on top of dst.
func (r *Renderer) Overlay(dst draw.Image, v View, o Overlay) {
	for _, rm := range o.Remote {
		if rm.HasBounds {
			r.outline(dst, v, rm.Bounds, rm.Color)
		}
		if rm.Cursor != nil {
			c := v.apply(*rm.Cursor)
			r.Fill(dst, []geom.Point{c, c.Add(geom.Pt(0, 16)), c.Add(geom.Pt(5, 12)), c.Add(geom.Pt(11, 11))}, rm.Color)
		}
	}
	if o.HasSelection {
		r.outline(dst, v, o.Selection, selectionColor)
	}
	for _, h := range o.Handles {
		c := v.apply(h)
		box := geom.R(c.X-4, c.Y-4, 8, 8)
		r.Fill(dst, corners(box), selectionColor)
		r.Fill(dst, corners(box.Inset(1)), handleFill)
	}
	if o.HasNet {
		r.Fill(dst, r.pixelCorners(v, o.Net), netFill)
		r.outline(dst, v, o.Net, selectionColor)
	}
}

func (r *Renderer) pixelCorners(v View, rect geom.Rect) []geom.Point {
	pts := corners(rect)
	for i, p := range pts {
		pts[i] = v.apply(p)
	}
	return pts
}

// outline strokes a canvas rectangle with a one pixel line.
func (r *Renderer) outline(dst draw.Image, v View, rect geom.Rect, c color.Color) {
	pts := r.pixelCorners(v, rect)
	for i := range pts {
		r.Fill(dst, geom.Segment(pts[i], pts[(i+1)%len(pts)], 1), c)
	}
}
