package engine

import (
	"math"
	"slices"

	"localboard/internal/geom"
	"localboard/internal/layer"
)

// hitSlop is the screen-space tolerance around thin shapes.
const hitSlop = 10.0

// layerAt returns the topmost layer whose shape contains the canvas point p.
func (e *Engine) layerAt(p geom.Point) (string, bool) {
	s := e.store.Snapshot()
	for i := len(s.Order) - 1; i >= 0; i-- {
		id := s.Order[i]
		l, ok := s.Layers[id]
		if !ok {
			continue
		}
		if d, ok := e.draft[id]; ok {
			l = d
		}
		if e.contains(l, p) {
			return id, true
		}
	}
	return "", false
}

// LayerAt returns the topmost layer under a screen point.
func (e *Engine) LayerAt(screen geom.Point) (string, bool) {
	return e.layerAt(e.camera.ToCanvas(screen))
}

// contains tests p against l's shape in the layer's unrotated frame.
func (e *Engine) contains(l layer.Layer, p geom.Point) bool {
	local := l.Transform().Invert(p)
	box := geom.R(0, 0, l.Width, l.Height)
	slop := hitSlop / e.camera.scale()
	switch l.Type {
	case layer.Ellipse:
		if l.Width == 0 || l.Height == 0 {
			return box.Inset(-slop).Contains(local)
		}
		c := box.Center()
		dx, dy := (local.X-c.X)/(l.Width/2), (local.Y-c.Y)/(l.Height/2)
		return dx*dx+dy*dy <= 1
	case layer.Diamond:
		return geom.PointInPolygon(local, geom.Diamond(box))
	case layer.Line, layer.Arrow:
		if len(l.Points) < 2 {
			return false
		}
		return geom.PointInPolygon(local, geom.Segment(l.Points[0], l.Points[1], 2*slop))
	case layer.Path:
		return geom.PointInPolygon(local, e.outliner.Outline(l.Points))
	}
	return box.Contains(local)
}

// handlePoint returns the local position of a resize handle on a w×h box.
func handlePoint(w, h float64, side geom.Side) geom.Point {
	p := geom.Pt(w/2, h/2)
	switch {
	case side.Has(geom.Left):
		p.X = 0
	case side.Has(geom.Right):
		p.X = w
	}
	switch {
	case side.Has(geom.Top):
		p.Y = 0
	case side.Has(geom.Bottom):
		p.Y = h
	}
	return p
}

// Handles returns the canvas positions of the resize handles, present only
// when exactly one layer is selected.
func (e *Engine) Handles() map[geom.Side]geom.Point {
	id, ok := e.sel.Sole()
	if !ok {
		return nil
	}
	l, ok := e.sceneLayer(id)
	if !ok {
		return nil
	}
	tr := l.Transform()
	out := make(map[geom.Side]geom.Point, len(geom.Handles))
	for _, side := range geom.Handles {
		out[side] = tr.Apply(handlePoint(l.Width, l.Height, side))
	}
	return out
}

// handleAt finds the resize handle of the sole selected layer under p.
// Corners win over edges when they overlap on tiny shapes.
func (e *Engine) handleAt(p geom.Point) (geom.Side, string, bool) {
	id, ok := e.sel.Sole()
	if !ok {
		return 0, "", false
	}
	l, ok := e.store.Layer(id)
	if !ok {
		return 0, "", false
	}
	local := l.Transform().Invert(p)
	reach := HandleSize / e.camera.scale()
	sides := slices.Clone(geom.Handles)
	slices.SortStableFunc(sides, func(a, b geom.Side) int { return bitCount(b) - bitCount(a) })
	for _, side := range sides {
		h := handlePoint(l.Width, l.Height, side)
		if math.Abs(local.X-h.X) <= reach && math.Abs(local.Y-h.Y) <= reach {
			return side, id, true
		}
	}
	return 0, "", false
}

func bitCount(s geom.Side) int {
	n := 0
	for ; s != 0; s &= s - 1 {
		n++
	}
	return n
}
