package engine

import (
	"localboard/internal/geom"
	"localboard/internal/layer"
	"localboard/internal/selection"
	"localboard/internal/state"
)

// Scene is everything needed to draw one frame.
type Scene struct {
	// Layers back to front with uncommitted drafts applied; a shape or
	// stroke being drawn is last.
	Layers []state.Entry
	Camera Camera

	Selection       []string
	SelectionBounds geom.Rect
	HasSelection    bool
	Handles         map[geom.Side]geom.Point

	Net     geom.Rect
	HasNet  bool
	Editing string

	Remote []RemoteView
}

// RemoteView is a participant's presence resolved against the board.
type RemoteView struct {
	Site      string
	Color     layer.Color
	Cursor    *geom.Point
	Bounds    geom.Rect
	HasBounds bool
}

// Scene materializes the current frame from the store and local state.
func (e *Engine) Scene() Scene {
	snap := e.store.Snapshot()
	sc := Scene{Camera: e.camera, Editing: e.editing}

	for _, entry := range snap.Ordered() {
		entry.Layer = e.applyLocal(entry.ID, entry.Layer)
		sc.Layers = append(sc.Layers, entry)
	}
	if e.drawing != nil {
		sc.Layers = append(sc.Layers, state.Entry{ID: e.state.LayerID, Layer: *e.drawing})
	}
	if l, ok := e.strokeLayer(e.stroke); ok {
		sc.Layers = append(sc.Layers, state.Entry{Layer: l})
	}

	sc.Selection = e.sel.IDs()
	sc.SelectionBounds, sc.HasSelection = e.SelectionBounds()
	if e.editing == "" {
		sc.Handles = e.Handles()
	}
	if s := e.state; s.Mode == SelectionNet && s.HasCurrent {
		sc.Net, sc.HasNet = geom.RectFromPoints(s.Origin, s.Current), true
	}

	for _, rp := range e.RemotePresences() {
		v := RemoteView{Site: rp.Site, Color: layer.ConnectionColor(rp.Connection), Cursor: rp.Cursor}
		v.Bounds, v.HasBounds = selection.Bounds(snap, rp.Selection)
		sc.Remote = append(sc.Remote, v)
	}
	return sc
}

// applyLocal overlays the gesture draft and the text being edited on a
// stored layer.
func (e *Engine) applyLocal(id string, l layer.Layer) layer.Layer {
	if d, ok := e.draft[id]; ok {
		l = d
	}
	if id == e.editing {
		l.Value = e.editValue
	}
	return l
}

func (e *Engine) sceneLayer(id string) (layer.Layer, bool) {
	l, ok := e.store.Layer(id)
	if !ok {
		return layer.Layer{}, false
	}
	return e.applyLocal(id, l), true
}

// SelectionBounds is the union box of the selected layers as drawn.
func (e *Engine) SelectionBounds() (geom.Rect, bool) {
	var rects []geom.Rect
	for _, id := range e.sel.IDs() {
		if l, ok := e.sceneLayer(id); ok {
			rects = append(rects, l.Bounds())
		}
	}
	return geom.Union(rects...)
}

// ToolbarAnchor is the screen point the selection toolbar hangs from.
func (e *Engine) ToolbarAnchor() (geom.Point, bool) {
	b, ok := e.SelectionBounds()
	if !ok {
		return geom.Point{}, false
	}
	return selection.ToolbarAnchor(b, e.camera.Offset(), e.camera.scale()), true
}

// EditBounds is the unrotated screen box of the layer under text edit.
func (e *Engine) EditBounds() (geom.Rect, bool) {
	if e.editing == "" {
		return geom.Rect{}, false
	}
	l, ok := e.store.Layer(e.editing)
	if !ok {
		return geom.Rect{}, false
	}
	z := e.camera.scale()
	p := e.camera.ToScreen(l.Bounds().Min())
	return geom.R(p.X, p.Y, l.Width*z, l.Height*z), true
}
