package engine

import (
	"math"

	"localboard/internal/geom"
	"localboard/internal/layer"
	"localboard/internal/selection"
)

type Button int

const (
	Primary Button = iota
	Secondary
	Middle
)

// PointerEvent is a pointer sample in screen coordinates.
type PointerEvent struct {
	Screen geom.Point
	Button Button
	// Shift extends the selection instead of replacing it.
	Shift bool
}

// PointerDown starts a gesture according to the current mode.
func (e *Engine) PointerDown(ev PointerEvent) {
	if ev.Button == Middle && e.idle() {
		e.beginTransientPan()
	}
	if ev.Button == Secondary {
		return
	}
	p := e.camera.ToCanvas(ev.Screen)
	defer e.notify()

	switch e.state.Mode {
	case None:
		e.pressIdle(p, ev.Shift)
	case Inserting:
		e.pressInserting(p)
	case Pencil:
		e.stroke = []geom.Point{p}
	case Eraser:
		e.erasing = true
		e.eraseAt(p)
	case Panning:
		e.state.Origin = ev.Screen
		e.state.HasCurrent = true
	}
}

// PointerMove advances the current gesture.
func (e *Engine) PointerMove(ev PointerEvent) {
	p := e.camera.ToCanvas(ev.Screen)
	e.cursor = &p
	defer e.notify()
	defer e.publish()

	s := &e.state
	switch s.Mode {
	case Pressing:
		if math.Abs(p.X-s.Origin.X)+math.Abs(p.Y-s.Origin.Y) > PressThreshold {
			e.setState(State{Mode: SelectionNet, Origin: s.Origin, Current: p, HasCurrent: true})
			e.updateNet()
		}
	case SelectionNet:
		s.Current, s.HasCurrent = p, true
		e.updateNet()
	case Translating:
		e.translateDraft(p.Sub(s.Current))
		s.Current = p
	case Drawing:
		l := layer.Spanning(s.LayerType, s.Origin, p, e.lastColor)
		e.drawing = &l
	case Resizing:
		e.resizeDraft(p)
	case Pencil:
		if len(e.stroke) > 0 && p.Distance(e.stroke[len(e.stroke)-1]) >= e.minDistance {
			e.stroke = append(e.stroke, p)
		}
	case Eraser:
		if e.erasing {
			e.eraseAt(p)
		}
	case Panning:
		if s.HasCurrent {
			e.camera = e.camera.Pan(ev.Screen.Sub(s.Origin))
			s.Origin = ev.Screen
		}
	}
}

// PointerUp ends the current gesture, committing it where the mode has a
// commit point.
func (e *Engine) PointerUp(ev PointerEvent) {
	p := e.camera.ToCanvas(ev.Screen)
	defer e.notify()
	defer e.publish()

	s := e.state
	switch s.Mode {
	case Pressing:
		e.sel.Clear()
		e.setState(State{Mode: None})
	case SelectionNet:
		e.setState(State{Mode: None})
	case Translating:
		e.commitDraft("translate")
		e.setState(State{Mode: None})
	case Resizing:
		e.commitDraft("resize")
		e.setState(State{Mode: None})
	case Drawing:
		e.finishDrawing(p)
	case Pencil:
		e.finishStroke()
	case Eraser:
		e.erasing = false
	case Panning:
		if s.Transient && !e.spaceHeld {
			e.setState(e.resume)
		} else {
			e.state.HasCurrent = false
		}
	}
}

// Wheel pans the view by a screen-space scroll delta.
func (e *Engine) Wheel(delta geom.Point) {
	e.camera = e.camera.Pan(delta.Scale(-1))
	e.notify()
}

func (e *Engine) idle() bool {
	switch e.state.Mode {
	case None, Inserting, Eraser:
		return !e.erasing
	case Pencil:
		return len(e.stroke) == 0
	}
	return false
}

func (e *Engine) beginTransientPan() {
	e.resume = e.state
	e.setState(State{Mode: Panning, Transient: true})
}

func (e *Engine) pressIdle(p geom.Point, shift bool) {
	if side, id, ok := e.handleAt(p); ok {
		l, _ := e.store.Layer(id)
		e.setState(State{Mode: Resizing, InitialBounds: l.Bounds(), Corner: side})
		e.startDraft([]string{id})
		return
	}
	id, ok := e.layerAt(p)
	if !ok {
		e.setState(State{Mode: Pressing, Origin: p})
		return
	}
	switch {
	case shift && !e.sel.Contains(id):
		e.sel.Set(append(e.sel.IDs(), id)...)
	case !e.sel.Contains(id):
		e.sel.Set(id)
	}
	e.setState(State{Mode: Translating, Current: p, HasCurrent: true})
	e.startDraft(e.sel.IDs())
	e.publish()
}

func (e *Engine) pressInserting(p geom.Point) {
	t := e.state.LayerType
	if e.atLimit() {
		return
	}
	if t.Instant() {
		l := layer.New(t, p, e.lastColor)
		l.Value = DefaultNoteText
		e.place(layer.NewID(), l)
		e.setState(State{Mode: None})
		return
	}
	e.setState(State{Mode: Drawing, Origin: p, LayerType: t, LayerID: layer.NewID()})
	l := layer.Spanning(t, p, p, e.lastColor)
	e.drawing = &l
}

// finishDrawing inserts the drafted shape. A click without a drag places a
// default-sized shape at the pointer.
func (e *Engine) finishDrawing(p geom.Point) {
	s := e.state
	e.drawing = nil
	o := s.Origin
	if math.Abs(p.X-o.X)+math.Abs(p.Y-o.Y) <= PressThreshold {
		p = o.Add(geom.Pt(layer.DefaultSize, layer.DefaultSize))
		if s.LayerType == layer.Line || s.LayerType == layer.Arrow {
			p = o.Add(geom.Pt(layer.DefaultSize, 0))
		}
	}
	e.place(s.LayerID, layer.Spanning(s.LayerType, o, p, e.lastColor))
	e.setState(State{Mode: None})
}

// place inserts l and selects it.
func (e *Engine) place(id string, l layer.Layer) {
	if e.insert(id, l) {
		e.sel.Set(id)
	}
}

// finishStroke turns the pencil samples into a path layer whose box is the
// outline's extent; the samples are stored relative to that box.
func (e *Engine) finishStroke() {
	pts := e.stroke
	e.stroke = nil
	l, ok := e.strokeLayer(pts)
	if !ok || e.atLimit() {
		return
	}
	e.insert(layer.NewID(), l)
}

func (e *Engine) strokeLayer(pts []geom.Point) (layer.Layer, bool) {
	if len(pts) == 0 {
		return layer.Layer{}, false
	}
	box, ok := geom.BoundsOf(e.outliner.Outline(pts))
	if !ok {
		return layer.Layer{}, false
	}
	rel := make([]geom.Point, len(pts))
	for i, q := range pts {
		rel[i] = q.Sub(box.Min())
	}
	return layer.Layer{
		Type:   layer.Path,
		X:      box.X,
		Y:      box.Y,
		Width:  box.Width,
		Height: box.Height,
		Fill:   e.lastColor,
		Points: rel,
	}, true
}

// eraseAt deletes the topmost layer under p as its own undo step.
func (e *Engine) eraseAt(p geom.Point) {
	id, ok := e.layerAt(p)
	if !ok {
		return
	}
	var err error
	e.hist.Action("erase", func() { err = e.store.Delete(id) })
	if err != nil {
		e.logger.Debug("erase skipped", "layer", id, "err", err)
	}
}

func (e *Engine) updateNet() {
	s := e.state
	e.sel.Set(selection.Intersecting(e.store.Snapshot(), s.Origin, s.Current)...)
}

// startDraft copies the layers a gesture will edit.
func (e *Engine) startDraft(ids []string) {
	e.draft = map[string]layer.Layer{}
	e.base = map[string]layer.Layer{}
	for _, id := range ids {
		if l, ok := e.store.Layer(id); ok {
			e.draft[id] = l.Clone()
			e.base[id] = l.Clone()
		}
	}
}

func (e *Engine) translateDraft(d geom.Point) {
	for id, l := range e.draft {
		e.draft[id] = l.Translate(d)
	}
}

// resizeDraft reshapes the sole drafted layer. The pointer is taken into the
// layer's unrotated frame first so handles on rotated shapes track the
// pointer.
func (e *Engine) resizeDraft(p geom.Point) {
	s := e.state
	for id, base := range e.base {
		local := base.Transform().Invert(p).Add(s.InitialBounds.Min())
		e.draft[id] = base.Reshape(geom.ResizeBounds(s.InitialBounds, s.Corner, local))
	}
}

// commitDraft writes the fields each drafted layer changed, all in one undo
// step. Layers deleted by someone else meanwhile are skipped.
func (e *Engine) commitDraft(name string) {
	draft, base := e.draft, e.base
	e.draft, e.base = nil, nil
	changed := false
	for id, l := range draft {
		if !base[id].Diff(l).Empty() {
			changed = true
		}
	}
	if !changed {
		return
	}
	e.hist.Action(name, func() {
		for id, l := range draft {
			patch := base[id].Diff(l)
			if patch.Empty() {
				continue
			}
			if err := e.store.Update(id, patch); err != nil {
				e.logger.Debug("draft commit skipped", "action", name, "layer", id, "err", err)
			}
		}
	})
}
