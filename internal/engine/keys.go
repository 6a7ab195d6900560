package engine

import (
	"localboard/internal/geom"
	"localboard/internal/layer"
	"localboard/internal/shortcut"
)

var shortcutTools = map[shortcut.Action]Tool{
	shortcut.ToolSelect:    SelectTool,
	shortcut.ToolPan:       HandTool,
	shortcut.ToolPencil:    PencilTool,
	shortcut.ToolEraser:    EraserTool,
	shortcut.ToolRectangle: InsertTool(layer.Rectangle),
	shortcut.ToolEllipse:   InsertTool(layer.Ellipse),
	shortcut.ToolText:      InsertTool(layer.Text),
	shortcut.ToolNote:      InsertTool(layer.Note),
	shortcut.ToolLine:      InsertTool(layer.Line),
	shortcut.ToolArrow:     InsertTool(layer.Arrow),
	shortcut.ToolDiamond:   InsertTool(layer.Diamond),
}

// KeyDown routes a key press. It reports whether a shortcut fired.
func (e *Engine) KeyDown(k shortcut.Key) bool {
	a, ok := e.router.Route(k, e.TextFocused())
	if !ok {
		return false
	}
	if t, ok := shortcutTools[a]; ok {
		e.SetTool(t)
		return true
	}
	switch a {
	case shortcut.Undo:
		e.Undo()
	case shortcut.Redo:
		e.Redo()
	case shortcut.Delete:
		e.DeleteSelection()
	case shortcut.Duplicate:
		e.DuplicateSelection()
	case shortcut.ZoomIn:
		e.ZoomIn()
	case shortcut.ZoomOut:
		e.ZoomOut()
	case shortcut.ZoomReset:
		e.ResetZoom()
	case shortcut.Escape:
		e.Escape()
	case shortcut.PanHold:
		if !e.spaceHeld && e.idle() {
			e.spaceHeld = true
			e.beginTransientPan()
			e.notify()
		}
	}
	return true
}

// KeyUp releases a held space bar, ending a transient pan unless a drag is
// still in progress.
func (e *Engine) KeyUp(k shortcut.Key) {
	if !k.IsSpace() || !e.spaceHeld {
		return
	}
	e.spaceHeld = false
	if s := e.state; s.Mode == Panning && s.Transient && !s.HasCurrent {
		e.setState(e.resume)
		e.notify()
	}
}

// Undo cancels any gesture in progress, then reverts the last action.
func (e *Engine) Undo() bool {
	e.Cancel()
	return e.hist.Undo()
}

func (e *Engine) Redo() bool {
	e.Cancel()
	return e.hist.Redo()
}

func (e *Engine) center() geom.Point { return e.viewport.Scale(0.5) }

func (e *Engine) ZoomIn() { e.zoom(ZoomStep) }

func (e *Engine) ZoomOut() { e.zoom(1 / ZoomStep) }

// ResetZoom returns the camera to the origin at scale 1.
func (e *Engine) ResetZoom() {
	e.camera = DefaultCamera()
	e.notify()
}

func (e *Engine) zoom(f float64) {
	e.camera = e.camera.ZoomAbout(e.center(), f)
	e.notify()
}

// SetFill colors the selection and remembers c for new layers.
func (e *Engine) SetFill(c layer.Color) {
	e.lastColor = c
	e.hist.Action("fill", func() { e.sel.SetFill(c) })
	e.notify()
}

func (e *Engine) RotateSelection() {
	e.hist.Action("rotate", e.sel.Rotate)
	e.notify()
}

func (e *Engine) BringToFront() {
	e.zorder("bring-to-front", e.sel.BringToFront)
}

func (e *Engine) SendToBack() {
	e.zorder("send-to-back", e.sel.SendToBack)
}

func (e *Engine) zorder(name string, fn func() error) {
	var err error
	e.hist.Action(name, func() { err = fn() })
	if err != nil {
		e.logger.Warn("reorder failed", "action", name, "err", err)
	}
	e.notify()
}

// DeleteSelection removes the selected layers in one undo step.
func (e *Engine) DeleteSelection() {
	e.Cancel()
	if e.sel.Empty() {
		return
	}
	e.hist.Action("delete", func() { e.sel.Delete() })
	e.publish()
	e.notify()
}

// DuplicateSelection copies the selected layers, within the layer limit,
// and selects the copies.
func (e *Engine) DuplicateSelection() {
	e.Cancel()
	if e.sel.Empty() {
		return
	}
	e.hist.Action("duplicate", func() { e.sel.Duplicate(e.maxLayers) })
	e.publish()
	e.notify()
}

// Shortcuts returns the key routing table in evaluation order.
func (e *Engine) Shortcuts() []shortcut.Rule { return e.router.Rules() }

// TextFocused reports whether a text layer is being edited.
func (e *Engine) TextFocused() bool { return e.editing != "" }

// Editing returns the layer under text edit.
func (e *Engine) Editing() (id, value string, ok bool) {
	return e.editing, e.editValue, e.editing != ""
}

// BeginTextEdit starts editing the content of a note or text layer. While
// editing, shortcuts and undo are suppressed.
func (e *Engine) BeginTextEdit(id string) bool {
	l, ok := e.store.Layer(id)
	if !ok || !l.Has(layer.CapText) {
		return false
	}
	e.Cancel()
	e.editing, e.editValue = id, l.Value
	e.sel.Set(id)
	e.notify()
	return true
}

// EditText replaces the draft content of the layer under edit.
func (e *Engine) EditText(value string) {
	if e.editing == "" {
		return
	}
	e.editValue = value
	e.notify()
}

// EndTextEdit commits the edited content as one undo step.
func (e *Engine) EndTextEdit() {
	id, value := e.editing, e.editValue
	if id == "" {
		return
	}
	e.editing, e.editValue = "", ""
	l, ok := e.store.Layer(id)
	if !ok {
		e.logger.Debug("edited layer is gone", "layer", id)
		e.notify()
		return
	}
	if l.Value != value {
		var err error
		e.hist.Action("edit-text", func() { err = e.store.Update(id, layer.WithValue(value)) })
		if err != nil {
			e.logger.Warn("text edit not saved", "layer", id, "err", err)
		}
	}
	e.notify()
}
