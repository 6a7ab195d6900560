package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"localboard/internal/engine"
)

// noteEntry is the text field laid over a note or text layer while its
// content is edited. Losing focus ends the edit.
type noteEntry struct {
	widget.Entry
	onDone func()
}

func newNoteEntry() *noteEntry {
	e := &noteEntry{}
	e.MultiLine = true
	e.Wrapping = fyne.TextWrapWord
	e.ExtendBaseWidget(e)
	return e
}

func (e *noteEntry) FocusLost() {
	e.Entry.FocusLost()
	if e.onDone != nil {
		e.onDone()
	}
}

func (e *noteEntry) TypedKey(k *fyne.KeyEvent) {
	if k.Name == fyne.KeyEscape {
		if c := fyne.CurrentApp().Driver().CanvasForObject(e); c != nil {
			c.Unfocus()
		}
		return
	}
	e.Entry.TypedKey(k)
}

type noteEditor struct {
	engine *engine.Engine
	entry  *noteEntry
}

func newNoteEditor(e *engine.Engine) *noteEditor {
	ed := &noteEditor{engine: e, entry: newNoteEntry()}
	ed.entry.OnChanged = e.EditText
	ed.entry.onDone = ed.close
	ed.entry.Hide()
	return ed
}

// open shows the entry over the layer the engine is editing.
func (ed *noteEditor) open(c fyne.Canvas) {
	_, value, ok := ed.engine.Editing()
	if !ok {
		return
	}
	ed.entry.SetText(value)
	ed.follow()
	ed.entry.Show()
	c.Focus(ed.entry)
}

// follow keeps the entry over the edited layer as the camera moves.
func (ed *noteEditor) follow() {
	r, ok := ed.engine.EditBounds()
	if !ok {
		if ed.entry.Visible() {
			ed.entry.Hide()
		}
		return
	}
	ed.entry.Move(fyne.NewPos(float32(r.X), float32(r.Y)))
	ed.entry.Resize(fyne.NewSize(float32(r.Width), float32(r.Height)))
}

func (ed *noteEditor) close() {
	if !ed.engine.TextFocused() {
		return
	}
	ed.engine.EndTextEdit()
	ed.entry.Hide()
}
