package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"localboard/internal/shortcut"
)

// modifiers tracks held modifier keys; the desktop canvas reports them as
// ordinary key events.
type modifiers struct {
	ctrl, meta, shift, alt bool
}

// track records a modifier key going down or up and reports whether name
// was a modifier.
func (m *modifiers) track(name fyne.KeyName, down bool) bool {
	switch name {
	case desktop.KeyControlLeft, desktop.KeyControlRight:
		m.ctrl = down
	case desktop.KeySuperLeft, desktop.KeySuperRight:
		m.meta = down
	case desktop.KeyShiftLeft, desktop.KeyShiftRight:
		m.shift = down
	case desktop.KeyAltLeft, desktop.KeyAltRight:
		m.alt = down
	default:
		return false
	}
	return true
}

func (m *modifiers) reset() { *m = modifiers{} }

func (m modifiers) key(name fyne.KeyName) shortcut.Key {
	return shortcut.Key{Name: string(name), Ctrl: m.ctrl, Meta: m.meta, Shift: m.shift, Alt: m.alt}
}
