// Package history decides where undo steps begin and end. The undo stack
// itself lives in the shared store.
package history

import (
	"log/slog"

	"localboard/internal/state"
)

// Controller groups store mutations into user actions and guards undo and
// redo while a text surface has focus.
type Controller struct {
	store   state.Store
	focused func() bool
	depth   int
	logger  *slog.Logger
}

// New returns a controller over store. focused reports whether a text
// editing surface currently owns the keyboard; nil means never.
func New(store state.Store, focused func() bool, logger *slog.Logger) *Controller {
	if focused == nil {
		focused = func() bool { return false }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{store: store, focused: focused, logger: logger}
}

// Action runs fn as a single undo step. Nested actions fold into the
// outermost one.
func (c *Controller) Action(name string, fn func()) {
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > 1 {
		fn()
		return
	}
	c.logger.Debug("action", "name", name)
	c.store.Batch(fn)
}

// InAction reports whether an action is being recorded.
func (c *Controller) InAction() bool { return c.depth > 0 }

// Undo reverts the last action. It does nothing, and returns false, while
// text editing has focus or inside an action.
func (c *Controller) Undo() bool {
	if !c.CanUndo() {
		return false
	}
	c.store.Undo()
	c.logger.Debug("undo")
	return true
}

// Redo reapplies the last undone action under the same guard as Undo.
func (c *Controller) Redo() bool {
	if !c.CanRedo() {
		return false
	}
	c.store.Redo()
	c.logger.Debug("redo")
	return true
}

func (c *Controller) CanUndo() bool {
	return c.depth == 0 && !c.focused() && c.store.CanUndo()
}

func (c *Controller) CanRedo() bool {
	return c.depth == 0 && !c.focused() && c.store.CanRedo()
}
