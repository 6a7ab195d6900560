// Package shortcut maps key presses to board actions.
//
// Rules are evaluated in a fixed order and the first match wins:
//
//	Ctrl/Cmd+Z            undo (not with Shift)
//	Ctrl/Cmd+Y            redo
//	Ctrl/Cmd+Shift+Z      redo
//	Delete, Backspace     delete selection
//	Ctrl/Cmd+D            duplicate
//	Ctrl/Cmd+= (or +)     zoom in
//	Ctrl/Cmd+-            zoom out
//	Ctrl/Cmd+0            reset zoom
//	V H R O T P E N L A D tools, only without Ctrl/Cmd/Alt
//	Escape                back to select, clear selection
//	Space                 pan while held
//
// Because modifier rules come first, Ctrl+D duplicates while a bare D picks
// the diamond tool. Letters match case-insensitively. Nothing fires while a
// text editing surface has focus.
package shortcut

import "strings"

// Key is one key press. Name is the key's character for printable keys or
// its name ("Escape", "Delete", "Backspace", "Space") otherwise.
type Key struct {
	Name  string
	Ctrl  bool
	Meta  bool
	Shift bool
	Alt   bool
}

func (k Key) modifier() bool { return k.Ctrl || k.Meta }

// IsSpace reports whether k is the space bar.
func (k Key) IsSpace() bool { return k.is("Space", " ") }

func (k Key) is(names ...string) bool {
	for _, n := range names {
		if strings.EqualFold(k.Name, n) {
			return true
		}
	}
	return false
}

type Action int

const (
	NoAction Action = iota
	Undo
	Redo
	Delete
	Duplicate
	ZoomIn
	ZoomOut
	ZoomReset
	ToolSelect
	ToolPan
	ToolRectangle
	ToolEllipse
	ToolText
	ToolPencil
	ToolEraser
	ToolNote
	ToolLine
	ToolArrow
	ToolDiamond
	Escape
	PanHold
)

var actionNames = map[Action]string{
	NoAction:      "none",
	Undo:          "undo",
	Redo:          "redo",
	Delete:        "delete",
	Duplicate:     "duplicate",
	ZoomIn:        "zoom-in",
	ZoomOut:       "zoom-out",
	ZoomReset:     "zoom-reset",
	ToolSelect:    "select",
	ToolPan:       "pan",
	ToolRectangle: "rectangle",
	ToolEllipse:   "ellipse",
	ToolText:      "text",
	ToolPencil:    "pencil",
	ToolEraser:    "eraser",
	ToolNote:      "note",
	ToolLine:      "line",
	ToolArrow:     "arrow",
	ToolDiamond:   "diamond",
	Escape:        "escape",
	PanHold:       "pan-hold",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "action?"
}

// Rule is one entry of the routing table.
type Rule struct {
	Label  string
	Action Action
	Match  func(Key) bool
}

func withModifier(names ...string) func(Key) bool {
	return func(k Key) bool { return k.modifier() && k.is(names...) }
}

func bare(name string) func(Key) bool {
	return func(k Key) bool { return !k.modifier() && !k.Alt && k.is(name) }
}

// DefaultRules is the documented table, in evaluation order.
var DefaultRules = []Rule{
	{"Ctrl/Cmd+Z", Undo, func(k Key) bool { return k.modifier() && !k.Shift && k.is("z") }},
	{"Ctrl/Cmd+Y", Redo, withModifier("y")},
	{"Ctrl/Cmd+Shift+Z", Redo, func(k Key) bool { return k.modifier() && k.Shift && k.is("z") }},
	{"Delete, Backspace", Delete, func(k Key) bool { return k.is("Delete", "Backspace") }},
	{"Ctrl/Cmd+D", Duplicate, withModifier("d")},
	{"Ctrl/Cmd+=", ZoomIn, withModifier("=", "+")},
	{"Ctrl/Cmd+-", ZoomOut, withModifier("-")},
	{"Ctrl/Cmd+0", ZoomReset, withModifier("0")},
	{"V", ToolSelect, bare("v")},
	{"H", ToolPan, bare("h")},
	{"R", ToolRectangle, bare("r")},
	{"O", ToolEllipse, bare("o")},
	{"T", ToolText, bare("t")},
	{"P", ToolPencil, bare("p")},
	{"E", ToolEraser, bare("e")},
	{"N", ToolNote, bare("n")},
	{"L", ToolLine, bare("l")},
	{"A", ToolArrow, bare("a")},
	{"D", ToolDiamond, bare("d")},
	{"Escape", Escape, func(k Key) bool { return k.is("Escape", "Esc") }},
	{"Space", PanHold, Key.IsSpace},
}

// Router evaluates a rule table.
type Router struct {
	rules []Rule
}

// NewRouter returns a router over rules, or DefaultRules when none given.
func NewRouter(rules ...Rule) *Router {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Router{rules: rules}
}

// Route returns the action for k. ok is false when no rule matched or a text
// surface has focus.
func (r *Router) Route(k Key, textFocused bool) (a Action, ok bool) {
	if textFocused {
		return NoAction, false
	}
	for _, rule := range r.rules {
		if rule.Match(k) {
			return rule.Action, true
		}
	}
	return NoAction, false
}

// Rules returns the table in evaluation order, for help screens.
func (r *Router) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}
