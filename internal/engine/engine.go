// Package engine is the canvas state machine. It turns pointer, keyboard and
// focus events into edits of the shared store.
//
// An Engine is driven from a single goroutine, the UI event loop. Gestures
// work on local drafts and reach the store only when they commit, each as
// one undo step, so a cancelled gesture leaves nothing behind. The store may
// change underneath at any time; OnChange listeners are told about both
// local and remote changes and may be called from any goroutine.
package engine

import (
	"log/slog"
	"sync"

	"localboard/internal/geom"
	"localboard/internal/history"
	"localboard/internal/layer"
	"localboard/internal/selection"
	"localboard/internal/shortcut"
	"localboard/internal/state"
)

// Mode names the state machine's current state.
type Mode int

const (
	None Mode = iota
	Pressing
	SelectionNet
	Translating
	Inserting
	Drawing
	Resizing
	Pencil
	Panning
	Eraser
)

var modeNames = [...]string{
	"none", "pressing", "selection-net", "translating", "inserting",
	"drawing", "resizing", "pencil", "panning", "eraser",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "mode?"
}

// State is the tagged state value. Only the fields belonging to Mode are
// meaningful.
type State struct {
	Mode Mode

	// Pressing, SelectionNet, Drawing: canvas point of pointer-down.
	// Panning: last screen point of the drag.
	Origin geom.Point
	// SelectionNet, Translating: last canvas point seen. In Panning
	// HasCurrent marks a drag in progress.
	Current    geom.Point
	HasCurrent bool

	// Inserting, Drawing
	LayerType layer.Type
	LayerID   string

	// Resizing
	InitialBounds geom.Rect
	Corner        geom.Side

	// Panning entered by holding space or the middle button; released it
	// returns to the mode it interrupted.
	Transient bool
}

// Options tune an Engine. Zero values pick the defaults.
type Options struct {
	// MaxLayers caps inserts and duplicates.
	MaxLayers int
	// MinPointDistance is the canvas distance below which pencil samples
	// are dropped.
	MinPointDistance float64
	Outliner         geom.Outliner
	Router           *shortcut.Router
	Logger           *slog.Logger
}

const (
	// PressThreshold is the Manhattan distance a press must travel before
	// it becomes a selection net.
	PressThreshold = 5.0
	// HandleSize is the on-screen size of resize handles.
	HandleSize = 8.0
	// DefaultNoteText is the content of new notes and text layers.
	DefaultNoteText = "Text"
)

// Engine is the canvas state machine.
type Engine struct {
	store  state.Store
	sel    *selection.Manager
	hist   *history.Controller
	router *shortcut.Router
	logger *slog.Logger

	outliner    geom.Outliner
	maxLayers   int
	minDistance float64

	state     State
	resume    State
	camera    Camera
	viewport  geom.Point
	lastColor layer.Color
	spaceHeld bool

	draft   map[string]layer.Layer
	base    map[string]layer.Layer
	drawing *layer.Layer
	stroke  []geom.Point
	erasing bool

	editing   string
	editValue string

	cursor     *geom.Point
	onPresence func(Presence)

	mu          sync.Mutex
	listeners   []func()
	remote      map[string]RemotePresence
	unsubscribe func()
}

// New returns an engine editing st.
func New(st state.Store, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxLayers <= 0 {
		opts.MaxLayers = layer.MaxLayers
	}
	if opts.MinPointDistance <= 0 {
		opts.MinPointDistance = 2
	}
	if opts.Outliner == nil {
		opts.Outliner = geom.DefaultStrokeOptions()
	}
	if opts.Router == nil {
		opts.Router = shortcut.NewRouter()
	}
	e := &Engine{
		store:       st,
		sel:         selection.New(st, opts.Logger),
		router:      opts.Router,
		logger:      opts.Logger,
		outliner:    opts.Outliner,
		maxLayers:   opts.MaxLayers,
		minDistance: opts.MinPointDistance,
		camera:      DefaultCamera(),
		lastColor:   layer.DefaultFill,
		remote:      map[string]RemotePresence{},
	}
	e.hist = history.New(st, e.TextFocused, opts.Logger)
	e.unsubscribe = st.Subscribe(func(state.Snapshot) { e.notify() })
	return e
}

// Close detaches the engine from its store.
func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

// OnChange registers fn to run after any local or remote change. fn may be
// called from any goroutine and must not call back into the engine
// synchronously.
func (e *Engine) OnChange(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

func (e *Engine) notify() {
	e.mu.Lock()
	ls := append([]func(){}, e.listeners...)
	e.mu.Unlock()
	for _, fn := range ls {
		fn()
	}
}

func (e *Engine) State() State { return e.state }

func (e *Engine) Mode() Mode { return e.state.Mode }

func (e *Engine) Store() state.Store { return e.store }

func (e *Engine) History() *history.Controller { return e.hist }

func (e *Engine) Selection() *selection.Manager { return e.sel }

func (e *Engine) Camera() Camera { return e.camera }

// LastColor is the fill given to new layers: the most recent color applied
// through the selection tools.
func (e *Engine) LastColor() layer.Color { return e.lastColor }

// SetViewport records the on-screen size of the canvas; zoom shortcuts
// scale about its center.
func (e *Engine) SetViewport(size geom.Point) { e.viewport = size }

func (e *Engine) setState(s State) {
	if s.Mode != e.state.Mode {
		e.logger.Debug("mode", "from", e.state.Mode, "to", s.Mode)
	}
	e.state = s
}

// Tool is a user-selectable mode: select, hand, pencil, eraser, or
// inserting one layer type.
type Tool struct {
	Mode   Mode
	Insert layer.Type
}

var (
	SelectTool = Tool{Mode: None}
	HandTool   = Tool{Mode: Panning}
	PencilTool = Tool{Mode: Pencil}
	EraserTool = Tool{Mode: Eraser}
)

// InsertTool returns the tool that places layers of type t.
func InsertTool(t layer.Type) Tool { return Tool{Mode: Inserting, Insert: t} }

// Tool reports the tool the current mode belongs to. Gesture modes map to
// the tool that started them.
func (e *Engine) Tool() Tool {
	s := e.state
	if s.Mode == Panning && s.Transient {
		s = e.resume
	}
	switch s.Mode {
	case Inserting, Drawing:
		return InsertTool(s.LayerType)
	case Pencil:
		return PencilTool
	case Eraser:
		return EraserTool
	case Panning:
		return HandTool
	}
	return SelectTool
}

// SetTool switches tools outright, discarding any uncommitted gesture.
func (e *Engine) SetTool(t Tool) {
	e.discard()
	e.spaceHeld = false
	switch t.Mode {
	case Inserting:
		e.setState(State{Mode: Inserting, LayerType: t.Insert})
	case Pencil, Eraser, Panning:
		e.setState(State{Mode: t.Mode})
	default:
		e.setState(State{Mode: None})
	}
	e.notify()
}

// discard drops every uncommitted draft.
func (e *Engine) discard() {
	e.draft = nil
	e.base = nil
	e.drawing = nil
	e.stroke = nil
	e.erasing = false
}

// Escape abandons whatever is in progress, clears the selection and returns
// to the idle state.
func (e *Engine) Escape() {
	e.discard()
	e.spaceHeld = false
	e.sel.Clear()
	e.setState(State{Mode: None})
	e.publish()
	e.notify()
}

// Cancel aborts the current gesture as if the pointer had been released
// without committing. The tool stays selected.
func (e *Engine) Cancel() {
	s := e.state
	e.discard()
	switch s.Mode {
	case Pressing, SelectionNet, Translating, Resizing:
		e.setState(State{Mode: None})
	case Drawing:
		e.setState(State{Mode: Inserting, LayerType: s.LayerType})
	case Panning:
		if s.Transient {
			e.setState(e.resume)
		} else {
			e.setState(State{Mode: Panning})
		}
	}
	e.notify()
}

// Blur handles loss of input focus: the gesture is cancelled and a held
// space bar is considered released.
func (e *Engine) Blur() {
	e.spaceHeld = false
	e.Cancel()
}

func (e *Engine) layerCount() int { return len(e.store.Order()) }

func (e *Engine) atLimit() bool {
	if e.layerCount() >= e.maxLayers {
		e.logger.Info("layer limit reached", "limit", e.maxLayers)
		return true
	}
	return false
}

// insert adds l as a new layer in its own undo step.
func (e *Engine) insert(id string, l layer.Layer) bool {
	var err error
	e.hist.Action("insert", func() {
		err = e.store.Insert(id, l)
	})
	if err != nil {
		e.logger.Warn("insert failed", "type", l.Type, "err", err)
		return false
	}
	return true
}
