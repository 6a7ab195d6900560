package ui

import (
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/require"

	"localboard/internal/engine"
	"localboard/internal/geom"
	"localboard/internal/layer"
	"localboard/internal/render"
	"localboard/internal/shortcut"
	"localboard/internal/state"
)

func newBoard(t *testing.T) (*BoardWidget, *engine.Engine, *state.Board) {
	t.Helper()
	test.NewTempApp(t)
	b := state.NewBoard(nil)
	e := engine.New(b, engine.Options{})
	t.Cleanup(e.Close)
	w := NewBoardWidget(e, render.New(render.Options{}))
	w.Resize(fyne.NewSize(400, 300))
	return w, e, b
}

func mouse(x, y float32, btn desktop.MouseButton) *desktop.MouseEvent {
	return &desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}, Button: btn}
}

func TestBoardWidgetDrawsShape(t *testing.T) {
	w, e, b := newBoard(t)
	e.SetTool(engine.InsertTool(layer.Rectangle))

	w.MouseDown(mouse(10, 10, desktop.MouseButtonPrimary))
	w.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(60, 40)}, Dragged: fyne.NewDelta(50, 30)})
	w.MouseUp(mouse(60, 40, desktop.MouseButtonPrimary))
	w.DragEnd()

	require.Len(t, b.Order(), 1, "mouse up and drag end commit once")
	l, _ := b.Layer(b.Order()[0])
	require.Equal(t, geom.R(10, 10, 50, 30), l.Bounds())

	img := w.paint(400, 300)
	r, g, bl, _ := img.At(30, 20).RGBA()
	require.Zero(t, r+g+bl, "default fill is black")
	require.Equal(t, color.RGBAModel.Convert(background), color.RGBAModel.Convert(img.At(200, 200)))
}

func TestBoardWidgetDragEndWithoutMouseUp(t *testing.T) {
	w, e, b := newBoard(t)
	e.SetTool(engine.InsertTool(layer.Ellipse))

	w.MouseDown(mouse(0, 0, desktop.MouseButtonPrimary))
	w.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(40, 40)}})
	w.DragEnd()
	require.Len(t, b.Order(), 1, "release outside the widget still ends the gesture")
}

func TestBoardWidgetMiddleButtonPans(t *testing.T) {
	w, e, _ := newBoard(t)
	w.MouseDown(mouse(100, 100, desktop.MouseButtonTertiary))
	require.Equal(t, engine.Panning, e.Mode())
	w.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(130, 90)}})
	w.MouseUp(mouse(130, 90, desktop.MouseButtonTertiary))
	require.Equal(t, engine.None, e.Mode())
	require.Equal(t, 30.0, e.Camera().X)
	require.Equal(t, -10.0, e.Camera().Y)
}

func TestBoardWidgetScroll(t *testing.T) {
	w, e, _ := newBoard(t)
	w.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.NewDelta(0, -100)})
	require.Equal(t, -100.0, e.Camera().Y, "wheel down moves the content up")
}

func TestBoardWidgetCursor(t *testing.T) {
	w, e, _ := newBoard(t)
	require.Equal(t, desktop.DefaultCursor, w.Cursor())
	e.SetTool(engine.PencilTool)
	require.Equal(t, desktop.CrosshairCursor, w.Cursor())
	e.SetTool(engine.HandTool)
	require.Equal(t, desktop.PointerCursor, w.Cursor())
}

func TestDoubleTapEditsNote(t *testing.T) {
	w, e, b := newBoard(t)
	require.NoError(t, b.Insert("n", layer.Layer{Type: layer.Note, X: 10, Y: 10, Width: 100, Height: 100, Value: "Text"}))
	require.NoError(t, b.Insert("r", layer.Layer{Type: layer.Rectangle, X: 200, Y: 10, Width: 50, Height: 50}))

	var edited string
	w.OnEditText = func(id string) { edited = id }
	w.DoubleTapped(&fyne.PointEvent{Position: fyne.NewPos(220, 20)})
	require.Empty(t, edited, "rectangles carry no text")

	w.DoubleTapped(&fyne.PointEvent{Position: fyne.NewPos(50, 50)})
	require.Equal(t, "n", edited)
	require.True(t, e.TextFocused())
}

func TestModifierTracking(t *testing.T) {
	var m modifiers
	require.True(t, m.track(desktop.KeyControlLeft, true))
	require.False(t, m.track(fyne.KeyZ, true))
	require.Equal(t, shortcut.Key{Name: "Z", Ctrl: true}, m.key(fyne.KeyZ))

	m.track(desktop.KeyShiftRight, true)
	a, ok := shortcut.NewRouter().Route(m.key(fyne.KeyZ), false)
	require.True(t, ok)
	require.Equal(t, shortcut.Redo, a)

	m.track(desktop.KeyControlLeft, false)
	m.track(desktop.KeyShiftRight, false)
	a, _ = shortcut.NewRouter().Route(m.key(fyne.KeyD), false)
	require.Equal(t, shortcut.ToolDiamond, a)

	m.track(desktop.KeySuperLeft, true)
	m.reset()
	require.Equal(t, modifiers{}, m)
}

func TestFyneKeyNamesRoute(t *testing.T) {
	var m modifiers
	for name, want := range map[fyne.KeyName]shortcut.Action{
		fyne.KeyBackspace: shortcut.Delete,
		fyne.KeyDelete:    shortcut.Delete,
		fyne.KeyEscape:    shortcut.Escape,
		fyne.KeySpace:     shortcut.PanHold,
		fyne.KeyN:         shortcut.ToolNote,
	} {
		a, ok := shortcut.NewRouter().Route(m.key(name), false)
		require.True(t, ok, name)
		require.Equal(t, want, a, name)
	}
}

func TestOverlayOf(t *testing.T) {
	cursor := geom.Pt(1, 2)
	sc := engine.Scene{
		SelectionBounds: geom.R(0, 0, 10, 10),
		HasSelection:    true,
		Handles:         map[geom.Side]geom.Point{geom.Top: {X: 5}, geom.Bottom | geom.Right: {X: 10, Y: 10}},
		Remote:          []engine.RemoteView{{Color: layer.White, Cursor: &cursor}},
	}
	o := overlayOf(sc)
	require.True(t, o.HasSelection)
	require.Len(t, o.Handles, 2)
	require.Len(t, o.Remote, 1)
	require.Equal(t, &cursor, o.Remote[0].Cursor)
}

func TestZoomLabel(t *testing.T) {
	require.Equal(t, "100%", zoomLabel(1))
	require.Equal(t, "120%", zoomLabel(1.2))
	require.Equal(t, "10%", zoomLabel(engine.MinZoom))
}

func TestShortcutRows(t *testing.T) {
	_, e, _ := newBoard(t)
	rules := e.Shortcuts()
	rows := shortcutRows(rules)
	require.Len(t, rows, len(rules))
	require.Equal(t, [2]string{"Ctrl/Cmd+Z", "Undo"}, rows[0])
	for _, r := range rules {
		_, ok := actionHelp[r.Action]
		require.True(t, ok, r.Label)
	}
	require.Len(t, shortcutsContent(rules).Objects, 2*len(rules))
}
