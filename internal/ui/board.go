package ui

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"localboard/internal/engine"
	"localboard/internal/geom"
	"localboard/internal/render"
)

var background = color.NRGBA{R: 245, G: 246, B: 248, A: 255}

// BoardWidget is the drawing surface. It forwards pointer input to the
// engine and paints the engine's scene into a raster.
type BoardWidget struct {
	widget.BaseWidget
	engine   *engine.Engine
	renderer *render.Renderer
	raster   *canvas.Raster

	// OnEditText is called after a double tap started editing a layer.
	OnEditText func(id string)
	// OnSceneChanged runs on the UI goroutine after every repaint request.
	OnSceneChanged func(engine.Scene)

	mu    sync.Mutex
	scene engine.Scene

	down bool
	last geom.Point
}

var (
	_ fyne.Widget         = (*BoardWidget)(nil)
	_ fyne.Draggable      = (*BoardWidget)(nil)
	_ fyne.Scrollable     = (*BoardWidget)(nil)
	_ fyne.DoubleTappable = (*BoardWidget)(nil)
	_ desktop.Mouseable   = (*BoardWidget)(nil)
	_ desktop.Hoverable   = (*BoardWidget)(nil)
	_ desktop.Cursorable  = (*BoardWidget)(nil)
)

func NewBoardWidget(e *engine.Engine, r *render.Renderer) *BoardWidget {
	b := &BoardWidget{engine: e, renderer: r}
	b.raster = canvas.NewRaster(b.paint)
	b.ExtendBaseWidget(b)
	e.OnChange(func() { fyne.Do(b.Refresh) })
	b.scene = e.Scene()
	return b
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(b.raster)
}

func (b *BoardWidget) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

// Refresh takes a new scene from the engine and repaints.
func (b *BoardWidget) Refresh() {
	sc := b.engine.Scene()
	b.mu.Lock()
	b.scene = sc
	b.mu.Unlock()
	if b.OnSceneChanged != nil {
		b.OnSceneChanged(sc)
	}
	b.BaseWidget.Refresh()
}

func (b *BoardWidget) Resize(size fyne.Size) {
	b.BaseWidget.Resize(size)
	b.engine.SetViewport(geom.Pt(float64(size.Width), float64(size.Height)))
}

// paint draws the cached scene at the raster's pixel size.
func (b *BoardWidget) paint(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	b.mu.Lock()
	sc := b.scene
	b.mu.Unlock()

	pixels := 1.0
	if size := b.Size(); size.Width > 0 {
		pixels = float64(w) / float64(size.Width)
	}
	v := render.View{Offset: sc.Camera.Offset().Scale(pixels), Scale: sc.Camera.Zoom * pixels}
	b.renderer.Layers(img, v, sc.Layers)
	b.renderer.Overlay(img, v, overlayOf(sc))
	return img
}

func overlayOf(sc engine.Scene) render.Overlay {
	o := render.Overlay{
		Selection:    sc.SelectionBounds,
		HasSelection: sc.HasSelection,
		Net:          sc.Net,
		HasNet:       sc.HasNet,
	}
	for _, side := range geom.Handles {
		if p, ok := sc.Handles[side]; ok {
			o.Handles = append(o.Handles, p)
		}
	}
	for _, rv := range sc.Remote {
		o.Remote = append(o.Remote, render.Remote{Color: rv.Color, Bounds: rv.Bounds, HasBounds: rv.HasBounds, Cursor: rv.Cursor})
	}
	return o
}

func point(p fyne.Position) geom.Point {
	return geom.Pt(float64(p.X), float64(p.Y))
}

func button(b desktop.MouseButton) engine.Button {
	switch b {
	case desktop.MouseButtonSecondary:
		return engine.Secondary
	case desktop.MouseButtonTertiary:
		return engine.Middle
	}
	return engine.Primary
}

func (b *BoardWidget) MouseDown(ev *desktop.MouseEvent) {
	b.last = point(ev.Position)
	b.down = ev.Button != desktop.MouseButtonSecondary
	b.engine.PointerDown(engine.PointerEvent{
		Screen: b.last,
		Button: button(ev.Button),
		Shift:  ev.Modifier&fyne.KeyModifierShift != 0,
	})
}

func (b *BoardWidget) MouseUp(ev *desktop.MouseEvent) {
	b.last = point(ev.Position)
	b.release(button(ev.Button))
}

// release ends the gesture once, whether the driver reports the mouse up or
// only the end of the drag.
func (b *BoardWidget) release(btn engine.Button) {
	if !b.down {
		return
	}
	b.down = false
	b.engine.PointerUp(engine.PointerEvent{Screen: b.last, Button: btn})
}

func (b *BoardWidget) Dragged(ev *fyne.DragEvent) {
	b.last = point(ev.Position)
	b.engine.PointerMove(engine.PointerEvent{Screen: b.last})
}

func (b *BoardWidget) DragEnd() { b.release(engine.Primary) }

func (b *BoardWidget) MouseIn(ev *desktop.MouseEvent) {
	b.engine.PointerMove(engine.PointerEvent{Screen: point(ev.Position)})
}

func (b *BoardWidget) MouseMoved(ev *desktop.MouseEvent) {
	b.last = point(ev.Position)
	b.engine.PointerMove(engine.PointerEvent{Screen: b.last})
}

func (b *BoardWidget) MouseOut() { b.engine.PointerLeave() }

func (b *BoardWidget) Scrolled(ev *fyne.ScrollEvent) {
	b.engine.Wheel(geom.Pt(-float64(ev.Scrolled.DX), -float64(ev.Scrolled.DY)))
}

func (b *BoardWidget) DoubleTapped(ev *fyne.PointEvent) {
	id, ok := b.engine.LayerAt(point(ev.Position))
	if !ok || !b.engine.BeginTextEdit(id) {
		return
	}
	if b.OnEditText != nil {
		b.OnEditText(id)
	}
}

func (b *BoardWidget) Cursor() desktop.Cursor {
	switch b.engine.Mode() {
	case engine.Inserting, engine.Drawing, engine.Pencil, engine.Eraser:
		return desktop.CrosshairCursor
	case engine.Panning:
		return desktop.PointerCursor
	}
	return desktop.DefaultCursor
}
