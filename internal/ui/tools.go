package ui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"localboard/internal/engine"
	"localboard/internal/layer"
)

// --- Color swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    layer.Color
	OnTapped func(layer.Color)
}

func newColorSwatch(c layer.Color, tapped func(layer.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// --- Tool picker ---
type toolEntry struct {
	label string
	tool  engine.Tool
}

var toolEntries = []toolEntry{
	{"Select (V)", engine.SelectTool},
	{"Hand (H)", engine.HandTool},
	{"Rectangle (R)", engine.InsertTool(layer.Rectangle)},
	{"Ellipse (O)", engine.InsertTool(layer.Ellipse)},
	{"Diamond (D)", engine.InsertTool(layer.Diamond)},
	{"Line (L)", engine.InsertTool(layer.Line)},
	{"Arrow (A)", engine.InsertTool(layer.Arrow)},
	{"Text (T)", engine.InsertTool(layer.Text)},
	{"Note (N)", engine.InsertTool(layer.Note)},
	{"Pencil (P)", engine.PencilTool},
	{"Eraser (E)", engine.EraserTool},
}

type toolPicker struct {
	engine  *engine.Engine
	buttons []*widget.Button
	box     *fyne.Container
}

func newToolPicker(e *engine.Engine) *toolPicker {
	p := &toolPicker{engine: e, box: container.NewHBox()}
	for _, te := range toolEntries {
		b := widget.NewButton(te.label, func() { e.SetTool(te.tool) })
		p.buttons = append(p.buttons, b)
		p.box.Add(b)
	}
	p.sync()
	return p
}

// sync highlights the active tool.
func (p *toolPicker) sync() {
	current := p.engine.Tool()
	for i, te := range toolEntries {
		want := widget.MediumImportance
		if te.tool == current {
			want = widget.HighImportance
		}
		if b := p.buttons[i]; b.Importance != want {
			b.Importance = want
			b.Refresh()
		}
	}
}

// --- Selection tools ---

// selectionTools float above the selection.
type selectionTools struct {
	box *fyne.Container
}

func newSelectionTools(e *engine.Engine) *selectionTools {
	swatches := container.NewHBox()
	for _, c := range layer.Palette {
		swatches.Add(newColorSwatch(c, e.SetFill))
	}
	bar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ViewRefreshIcon(), e.RotateSelection),
		widget.NewToolbarAction(theme.MoveUpIcon(), e.BringToFront),
		widget.NewToolbarAction(theme.MoveDownIcon(), e.SendToBack),
		widget.NewToolbarAction(theme.ContentCopyIcon(), e.DuplicateSelection),
		widget.NewToolbarAction(theme.DeleteIcon(), e.DeleteSelection),
	)
	bg := canvas.NewRectangle(theme.Color(theme.ColorNameOverlayBackground))
	bg.CornerRadius = 6
	box := container.NewStack(bg, container.NewPadded(container.NewHBox(swatches, widget.NewSeparator(), bar)))
	box.Resize(box.MinSize())
	box.Hide()
	return &selectionTools{box: box}
}

// place hangs the tools above anchor, or hides them when there is
// nothing to act on.
func (s *selectionTools) place(anchor fyne.Position, show bool) {
	if !show {
		s.box.Hide()
		return
	}
	size := s.box.MinSize()
	s.box.Resize(size)
	s.box.Move(fyne.NewPos(anchor.X-size.Width/2, anchor.Y-size.Height-8))
	s.box.Show()
}

// --- Zoom controls ---
type zoomControls struct {
	label *widget.Label
	box   *fyne.Container
}

func newZoomControls(e *engine.Engine) *zoomControls {
	z := &zoomControls{label: widget.NewLabel("100%")}
	z.box = container.NewHBox(
		widget.NewButtonWithIcon("", theme.ZoomOutIcon(), e.ZoomOut),
		z.label,
		widget.NewButtonWithIcon("", theme.ZoomInIcon(), e.ZoomIn),
		widget.NewButtonWithIcon("", theme.ZoomFitIcon(), e.ResetZoom),
	)
	return z
}

func (z *zoomControls) sync(c engine.Camera) {
	if text := zoomLabel(c.Zoom); z.label.Text != text {
		z.label.SetText(text)
	}
}

func zoomLabel(zoom float64) string {
	return fmt.Sprintf("%.0f%%", zoom*100)
}
