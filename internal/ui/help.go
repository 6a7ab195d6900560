package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"localboard/internal/shortcut"
)

var actionHelp = map[shortcut.Action]string{
	shortcut.Undo:          "Undo",
	shortcut.Redo:          "Redo",
	shortcut.Delete:        "Delete selection",
	shortcut.Duplicate:     "Duplicate selection",
	shortcut.ZoomIn:        "Zoom in",
	shortcut.ZoomOut:       "Zoom out",
	shortcut.ZoomReset:     "Reset zoom",
	shortcut.ToolSelect:    "Select",
	shortcut.ToolPan:       "Hand",
	shortcut.ToolRectangle: "Rectangle",
	shortcut.ToolEllipse:   "Ellipse",
	shortcut.ToolText:      "Text",
	shortcut.ToolPencil:    "Pencil",
	shortcut.ToolEraser:    "Eraser",
	shortcut.ToolNote:      "Sticky note",
	shortcut.ToolLine:      "Line",
	shortcut.ToolArrow:     "Arrow",
	shortcut.ToolDiamond:   "Diamond",
	shortcut.Escape:        "Clear selection, back to Select",
	shortcut.PanHold:       "Pan while held",
}

// shortcutRows pairs each key label with what it does.
func shortcutRows(rules []shortcut.Rule) [][2]string {
	rows := make([][2]string, 0, len(rules))
	for _, r := range rules {
		desc, ok := actionHelp[r.Action]
		if !ok {
			desc = r.Action.String()
		}
		rows = append(rows, [2]string{r.Label, desc})
	}
	return rows
}

func shortcutsContent(rules []shortcut.Rule) *fyne.Container {
	grid := container.NewGridWithColumns(2)
	for _, row := range shortcutRows(rules) {
		key := widget.NewLabelWithStyle(row[0], fyne.TextAlignLeading, fyne.TextStyle{Monospace: true})
		grid.Add(key)
		grid.Add(widget.NewLabel(row[1]))
	}
	return grid
}

func (a *App) showShortcuts() {
	scroll := container.NewVScroll(shortcutsContent(a.opts.Engine.Shortcuts()))
	scroll.SetMinSize(fyne.NewSize(420, 480))
	dialog.ShowCustom("Keyboard shortcuts", "Close", scroll, a.window)
}
