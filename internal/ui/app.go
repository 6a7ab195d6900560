// Package ui is the desktop front-end of the board, built on fyne.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"localboard/internal/engine"
	"localboard/internal/export"
	"localboard/internal/render"
	"localboard/internal/state"
)

const appID = "io.localboard"

type Options struct {
	Title string
	// ShareLink is shown to the host so others can join.
	ShareLink string
	Board     *state.Board
	Engine    *engine.Engine
	Renderer  *render.Renderer
	Exporter  *export.Exporter
	Logger    *slog.Logger
}

// App is the board window.
type App struct {
	opts   Options
	logger *slog.Logger

	app    fyne.App
	window fyne.Window
	board  *BoardWidget
	tools  *toolPicker
	sel    *selectionTools
	zoom   *zoomControls
	editor *noteEditor
	status *widget.Label
	mods   modifiers
}

func New(opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Renderer == nil {
		opts.Renderer = render.New(render.Options{Logger: opts.Logger})
	}
	if opts.Exporter == nil {
		opts.Exporter = export.New(export.Options{Renderer: opts.Renderer, Padding: export.DefaultPadding, Logger: opts.Logger})
	}
	a := &App{opts: opts, logger: opts.Logger, app: app.NewWithID(appID)}
	a.window = a.app.NewWindow(windowTitle(opts.Title))
	a.window.Resize(fyne.NewSize(1280, 800))

	e := opts.Engine
	a.board = NewBoardWidget(e, opts.Renderer)
	a.tools = newToolPicker(e)
	a.sel = newSelectionTools(e)
	a.zoom = newZoomControls(e)
	a.editor = newNoteEditor(e)
	a.status = widget.NewLabel("Ready")

	a.board.OnSceneChanged = a.sync
	a.board.OnEditText = func(string) { a.editor.open(a.window.Canvas()) }

	actions := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() { e.Undo() }),
		widget.NewToolbarAction(theme.ContentRedoIcon(), func() { e.Redo() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), a.save),
		widget.NewToolbarAction(theme.FolderOpenIcon(), a.load),
		widget.NewToolbarAction(theme.DownloadIcon(), func() { a.export(export.PNG) }),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), func() { a.export(export.PDF) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.HelpIcon(), a.showShortcuts),
	)
	top := container.NewHBox(a.tools.box, widget.NewSeparator(), actions, layout.NewSpacer())
	if opts.ShareLink != "" {
		link := widget.NewLabel(opts.ShareLink)
		link.Selectable = true
		copyLink := widget.NewButtonWithIcon("", theme.ContentCopyIcon(), func() {
			a.app.Clipboard().SetContent(opts.ShareLink)
			a.SetStatus("Link copied")
		})
		top.Add(container.NewHBox(widget.NewLabel("Share:"), link, copyLink))
	}
	bottom := container.NewBorder(nil, nil, a.status, a.zoom.box)
	floating := container.NewWithoutLayout(a.sel.box, a.editor.entry)
	a.window.SetContent(container.NewBorder(top, bottom, nil, nil, container.NewStack(a.board, floating)))

	if dc, ok := a.window.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(a.keyDown)
		dc.SetOnKeyUp(a.keyUp)
	}
	a.app.Lifecycle().SetOnExitedForeground(a.blur)
	a.window.SetOnClosed(e.Close)
	return a
}

func windowTitle(title string) string {
	if title == "" {
		return "LocalBoard"
	}
	return title + " - LocalBoard"
}

// Run shows the window and blocks until it is closed.
func (a *App) Run() {
	a.board.Refresh()
	a.window.ShowAndRun()
}

// SetStatus shows text in the status bar. Safe to call from any goroutine.
func (a *App) SetStatus(text string) {
	fyne.Do(func() { a.status.SetText(text) })
}

// sync brings the chrome in line with a new scene.
func (a *App) sync(sc engine.Scene) {
	a.tools.sync()
	a.zoom.sync(sc.Camera)
	anchor, ok := a.opts.Engine.ToolbarAnchor()
	show := ok && sc.Editing == "" && a.opts.Engine.Mode() == engine.None
	a.sel.place(fyne.NewPos(float32(anchor.X), float32(anchor.Y)), show)
	a.editor.follow()
}

func (a *App) keyDown(ev *fyne.KeyEvent) {
	if a.mods.track(ev.Name, true) {
		return
	}
	a.opts.Engine.KeyDown(a.mods.key(ev.Name))
}

func (a *App) keyUp(ev *fyne.KeyEvent) {
	if a.mods.track(ev.Name, false) {
		return
	}
	a.opts.Engine.KeyUp(a.mods.key(ev.Name))
}

// blur drops every gesture in flight when the app loses focus.
func (a *App) blur() {
	a.mods.reset()
	a.editor.close()
	a.opts.Engine.Blur()
}

// --- Save, load, export ---

func (a *App) save() {
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if w == nil {
			return
		}
		defer w.Close()
		snap := a.opts.Engine.Store().Snapshot()
		if err := state.WriteJSON(w, snap); err != nil {
			a.logger.Error("save failed", "err", err)
			dialog.ShowError(err, a.window)
			return
		}
		a.logger.Info("board saved", "uri", w.URI().String(), "layers", snap.Len())
		a.SetStatus(fmt.Sprintf("Saved %d layers", snap.Len()))
	}, a.window)
	d.SetFileName(fmt.Sprintf("%s.json", titleOr(a.opts.Title)))
	d.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	d.Show()
}

func (a *App) load() {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if r == nil {
			return
		}
		defer r.Close()
		snap, err := state.ReadJSON(r)
		if err != nil {
			a.logger.Error("load failed", "err", err)
			dialog.ShowError(err, a.window)
			return
		}
		a.opts.Engine.Escape()
		if err := a.opts.Board.Load(snap); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.SetStatus(fmt.Sprintf("Loaded %d layers", snap.Len()))
	}, a.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	d.Show()
}

func (a *App) export(f export.Format) {
	a.opts.Engine.Cancel()
	if err := a.opts.Exporter.Check(a.opts.Engine.Store()); err != nil {
		a.exported(nil, err)
		return
	}
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if w == nil {
			return
		}
		a.SetStatus("Exporting...")
		go func() {
			defer w.Close()
			err := a.opts.Exporter.Write(context.Background(), w, a.opts.Engine.Store(), f)
			fyne.Do(func() { a.exported(w.URI(), err) })
		}()
	}, a.window)
	d.SetFileName(a.opts.Exporter.Filename(a.opts.Title, f))
	d.Show()
}

func (a *App) exported(uri fyne.URI, err error) {
	switch {
	case errors.Is(err, export.ErrNoContent):
		a.status.SetText("Export failed")
		dialog.ShowInformation("Nothing to export", "The board is empty. Draw something first, then export again.", a.window)
	case errors.Is(err, export.ErrTooLarge):
		a.status.SetText("Export failed")
		dialog.ShowInformation("Board too large", "The drawing spans too large an area to export. Move far-off shapes closer together, then export again.", a.window)
	case errors.Is(err, export.ErrNoCanvas):
		a.status.SetText("Export failed")
		dialog.ShowInformation("Nothing to export", "No board is open.", a.window)
	case err != nil:
		a.status.SetText("Export failed")
		dialog.ShowError(err, a.window)
	default:
		a.logger.Info("board exported", "uri", uri.String())
		a.status.SetText("Exported " + uri.Name())
	}
}

func titleOr(title string) string {
	if title == "" {
		return export.DefaultTitle
	}
	return title
}
