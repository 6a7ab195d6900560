// Package export renders the board to a PNG image or a single-page PDF.
// Output is sized to the drawn content plus padding, on a white background,
// without any editing overlay.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"localboard/internal/geom"
	"localboard/internal/render"
	"localboard/internal/state"
)

var (
	// ErrNoCanvas means there was no board to export from.
	ErrNoCanvas = errors.New("no canvas to export")
	// ErrNoContent means the board holds nothing that could be measured.
	ErrNoContent = errors.New("nothing on the board to export")
	// ErrTooLarge means the content spans more pixels than MaxPixels allows.
	ErrTooLarge = errors.New("board too large to export")
)

type Format string

const (
	PNG Format = "png"
	PDF Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case PNG, PDF:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

const (
	DefaultPadding   = 50.0
	DefaultTitle     = "whiteboard"
	DefaultMaxPixels = 64 << 20
)

// Source is anything holding a board snapshot, such as a state.Store.
type Source interface {
	Snapshot() state.Snapshot
}

type Options struct {
	Renderer *render.Renderer
	// Padding is added on every side of the content box.
	Padding float64
	// Settle is waited before the board is read, so a change made just
	// before the export is part of it.
	Settle time.Duration
	// MaxPixels caps the output area. Zero means DefaultMaxPixels.
	MaxPixels int
	Logger    *slog.Logger
	Now    func() time.Time
}

type Exporter struct {
	renderer *render.Renderer
	padding  float64
	settle    time.Duration
	maxPixels int
	logger    *slog.Logger
	now       func() time.Time
}

func New(opts Options) *Exporter {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Renderer == nil {
		opts.Renderer = render.New(render.Options{Logger: opts.Logger})
	}
	if opts.Padding < 0 {
		opts.Padding = DefaultPadding
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Exporter{
		renderer:  opts.Renderer,
		padding:   opts.Padding,
		settle:    opts.Settle,
		maxPixels: opts.MaxPixels,
		logger:    opts.Logger,
		now:       opts.Now,
	}
}

// Filename is "{title}-{unix millis}.{ext}", with "whiteboard" standing in
// for an empty title.
func (x *Exporter) Filename(title string, f Format) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	title = strings.NewReplacer("/", "-", `\`, "-").Replace(title)
	return fmt.Sprintf("%s-%d.%s", title, x.now().UnixMilli(), f)
}

// Check reports the error Render would fail with before anything is drawn:
// ErrNoCanvas, ErrNoContent or ErrTooLarge.
func (x *Exporter) Check(src Source) error {
	if src == nil {
		return ErrNoCanvas
	}
	_, _, err := x.measure(src.Snapshot().Ordered(), nil)
	return err
}

// measure returns the content box and the padded image size.
func (x *Exporter) measure(entries []state.Entry, skipped func(string, error)) (geom.Rect, image.Point, error) {
	content, ok := x.renderer.Content(entries, skipped)
	if !ok {
		return geom.Rect{}, image.Point{}, ErrNoContent
	}
	w := math.Max(math.Ceil(content.Width+2*x.padding), 1)
	h := math.Max(math.Ceil(content.Height+2*x.padding), 1)
	if w*h > float64(x.maxPixels) {
		return geom.Rect{}, image.Point{}, fmt.Errorf("%w: %.0fx%.0f pixels, limit %d", ErrTooLarge, w, h, x.maxPixels)
	}
	return content, image.Pt(int(w), int(h)), nil
}

// Render draws the committed board into a new image.
func (x *Exporter) Render(ctx context.Context, src Source) (*image.RGBA, error) {
	if src == nil {
		return nil, ErrNoCanvas
	}
	if x.settle > 0 {
		t := time.NewTimer(x.settle)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	entries := src.Snapshot().Ordered()
	content, size, err := x.measure(entries, func(id string, err error) {
		x.logger.Warn("layer left out of export", "layer", id, "err", err)
	})
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	v := render.View{Offset: geom.Pt(x.padding-content.X, x.padding-content.Y), Scale: 1}
	x.renderer.Layers(img, v, entries)
	return img, nil
}

// Write renders src and encodes it in format f.
func (x *Exporter) Write(ctx context.Context, w io.Writer, src Source, f Format) error {
	img, err := x.Render(ctx, src)
	if err != nil {
		return err
	}
	switch f {
	case PNG:
		return png.Encode(w, img)
	case PDF:
		return writePDF(w, img)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// ToDir writes the export into dir under Filename and returns its path. A
// failed export leaves no file behind.
func (x *Exporter) ToDir(ctx context.Context, dir, title string, src Source, f Format) (string, error) {
	var buf bytes.Buffer
	if err := x.Write(ctx, &buf, src, f); err != nil {
		x.logger.Error("export failed", "format", f, "err", err)
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, x.Filename(title, f))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	x.logger.Info("board exported", "path", path, "bytes", buf.Len())
	return path, nil
}

// writePDF embeds img in one page of exactly its size, one point per pixel.
func writePDF(w io.Writer, img image.Image) error {
	var raster bytes.Buffer
	if err := png.Encode(&raster, img); err != nil {
		return err
	}
	b := img.Bounds()
	wd, ht := float64(b.Dx()), float64(b.Dy())

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: wd, Ht: ht},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("board", opts, &raster)
	pdf.ImageOptions("board", 0, 0, wd, ht, false, opts, 0, "")
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
