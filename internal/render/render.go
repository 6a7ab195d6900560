// Package render rasterizes board layers. The same code draws the live
// canvas and exported images, so what is measured for export is what the
// user sees.
package render

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"

	"localboard/internal/geom"
	"localboard/internal/layer"
	"localboard/internal/state"
)

// ErrUnmeasurable is returned for layers whose drawn extent cannot be
// computed, such as a path without points or non-finite coordinates.
var ErrUnmeasurable = errors.New("layer cannot be measured")

const (
	// LineWidth is the stroke width of lines and arrows.
	LineWidth   = 2.0
	ellipseStep = 64
)

// View maps canvas space to pixels: pixel = canvas*Scale + Offset.
type View struct {
	Offset geom.Point
	Scale  float64
}

// Identity draws canvas space unscaled.
var Identity = View{Scale: 1}

func (v View) scale() float64 {
	if v.Scale <= 0 {
		return 1
	}
	return v.Scale
}

func (v View) apply(p geom.Point) geom.Point {
	return p.Scale(v.scale()).Add(v.Offset)
}

// Options configure a Renderer.
type Options struct {
	Outliner geom.Outliner
	// Images resolves an image layer's Src. Nil uses DecodeSource.
	Images func(src string) (image.Image, error)
	Logger *slog.Logger
}

// Renderer draws layers. It is safe for concurrent use.
type Renderer struct {
	outliner geom.Outliner
	images   func(string) (image.Image, error)
	logger   *slog.Logger

	mu     sync.Mutex
	raster *vector.Rasterizer
	fonts  *faceCache
	decode map[string]image.Image
}

func New(opts Options) *Renderer {
	if opts.Outliner == nil {
		opts.Outliner = geom.DefaultStrokeOptions()
	}
	if opts.Images == nil {
		opts.Images = DecodeSource
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Renderer{
		outliner: opts.Outliner,
		images:   opts.Images,
		logger:   opts.Logger,
		raster:   vector.NewRasterizer(0, 0),
		fonts:    newFaceCache(),
		decode:   map[string]image.Image{},
	}
}

// shape is one filled polygon in a layer's local frame.
type shape struct {
	poly []geom.Point
	fill color.Color
}

// shapes returns the filled polygons that make up l, in local coordinates.
func (r *Renderer) shapes(l layer.Layer) []shape {
	box := geom.R(0, 0, l.Width, l.Height)
	fill := l.Fill
	switch l.Type {
	case layer.Rectangle, layer.Note:
		return []shape{{corners(box), fill}}
	case layer.Ellipse:
		return []shape{{geom.Ellipse(box, ellipseStep), fill}}
	case layer.Diamond:
		return []shape{{geom.Diamond(box), fill}}
	case layer.Path:
		return []shape{{r.outliner.Outline(l.Points), fill}}
	case layer.Line, layer.Arrow:
		if len(l.Points) < 2 {
			return nil
		}
		tail, tip := l.Points[0], l.Points[1]
		out := []shape{{geom.Segment(tail, tip, LineWidth), fill}}
		if l.Type == layer.Arrow {
			barbs := geom.Arrowhead(tail, tip, geom.ArrowheadLength)
			out = append(out, shape{[]geom.Point{tip, barbs[0], barbs[1]}, fill})
		}
		return out
	case layer.Image:
		return []shape{{corners(box), placeholder}}
	}
	return nil
}

func corners(r geom.Rect) []geom.Point {
	c := r.Corners()
	return c[:]
}

var placeholder = color.RGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}

// Layers draws entries back to front. Layers that fail to draw are logged
// and skipped.
func (r *Renderer) Layers(dst draw.Image, v View, entries []state.Entry) {
	for _, e := range entries {
		if err := r.Layer(dst, v, e.Layer); err != nil {
			r.logger.Debug("layer not drawn", "layer", e.ID, "err", err)
		}
	}
}

// Layer draws one layer.
func (r *Renderer) Layer(dst draw.Image, v View, l layer.Layer) error {
	if err := checkFinite(l); err != nil {
		return err
	}
	tr := l.Transform()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shapes(l) {
		pts := tr.ApplyAll(s.poly)
		for i, p := range pts {
			pts[i] = v.apply(p)
		}
		r.fillLocked(dst, pts, s.fill)
	}
	switch l.Type {
	case layer.Note, layer.Text:
		r.textLocked(dst, v, l)
	case layer.Image:
		r.imageLocked(dst, v, l)
	}
	return nil
}

// Fill paints a polygon given in pixel coordinates.
func (r *Renderer) Fill(dst draw.Image, poly []geom.Point, c color.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fillLocked(dst, poly, c)
}

func (r *Renderer) fillLocked(dst draw.Image, poly []geom.Point, c color.Color) {
	if len(poly) < 3 {
		return
	}
	b := dst.Bounds()
	z := r.raster
	z.Reset(b.Dx(), b.Dy())
	origin := geom.Pt(float64(b.Min.X), float64(b.Min.Y))
	for i, p := range poly {
		p = p.Sub(origin)
		if i == 0 {
			z.MoveTo(float32(p.X), float32(p.Y))
		} else {
			z.LineTo(float32(p.X), float32(p.Y))
		}
	}
	z.ClosePath()
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// localToPixel is the affine map from a layer's local frame, sampled at the
// view's scale, to destination pixels.
func localToPixel(l layer.Layer, v View) f64.Aff3 {
	m := l.Transform().Matrix()
	s := v.scale()
	return f64.Aff3{
		m[0], m[1], s*m[2] + v.Offset.X,
		m[3], m[4], s*m[5] + v.Offset.Y,
	}
}

// stamp draws src, a w×h local image sampled at the view's scale, onto dst
// through the layer's placement.
func stamp(dst draw.Image, v View, l layer.Layer, src image.Image) {
	xdraw.BiLinear.Transform(dst, localToPixel(l, v), src, src.Bounds(), xdraw.Over, nil)
}

// visible is the part of l's w×h local pixel box that lands on dst, padded
// by a pixel for filtering. It is empty when l is off-screen.
func visible(dst draw.Image, v View, l layer.Layer, w, h int) image.Rectangle {
	m := localToPixel(l, v)
	det := m[0]*m[4] - m[1]*m[3]
	if det == 0 || math.IsNaN(det) {
		return image.Rectangle{}
	}
	b := dst.Bounds()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{
		{float64(b.Min.X), float64(b.Min.Y)}, {float64(b.Max.X), float64(b.Min.Y)},
		{float64(b.Max.X), float64(b.Max.Y)}, {float64(b.Min.X), float64(b.Max.Y)},
	} {
		dx, dy := c[0]-m[2], c[1]-m[5]
		x := (m[4]*dx - m[1]*dy) / det
		y := (m[0]*dy - m[3]*dx) / det
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	box := image.Rect(0, 0, w, h)
	if maxX < 0 || maxY < 0 || minX > float64(w) || minY > float64(h) {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(math.Max(minX, 0)))-1, int(math.Floor(math.Max(minY, 0)))-1,
		int(math.Ceil(math.Min(maxX, float64(w))))+1, int(math.Ceil(math.Min(maxY, float64(h))))+1,
	).Intersect(box)
}

func (r *Renderer) imageLocked(dst draw.Image, v View, l layer.Layer) {
	w, h := pixelSize(l, v)
	if w == 0 || h == 0 {
		return
	}
	vis := visible(dst, v, l, w, h)
	if vis.Empty() {
		return
	}
	img, err := r.sourceLocked(l.Src)
	if err != nil {
		r.logger.Debug("image source unavailable", "err", err)
		return
	}
	sb := img.Bounds()
	if sb.Empty() {
		return
	}
	sx, sy := float64(w)/float64(sb.Dx()), float64(h)/float64(sb.Dy())
	scaled := image.NewRGBA(vis)
	toLocal := f64.Aff3{sx, 0, -sx * float64(sb.Min.X), 0, sy, -sy * float64(sb.Min.Y)}
	xdraw.CatmullRom.Transform(scaled, toLocal, img, sb, xdraw.Src, nil)
	stamp(dst, v, l, scaled)
}

func (r *Renderer) sourceLocked(src string) (image.Image, error) {
	if img, ok := r.decode[src]; ok {
		return img, nil
	}
	img, err := r.images(src)
	if err != nil {
		return nil, err
	}
	r.decode[src] = img
	return img, nil
}

// pixelSize is the size in pixels of l's box under v.
func pixelSize(l layer.Layer, v View) (int, int) {
	s := v.scale()
	return int(math.Ceil(l.Width * s)), int(math.Ceil(l.Height * s))
}

func checkFinite(l layer.Layer) error {
	if !l.Type.Valid() {
		return ErrUnmeasurable
	}
	if !l.Bounds().Finite() || math.IsNaN(l.Rotation) || math.IsInf(l.Rotation, 0) {
		return ErrUnmeasurable
	}
	for _, p := range l.Points {
		if !p.Finite() {
			return ErrUnmeasurable
		}
	}
	return nil
}
