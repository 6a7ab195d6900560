package render

import (
	"image"
	"image/draw"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"localboard/internal/geom"
	"localboard/internal/layer"
)

const (
	maxFontSize = 96.0
	fontScale   = 0.15
)

// FontSize is the text size of a note or text layer: it scales with the
// smaller side of the box, up to 96.
func FontSize(width, height float64) float64 {
	return math.Min(math.Min(height*fontScale, width*fontScale), maxFontSize)
}

// faceCache holds one face per pixel size. Without a parsable font it
// falls back to the fixed 7x13 bitmap face.
type faceCache struct {
	font  *opentype.Font
	faces map[int]font.Face
}

func newFaceCache() *faceCache {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		f = nil
	}
	return &faceCache{font: f, faces: map[int]font.Face{}}
}

func (c *faceCache) face(px float64) font.Face {
	size := max(1, int(math.Round(px)))
	if f, ok := c.faces[size]; ok {
		return f
	}
	if c.font == nil {
		return basicfont.Face7x13
	}
	f, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	c.faces[size] = f
	return f
}

// wrap breaks s into lines no wider than width, on spaces where possible.
func wrap(face font.Face, s string, width int) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			next := line + " " + w
			if font.MeasureString(face, next).Ceil() > width {
				lines = append(lines, line)
				line = w
				continue
			}
			line = next
		}
		lines = append(lines, line)
	}
	return lines
}

// textBlock lays text out centered in a w×h pixel box.
type textBlock struct {
	lines   []string
	widths  []int
	lineH   int
	ascent  int
	extentW int
}

func layout(face font.Face, s string, w int) textBlock {
	m := face.Metrics()
	b := textBlock{lines: wrap(face, s, w), lineH: m.Height.Ceil(), ascent: m.Ascent.Ceil()}
	for _, line := range b.lines {
		lw := font.MeasureString(face, line).Ceil()
		b.widths = append(b.widths, lw)
		b.extentW = max(b.extentW, lw)
	}
	return b
}

func (b textBlock) height() int { return b.lineH * len(b.lines) }

// extent is the block's box inside a w×h box.
func (b textBlock) extent(w, h int) image.Rectangle {
	x := (w - b.extentW) / 2
	y := (h - b.height()) / 2
	return image.Rect(x, y, x+b.extentW, y+b.height())
}

func textColor(l layer.Layer) layer.Color {
	if l.Type == layer.Note {
		return l.Fill.ContrastingText()
	}
	return l.Fill
}

func (r *Renderer) textLocked(dst draw.Image, v View, l layer.Layer) {
	w, h := pixelSize(l, v)
	if w == 0 || h == 0 || l.Value == "" {
		return
	}
	vis := visible(dst, v, l, w, h)
	if vis.Empty() {
		return
	}
	face := r.fonts.face(FontSize(l.Width, l.Height) * v.scale())
	block := layout(face, l.Value, w)
	img := image.NewRGBA(vis)
	d := &font.Drawer{Dst: img, Src: image.NewUniform(textColor(l)), Face: face}
	top := block.extent(w, h).Min.Y
	for i, line := range block.lines {
		y := top + i*block.lineH
		if y+block.lineH < vis.Min.Y || y > vis.Max.Y {
			continue
		}
		x := (w - block.widths[i]) / 2
		d.Dot = fixed.P(x, y+block.ascent)
		d.DrawString(line)
	}
	stamp(dst, v, l, img)
}

// textExtent is the box the text of l occupies in its local frame, clipped
// to the layer box.
func (r *Renderer) textExtent(l layer.Layer) (geom.Rect, bool) {
	w, h := pixelSize(l, Identity)
	if l.Value == "" || w == 0 || h == 0 {
		return geom.Rect{}, false
	}
	r.mu.Lock()
	face := r.fonts.face(FontSize(l.Width, l.Height))
	e := layout(face, l.Value, w).extent(w, h).Intersect(image.Rect(0, 0, w, h))
	r.mu.Unlock()
	if e.Empty() {
		return geom.Rect{}, false
	}
	return geom.R(float64(e.Min.X), float64(e.Min.Y), float64(e.Dx()), float64(e.Dy())), true
}
