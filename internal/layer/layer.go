// Package layer defines the shapes placed on a board and the field-level
// patches the shared store applies to them.
package layer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"localboard/internal/geom"
)

// Type discriminates the layer variants.
type Type int

const (
	Rectangle Type = iota
	Ellipse
	Path
	Text
	Note
	Line
	Arrow
	Diamond
	Image
)

var typeNames = map[Type]string{
	Rectangle: "rectangle",
	Ellipse:   "ellipse",
	Path:      "path",
	Text:      "text",
	Note:      "note",
	Line:      "line",
	Arrow:     "arrow",
	Diamond:   "diamond",
	Image:     "image",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Valid reports whether t is a known variant.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// Instant types are placed by a single click; the rest are sized by a drag.
func (t Type) Instant() bool {
	return t == Note || t == Text
}

// Capability names an optional attribute of a variant.
type Capability uint8

const (
	CapFill Capability = 1 << iota
	CapPoints
	CapText
	CapSource
)

var caps = map[Type]Capability{
	Rectangle: CapFill,
	Ellipse:   CapFill,
	Diamond:   CapFill,
	Path:      CapFill | CapPoints,
	Line:      CapFill | CapPoints,
	Arrow:     CapFill | CapPoints,
	Text:      CapFill | CapText,
	Note:      CapFill | CapText,
	Image:     CapSource,
}

// Caps returns the capabilities of a variant.
func (t Type) Caps() Capability { return caps[t] }

var ErrUnknownType = errors.New("unknown layer type")

// MaxLayers is the default cap on layers per board.
const MaxLayers = 100

// DefaultSize is the extent of click-placed layers.
const DefaultSize = 100.0

// Layer is one placed shape. Points are in the layer's local frame:
// freehand samples for paths, the tail and tip for lines and arrows.
type Layer struct {
	Type     Type         `json:"type"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	Fill     Color        `json:"fill"`
	Rotation float64      `json:"rotation,omitempty"`
	Value    string       `json:"value,omitempty"`
	Points   []geom.Point `json:"points,omitempty"`
	Src      string       `json:"src,omitempty"`
}

// NewID returns a fresh layer identifier. Identifiers are never reused.
func NewID() string {
	return uuid.NewString()
}

// Has reports whether the layer's variant carries capability c.
func (l Layer) Has(c Capability) bool {
	return l.Type.Caps()&c == c
}

// Validate rejects layers no renderer could draw.
func (l Layer) Validate() error {
	if !l.Type.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownType, int(l.Type))
	}
	if l.Width < 0 || l.Height < 0 {
		return fmt.Errorf("negative extent %vx%v", l.Width, l.Height)
	}
	return nil
}

// Bounds returns the unrotated box.
func (l Layer) Bounds() geom.Rect {
	return geom.R(l.X, l.Y, l.Width, l.Height)
}

// Transform places the local frame on the canvas, rotating about the center.
func (l Layer) Transform() geom.Transform {
	return geom.TransformOf(l.Bounds(), l.Rotation)
}

// Clone returns a deep copy.
func (l Layer) Clone() Layer {
	if l.Points != nil {
		l.Points = append([]geom.Point(nil), l.Points...)
	}
	return l
}

// Translate moves the layer by d.
func (l Layer) Translate(d geom.Point) Layer {
	l.X += d.X
	l.Y += d.Y
	return l
}

// Reshape moves the layer into new bounds, scaling and mirroring its points.
func (l Layer) Reshape(r geom.Resized) Layer {
	old := l.Bounds()
	nb := r.Bounds
	if l.Has(CapPoints) && len(l.Points) > 0 {
		sx, sy := 1.0, 1.0
		if old.Width > 0 {
			sx = nb.Width / old.Width
		}
		if old.Height > 0 {
			sy = nb.Height / old.Height
		}
		pts := make([]geom.Point, len(l.Points))
		for i, p := range l.Points {
			x, y := p.X*sx, p.Y*sy
			if r.FlipX {
				x = nb.Width - x
			}
			if r.FlipY {
				y = nb.Height - y
			}
			pts[i] = geom.Pt(x, y)
		}
		l.Points = pts
	}
	l.X, l.Y, l.Width, l.Height = nb.X, nb.Y, nb.Width, nb.Height
	return l
}

// New returns a layer of type t with its top-left at p. Drag-sized types
// start with zero extent; instant types get the default size.
func New(t Type, p geom.Point, fill Color) Layer {
	l := Layer{Type: t, X: p.X, Y: p.Y, Fill: fill}
	if t.Instant() {
		l.Width, l.Height = DefaultSize, DefaultSize
	}
	if t == Line || t == Arrow {
		l.Points = []geom.Point{{}, {}}
	}
	return l
}

// Spanning returns a drag-sized layer of type t between origin and p.
// Lines and arrows keep the drag direction in their points.
func Spanning(t Type, origin, p geom.Point, fill Color) Layer {
	b := geom.RectFromPoints(origin, p)
	l := Layer{Type: t, X: b.X, Y: b.Y, Width: b.Width, Height: b.Height, Fill: fill}
	if t == Line || t == Arrow {
		l.Points = []geom.Point{origin.Sub(b.Min()), p.Sub(b.Min())}
	}
	return l
}

// Endpoints returns the canvas-space tail and tip of a line or arrow.
func (l Layer) Endpoints() (tail, tip geom.Point, ok bool) {
	if (l.Type != Line && l.Type != Arrow) || len(l.Points) < 2 {
		return geom.Point{}, geom.Point{}, false
	}
	tr := l.Transform()
	return tr.Apply(l.Points[0]), tr.Apply(l.Points[1]), true
}
