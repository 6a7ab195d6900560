package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	if d == 360 || d == 0 {
		return 0
	}
	return d
}

// Transform is the placement of a layer: translate to Origin, then rotate by
// Rotation degrees about the center of a Size box in the local frame. It is
// the structured form of "translate(x, y) rotate(r, w/2, h/2)" and carries
// no renderer-specific state.
type Transform struct {
	Origin   Point
	Size     Point
	Rotation float64
}

// TransformOf returns the placement transform of a box rotated by deg.
func TransformOf(r Rect, deg float64) Transform {
	return Transform{Origin: r.Min(), Size: Pt(r.Width, r.Height), Rotation: NormalizeDegrees(deg)}
}

func (t Transform) pivot() Point {
	return t.Size.Scale(0.5)
}

func (t Transform) radians() float64 {
	return t.Rotation * math.Pi / 180
}

// Apply maps a point from the layer's local unrotated frame into canvas
// space.
func (t Transform) Apply(local Point) Point {
	rotated := fromVec(r2.Rotate(local.vec(), t.radians(), t.pivot().vec()))
	return rotated.Add(t.Origin)
}

// Invert maps a canvas point back into the local unrotated frame. Hit tests
// and resize math run on the result.
func (t Transform) Invert(canvas Point) Point {
	local := canvas.Sub(t.Origin)
	return fromVec(r2.Rotate(local.vec(), -t.radians(), t.pivot().vec()))
}

// ApplyAll maps every point through Apply.
func (t Transform) ApplyAll(local []Point) []Point {
	out := make([]Point, len(local))
	for i, p := range local {
		out[i] = t.Apply(p)
	}
	return out
}

// Matrix returns the affine form [a b c; d e f] of the transform, row-major,
// mapping local (x, y) to canvas (a*x+b*y+c, d*x+e*y+f).
func (t Transform) Matrix() [6]float64 {
	sin, cos := math.Sincos(t.radians())
	p := t.pivot()
	// rotate about pivot: R*(v-p)+p, then translate by origin
	c := p.X - cos*p.X + sin*p.Y + t.Origin.X
	f := p.Y - sin*p.X - cos*p.Y + t.Origin.Y
	return [6]float64{cos, -sin, c, sin, cos, f}
}

// Bounds returns the axis-aligned box of the rotated local box.
func (t Transform) Bounds() Rect {
	local := Rect{Width: t.Size.X, Height: t.Size.Y}
	corners := local.Corners()
	b, _ := BoundsOf(t.ApplyAll(corners[:]))
	return b
}
