package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ArrowheadLength is the length of each arrowhead barb.
const ArrowheadLength = 15.0

// Arrowhead returns the far ends of the two barbs drawn from tip. The barbs
// sit at ±30° from the shaft running from tail to tip.
func Arrowhead(tail, tip Point, length float64) [2]Point {
	angle := math.Atan2(tip.Y-tail.Y, tip.X-tail.X)
	barb := func(a float64) Point {
		return Point{X: tip.X - length*math.Cos(a), Y: tip.Y - length*math.Sin(a)}
	}
	return [2]Point{barb(angle - math.Pi/6), barb(angle + math.Pi/6)}
}

// Outliner turns raw freehand samples into a closed outline that can be
// filled. Implementations are swappable; the contract is only points in,
// closed polygon out.
type Outliner interface {
	Outline(points []Point) []Point
}

// StrokeOptions is the default Outliner: a velocity-thinned stroke with
// round caps.
type StrokeOptions struct {
	Size       float64 `json:"size"`
	Thinning   float64 `json:"thinning"`
	Smoothing  float64 `json:"smoothing"`
	Streamline float64 `json:"streamline"`
}

// DefaultStrokeOptions matches the pencil tool.
func DefaultStrokeOptions() StrokeOptions {
	return StrokeOptions{Size: 16, Thinning: 0.5, Smoothing: 0.5, Streamline: 0.5}
}

const (
	pressureRate = 0.275
	capSteps     = 8
)

// Outline implements Outliner.
func (o StrokeOptions) Outline(points []Point) []Point {
	pts := o.streamline(points)
	if len(pts) == 0 {
		return nil
	}
	if len(pts) == 1 {
		return circle(pts[0], o.Size/2, 2*capSteps)
	}

	n := len(pts)
	left := make([]Point, n)
	right := make([]Point, n)
	normals := make([]r2.Vec, n)
	pressure := 0.5
	dir := r2.Vec{X: 1}
	for i := range pts {
		if i > 0 {
			speed := math.Min(1, pts[i].Distance(pts[i-1])/o.Size)
			pressure = math.Min(1, pressure+(math.Min(1, 1-speed)-pressure)*(speed*pressureRate))
		}
		prev, next := pts[max(i-1, 0)], pts[min(i+1, n-1)]
		if d := r2.Sub(next.vec(), prev.vec()); r2.Norm(d) > 0 {
			dir = r2.Unit(d)
		}
		normals[i] = r2.Vec{X: -dir.Y, Y: dir.X}
		r := o.radius(pressure)
		off := fromVec(r2.Scale(r, normals[i]))
		left[i] = pts[i].Add(off)
		right[i] = pts[i].Sub(off)
	}

	out := make([]Point, 0, 2*n+2*capSteps)
	out = append(out, left...)
	out = append(out, arc(pts[n-1], left[n-1].Distance(pts[n-1]), normals[n-1], 0)...)
	for i := n - 1; i >= 0; i-- {
		out = append(out, right[i])
	}
	out = append(out, arc(pts[0], left[0].Distance(pts[0]), normals[0], math.Pi)...)
	return out
}

func (o StrokeOptions) radius(pressure float64) float64 {
	r := o.Size * (0.5 - o.Thinning*(0.5-pressure))
	return math.Max(r, 0.5)
}

// streamline eases each sample toward the previous one and drops samples
// closer than the smoothing distance.
func (o StrokeOptions) streamline(points []Point) []Point {
	if len(points) == 0 {
		return nil
	}
	t := 0.15 + (1-o.Streamline)*0.85
	minDist := o.Size * o.Smoothing * 0.1
	out := []Point{points[0]}
	for _, p := range points[1:] {
		last := out[len(out)-1]
		eased := last.Add(p.Sub(last).Scale(t))
		if eased.Distance(last) < minDist {
			continue
		}
		out = append(out, eased)
	}
	if end := points[len(points)-1]; len(points) > 1 && end.Distance(out[len(out)-1]) > 0 {
		out = append(out, end)
	}
	return out
}

// arc returns the interior points of a half circle of radius r about c,
// starting at the direction of normal rotated by phase and sweeping through
// the stroke's forward side.
func arc(c Point, r float64, normal r2.Vec, phase float64) []Point {
	start := math.Atan2(normal.Y, normal.X) + phase
	out := make([]Point, 0, capSteps-1)
	for k := 1; k < capSteps; k++ {
		a := start - float64(k)*math.Pi/capSteps
		out = append(out, Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)})
	}
	return out
}

func circle(c Point, r float64, steps int) []Point {
	out := make([]Point, steps)
	for k := range out {
		a := 2 * math.Pi * float64(k) / float64(steps)
		out[k] = Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	return out
}

// Ellipse approximates the ellipse inscribed in r with a polygon.
func Ellipse(r Rect, steps int) []Point {
	c := r.Center()
	out := make([]Point, steps)
	for k := range out {
		a := 2 * math.Pi * float64(k) / float64(steps)
		out[k] = Point{X: c.X + r.Width/2*math.Cos(a), Y: c.Y + r.Height/2*math.Sin(a)}
	}
	return out
}

// Diamond returns the rhombus inscribed in r, clockwise from the top.
func Diamond(r Rect) []Point {
	c := r.Center()
	return []Point{{c.X, r.Y}, {r.Right(), c.Y}, {c.X, r.Bottom()}, {r.X, c.Y}}
}

// Segment returns the quad covering the line a-b drawn with the given width.
func Segment(a, b Point, width float64) []Point {
	d := b.Sub(a)
	l := math.Hypot(d.X, d.Y)
	if l == 0 {
		h := width / 2
		return []Point{{a.X - h, a.Y - h}, {a.X + h, a.Y - h}, {a.X + h, a.Y + h}, {a.X - h, a.Y + h}}
	}
	n := Point{X: -d.Y / l, Y: d.X / l}.Scale(width / 2)
	return []Point{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}
}

// PointInPolygon is an even-odd containment test.
func PointInPolygon(p Point, poly []Point) bool {
	in := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) && p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}
