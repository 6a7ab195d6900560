package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func TestUnion(t *testing.T) {
	_, ok := Union()
	require.False(t, ok, "empty union must be absent")

	u, ok := Union(R(10, 10, 50, 30), R(-5, 20, 10, 100), R(40, 0, 5, 5))
	require.True(t, ok)
	require.Equal(t, R(-5, 0, 65, 120), u)
}

func TestBoundsOf(t *testing.T) {
	_, ok := BoundsOf(nil)
	require.False(t, ok)

	b, ok := BoundsOf([]Point{{3, 4}, {-1, 10}, {7, 2}})
	require.True(t, ok)
	require.Equal(t, R(-1, 2, 8, 8), b)
}

func TestIntersects(t *testing.T) {
	box := R(0, 0, 10, 10)
	require.True(t, box.Intersects(R(5, 5, 10, 10)))
	require.False(t, box.Intersects(R(10, 0, 5, 5)), "touching edges do not intersect")
	require.False(t, box.Intersects(R(20, 20, 1, 1)))
}

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0}, {90, 90}, {360, 0}, {450, 90}, {-90, 270}, {-720, 0}, {1080.5, 0.5},
	}
	for _, tt := range tests {
		require.InDelta(t, tt.want, NormalizeDegrees(tt.in), eps, "in=%v", tt.in)
	}
}

func TestTransformRoundTrip(t *testing.T) {
	tr := TransformOf(R(10, 20, 40, 60), 37)
	for _, p := range []Point{{0, 0}, {40, 60}, {13, -7}, {20, 30}} {
		back := tr.Invert(tr.Apply(p))
		require.InDelta(t, p.X, back.X, eps)
		require.InDelta(t, p.Y, back.Y, eps)
	}
}

func TestTransformPivotIsCenter(t *testing.T) {
	tr := TransformOf(R(10, 20, 40, 60), 90)
	c := tr.Apply(Pt(20, 30))
	require.InDelta(t, 30.0, c.X, eps)
	require.InDelta(t, 50.0, c.Y, eps)

	// top-left corner swings to the top-right under a quarter turn
	tl := tr.Apply(Pt(0, 0))
	require.InDelta(t, 60.0, tl.X, eps)
	require.InDelta(t, 30.0, tl.Y, eps)
}

func TestTransformMatrixMatchesApply(t *testing.T) {
	tr := TransformOf(R(-4, 9, 25, 12), 212)
	m := tr.Matrix()
	for _, p := range []Point{{0, 0}, {25, 12}, {3, 8}} {
		want := tr.Apply(p)
		require.InDelta(t, want.X, m[0]*p.X+m[1]*p.Y+m[2], eps)
		require.InDelta(t, want.Y, m[3]*p.X+m[4]*p.Y+m[5], eps)
	}
}

func TestTransformBounds(t *testing.T) {
	b := TransformOf(R(0, 0, 100, 20), 90).Bounds()
	require.InDelta(t, 40.0, b.X, eps)
	require.InDelta(t, -40.0, b.Y, eps)
	require.InDelta(t, 20.0, b.Width, eps)
	require.InDelta(t, 100.0, b.Height, eps)
}

func TestResizeBottomRight(t *testing.T) {
	init := R(0, 0, 100, 100)
	got := ResizeBounds(init, Bottom|Right, Pt(80, 90))
	require.Equal(t, R(0, 0, 80, 90), got.Bounds)
	require.False(t, got.FlipX)
	require.False(t, got.FlipY)
}

func TestResizeKeepsOppositeCornerFixed(t *testing.T) {
	init := R(10, 20, 100, 50)
	fixedOf := map[Side]func(Rect) Point{
		Top | Left:     func(r Rect) Point { return r.Max() },
		Top | Right:    func(r Rect) Point { return Pt(r.X, r.Bottom()) },
		Bottom | Left:  func(r Rect) Point { return Pt(r.Right(), r.Y) },
		Bottom | Right: func(r Rect) Point { return r.Min() },
	}
	for corner, fixed := range fixedOf {
		want := fixed(init)
		for _, dx := range []float64{-300, -100, -1, 0, 0.5, 37, 250} {
			for _, dy := range []float64{-200, -50, 0, 3, 120} {
				p := Pt(want.X+dx, want.Y+dy)
				got := ResizeBounds(init, corner, p).Bounds
				corners := got.Corners()
				require.Contains(t, corners[:], want, "corner=%v p=%v", corner, p)
				require.GreaterOrEqual(t, got.Width, MinExtent)
				require.GreaterOrEqual(t, got.Height, MinExtent)
			}
		}
	}
}

func TestResizeFlip(t *testing.T) {
	init := R(0, 0, 100, 100)
	got := ResizeBounds(init, Right, Pt(-30, 500))
	require.Equal(t, R(-30, 0, 30, 100), got.Bounds)
	require.True(t, got.FlipX)
	require.False(t, got.FlipY, "vertical extent untouched by a side handle")

	got = ResizeBounds(init, Top|Left, Pt(150, 120))
	require.Equal(t, R(100, 100, 50, 20), got.Bounds)
	require.True(t, got.FlipX)
	require.True(t, got.FlipY)
}

func TestResizeClampsToMinimum(t *testing.T) {
	got := ResizeBounds(R(0, 0, 100, 100), Left, Pt(100, 0))
	require.Equal(t, R(100-MinExtent, 0, MinExtent, 100), got.Bounds)
}

func TestArrowhead(t *testing.T) {
	barbs := Arrowhead(Pt(0, 0), Pt(100, 0), ArrowheadLength)
	for _, b := range barbs {
		require.InDelta(t, ArrowheadLength, b.Distance(Pt(100, 0)), eps)
		require.Less(t, b.X, 100.0)
	}
	require.InDelta(t, -barbs[0].Y, barbs[1].Y, eps)
	angle := math.Atan2(barbs[1].Y, 100-barbs[1].X)
	require.InDelta(t, math.Pi/6, math.Abs(angle), eps)
}

func TestOutlineEnclosesSamples(t *testing.T) {
	opts := DefaultStrokeOptions()
	samples := []Point{{0, 0}, {10, 2}, {20, 5}, {30, 5}, {40, 0}}
	outline := opts.Outline(samples)
	require.Greater(t, len(outline), 2*len(samples))

	b, ok := BoundsOf(outline)
	require.True(t, ok)
	for _, s := range samples {
		require.True(t, b.Contains(s))
	}
	require.True(t, PointInPolygon(Pt(20, 4), outline))
	require.False(t, PointInPolygon(Pt(20, 40), outline))
}

func TestOutlineSinglePoint(t *testing.T) {
	outline := DefaultStrokeOptions().Outline([]Point{{5, 5}})
	b, ok := BoundsOf(outline)
	require.True(t, ok)
	require.InDelta(t, 16.0, b.Width, 1e-6)
	require.Nil(t, DefaultStrokeOptions().Outline(nil))
}

func TestPointInPolygon(t *testing.T) {
	d := Diamond(R(0, 0, 10, 10))
	require.True(t, PointInPolygon(Pt(5, 5), d))
	require.False(t, PointInPolygon(Pt(0.5, 0.5), d))
}
