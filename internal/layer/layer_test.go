package layer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"localboard/internal/geom"
)

func TestColor(t *testing.T) {
	c := Color{R: 255, G: 128, B: 0}
	require.Equal(t, "#ff8000", c.CSS())
	require.Equal(t, White, Black.ContrastingText())
	require.Equal(t, Black, White.ContrastingText())
	require.Equal(t, Black, Color{R: 255, G: 249, B: 177}.ContrastingText())

	r, g, b, a := c.RGBA()
	require.Equal(t, uint32(0xffff), r)
	require.Equal(t, uint32(0x8080), g)
	require.Equal(t, uint32(0), b)
	require.Equal(t, uint32(0xffff), a)
	require.Equal(t, c, FromColor(c))
}

func TestCapabilities(t *testing.T) {
	require.True(t, Layer{Type: Rectangle}.Has(CapFill))
	require.False(t, Layer{Type: Image}.Has(CapFill))
	require.True(t, Layer{Type: Path}.Has(CapFill|CapPoints))
	require.True(t, Layer{Type: Note}.Has(CapText))
	require.False(t, Layer{Type: Diamond}.Has(CapPoints))
}

func TestApplyNormalizesRotationAndSkipsMissingFields(t *testing.T) {
	img := Layer{Type: Image, Src: "a.png"}
	img = img.Apply(WithFill(Color{R: 1}).Merge(WithRotation(450)))
	require.Equal(t, Color{}, img.Fill, "image layers have no fill")
	require.Equal(t, 90.0, img.Rotation)

	rect := Layer{Type: Rectangle}.Apply(WithRotation(-90))
	require.Equal(t, 270.0, rect.Rotation)
}

func TestCaptureRestores(t *testing.T) {
	before := Layer{Type: Path, X: 1, Y: 2, Width: 3, Height: 4, Points: []geom.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}}
	p := Position(geom.Pt(10, 20)).Merge(Patch{Width: ptr(30.0), Height: ptr(40.0)}).Merge(WithPoints([]geom.Point{{X: 0, Y: 0}}))
	inverse := before.Capture(p.Fields())
	after := before.Apply(p)
	require.Equal(t, geom.R(10, 20, 30, 40), after.Bounds())
	require.Equal(t, before, after.Apply(inverse))
}

func TestPatchValidate(t *testing.T) {
	require.NoError(t, Position(geom.Pt(-5, -5)).Validate())
	require.NoError(t, Patch{Width: ptr(0.0)}.Validate())
	require.Error(t, Patch{Width: ptr(-1.0)}.Validate())
	require.Error(t, Patch{Height: ptr(-0.5)}.Validate())
}

func TestDiff(t *testing.T) {
	a := Layer{Type: Note, X: 1, Value: "a"}
	b := a
	b.Value = "b"
	b.Y = 7
	d := a.Diff(b)
	require.ElementsMatch(t, []Field{FieldY, FieldValue}, d.Fields())
	require.Equal(t, b, a.Apply(d))
	require.True(t, a.Diff(a).Empty())
}

func TestSpanningKeepsDirection(t *testing.T) {
	l := Spanning(Arrow, geom.Pt(50, 10), geom.Pt(10, 40), DefaultFill)
	require.Equal(t, geom.R(10, 10, 40, 30), l.Bounds())
	tail, tip, ok := l.Endpoints()
	require.True(t, ok)
	require.Equal(t, geom.Pt(50, 10), tail)
	require.Equal(t, geom.Pt(10, 40), tip)
}

func TestReshapeMirrorsPoints(t *testing.T) {
	l := Spanning(Line, geom.Pt(0, 0), geom.Pt(100, 50), DefaultFill)
	r := geom.ResizeBounds(l.Bounds(), geom.Right, geom.Pt(-50, 0))
	got := l.Reshape(r)
	require.Equal(t, geom.R(-50, 0, 50, 50), got.Bounds())
	require.Equal(t, []geom.Point{{X: 50, Y: 0}, {X: 0, Y: 50}}, got.Points)
	require.Equal(t, []geom.Point{{X: 0, Y: 0}, {X: 100, Y: 50}}, l.Points, "original untouched")
}

func TestNewDefaults(t *testing.T) {
	n := New(Note, geom.Pt(5, 5), DefaultFill)
	require.Equal(t, geom.R(5, 5, DefaultSize, DefaultSize), n.Bounds())
	r := New(Rectangle, geom.Pt(5, 5), DefaultFill)
	require.Equal(t, geom.R(5, 5, 0, 0), r.Bounds())
	require.NoError(t, r.Validate())
	require.ErrorIs(t, Layer{Type: Type(42)}.Validate(), ErrUnknownType)
}

func TestPatchJSON(t *testing.T) {
	p := Position(geom.Pt(3, 4)).Merge(WithFill(Color{R: 9}))
	data, err := json.Marshal(p)
	require.NoError(t, err)
	require.JSONEq(t, `{"x":3,"y":4,"fill":{"r":9,"g":0,"b":0}}`, string(data))

	var back Patch
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, p.Fields(), back.Fields())
}

func TestIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := NewID()
		require.False(t, seen[id])
		seen[id] = true
	}
}
