package render

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"localboard/internal/geom"
	"localboard/internal/layer"
	"localboard/internal/state"
)

func canvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

var red = layer.Color{R: 255}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r > 0xf000 && g < 0x1000 && b < 0x1000
}

func TestMeasureKeepsRotation(t *testing.T) {
	r := New(Options{})
	for _, deg := range []float64{0, 45, 90, 359.5, 360, 450, -90, 725} {
		l := layer.Layer{Type: layer.Rectangle, Width: 40, Height: 20, Rotation: deg}
		m, err := r.Measure(l)
		require.NoError(t, err)
		require.InDelta(t, geom.NormalizeDegrees(deg), m.Rotation, 1e-9, "rotation %v", deg)
	}
}

func TestMeasureRotatedBox(t *testing.T) {
	r := New(Options{})
	m, err := r.Measure(layer.Layer{Type: layer.Rectangle, Width: 100, Height: 50, Rotation: 90})
	require.NoError(t, err)
	require.InDelta(t, 25, m.Bounds.X, 1e-9)
	require.InDelta(t, -25, m.Bounds.Y, 1e-9)
	require.InDelta(t, 50, m.Bounds.Width, 1e-9)
	require.InDelta(t, 100, m.Bounds.Height, 1e-9)
}

func TestMeasureIncludesStrokes(t *testing.T) {
	r := New(Options{})
	line := layer.Spanning(layer.Line, geom.Pt(0, 0), geom.Pt(100, 0), red)
	m, err := r.Measure(line)
	require.NoError(t, err)
	require.InDelta(t, -LineWidth/2, m.Bounds.Y, 1e-9)
	require.InDelta(t, LineWidth, m.Bounds.Height, 1e-9)

	arrow := layer.Spanning(layer.Arrow, geom.Pt(0, 0), geom.Pt(100, 0), red)
	m, err = r.Measure(arrow)
	require.NoError(t, err)
	barb := geom.ArrowheadLength * math.Sin(math.Pi/6)
	require.InDelta(t, -barb, m.Bounds.Y, 1e-9)

	stroke := layer.Layer{Type: layer.Path, X: 10, Y: 10, Points: []geom.Point{{X: 0, Y: 0}, {X: 20, Y: 0}}}
	m, err = r.Measure(stroke)
	require.NoError(t, err)
	require.Less(t, m.Bounds.X, 10.0, "outline reaches past the first sample")
}

func TestMeasureFailures(t *testing.T) {
	r := New(Options{})
	for name, l := range map[string]layer.Layer{
		"empty path": {Type: layer.Path},
		"nan":        {Type: layer.Rectangle, X: math.NaN(), Width: 1, Height: 1},
		"inf point":  {Type: layer.Line, Points: []geom.Point{{X: 0, Y: 0}, {X: math.Inf(1), Y: 0}}},
		"bad type":   {Type: layer.Type(99)},
	} {
		_, err := r.Measure(l)
		require.ErrorIs(t, err, ErrUnmeasurable, name)
	}
}

func TestContentSkipsUnmeasurable(t *testing.T) {
	r := New(Options{})
	entries := []state.Entry{
		{ID: "a", Layer: layer.Layer{Type: layer.Rectangle, X: 10, Y: 10, Width: 10, Height: 10}},
		{ID: "bad", Layer: layer.Layer{Type: layer.Path}},
		{ID: "b", Layer: layer.Layer{Type: layer.Ellipse, X: 50, Y: 0, Width: 10, Height: 10}},
	}
	var skipped []string
	b, ok := r.Content(entries, func(id string, err error) { skipped = append(skipped, id) })
	require.True(t, ok)
	require.Equal(t, []string{"bad"}, skipped)
	require.InDelta(t, 10, b.X, 1e-9)
	require.InDelta(t, 0, b.Y, 1e-6)
	require.InDelta(t, 60, b.Right(), 1e-6)

	_, ok = r.Content(entries[1:2], nil)
	require.False(t, ok)
}

func TestDrawRectangle(t *testing.T) {
	r := New(Options{})
	img := canvas(20, 20)
	require.NoError(t, r.Layer(img, Identity, layer.Layer{Type: layer.Rectangle, X: 5, Y: 5, Width: 10, Height: 10, Fill: red}))
	require.True(t, isRed(img.At(10, 10)))
	require.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(2, 2))
}

func TestDrawRotated(t *testing.T) {
	r := New(Options{})
	img := canvas(20, 20)
	bar := layer.Layer{Type: layer.Rectangle, X: 0, Y: 8, Width: 20, Height: 4, Fill: red, Rotation: 90}
	require.NoError(t, r.Layer(img, Identity, bar))
	require.True(t, isRed(img.At(10, 2)), "quarter turn stands the bar upright")
	require.False(t, isRed(img.At(2, 10)))
}

func TestDrawWithView(t *testing.T) {
	r := New(Options{})
	img := canvas(40, 40)
	v := View{Offset: geom.Pt(10, 10), Scale: 2}
	require.NoError(t, r.Layer(img, v, layer.Layer{Type: layer.Rectangle, Width: 5, Height: 5, Fill: red}))
	require.True(t, isRed(img.At(18, 18)))
	require.False(t, isRed(img.At(22, 22)))
}

func TestDrawNoteText(t *testing.T) {
	r := New(Options{})
	img := canvas(120, 120)
	note := layer.Layer{Type: layer.Note, X: 10, Y: 10, Width: 100, Height: 100, Fill: layer.White, Value: "Hi"}
	require.NoError(t, r.Layer(img, Identity, note))

	dark := 0
	for y := 10; y < 110; y++ {
		for x := 10; x < 110; x++ {
			if c := img.RGBAAt(x, y); c.R < 128 {
				dark++
			}
		}
	}
	require.Positive(t, dark, "contrasting text drawn on a white note")
}

// allocated reports the bytes allocated while f runs.
func allocated(f func()) uint64 {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	f()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

func TestLargeLayersAllocateOnlyWhatShows(t *testing.T) {
	solid := image.NewUniform(red)
	r := New(Options{Images: func(string) (image.Image, error) {
		img := image.NewRGBA(image.Rect(0, 0, 8, 8))
		draw.Draw(img, img.Bounds(), solid, image.Point{}, draw.Src)
		return img, nil
	}})
	zoomed := View{Scale: 3}
	const budget = 4 << 20

	img := canvas(100, 100)
	offscreen := layer.Layer{Type: layer.Note, X: 5000, Y: 5000, Width: 4000, Height: 4000, Fill: layer.White, Value: "far away"}
	n := allocated(func() { require.NoError(t, r.Layer(img, zoomed, offscreen)) })
	require.Less(t, n, uint64(budget), "off-screen note")
	require.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(50, 50))

	corner := layer.Layer{Type: layer.Note, X: -3990, Y: -3990, Width: 4000, Height: 4000, Fill: red, Value: "corner"}
	n = allocated(func() { require.NoError(t, r.Layer(img, zoomed, corner)) })
	require.Less(t, n, uint64(budget), "note reaching into the frame")
	require.True(t, isRed(img.At(5, 5)))

	img = canvas(100, 100)
	picture := layer.Layer{Type: layer.Image, X: -3990, Y: -3990, Width: 4000, Height: 4000, Src: "red.png"}
	n = allocated(func() { require.NoError(t, r.Layer(img, zoomed, picture)) })
	require.Less(t, n, uint64(budget), "image reaching into the frame")
	require.True(t, isRed(img.At(5, 5)))
	require.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(80, 80))
}

func TestFontSize(t *testing.T) {
	require.InDelta(t, 15.0, FontSize(100, 100), 1e-9)
	require.InDelta(t, 7.5, FontSize(50, 200), 1e-9)
	require.InDelta(t, 96.0, FontSize(2000, 1000), 1e-9)
}

func TestTextMeasuresItsGlyphs(t *testing.T) {
	r := New(Options{})
	l := layer.Layer{Type: layer.Text, Width: 400, Height: 200, Value: "ok"}
	m, err := r.Measure(l)
	require.NoError(t, err)
	require.Less(t, m.Bounds.Width, 400.0)
	require.Greater(t, m.Bounds.X, 0.0)
}

func TestDecodeSource(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 3))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	url := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	img, err := DecodeSource(url)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 2, 3), img.Bounds())

	_, err = DecodeSource("data:image/png;base64")
	require.Error(t, err)
}

func TestOverlay(t *testing.T) {
	r := New(Options{})
	img := canvas(50, 50)
	r.Overlay(img, Identity, Overlay{
		Selection:    geom.R(10, 10, 20, 20),
		HasSelection: true,
		Remote:       []Remote{{Color: red, Bounds: geom.R(35, 35, 10, 10), HasBounds: true}},
	})
	// one pixel lines straddle the pixel grid, so only the hue is checked
	sel := img.RGBAAt(20, 10)
	require.Greater(t, sel.B, sel.R)
	remote := img.RGBAAt(40, 35)
	require.Greater(t, remote.R, remote.G)
	require.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(20, 20))
}
