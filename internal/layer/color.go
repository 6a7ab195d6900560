package layer

import (
	"fmt"
	"image/color"
)

// Color is an opaque 8-bit RGB color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
)

// DefaultFill is the fill of new layers before any color is picked.
var DefaultFill = Color{R: 0, G: 0, B: 0}

// RGBA implements color.Color; the alpha channel is always opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

// CSS returns the #rrggbb form.
func (c Color) CSS() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string { return c.CSS() }

// ContrastingText returns black on light fills and white on dark ones.
func (c Color) ContrastingText() Color {
	luminance := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	if luminance > 182 {
		return Black
	}
	return White
}

// FromColor converts any color.Color, dropping alpha.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B}
}

// Palette is the color picker offered by the selection tools.
var Palette = []Color{
	{R: 243, G: 82, B: 35},
	{R: 255, G: 249, B: 177},
	{R: 68, G: 202, B: 99},
	{R: 39, G: 142, B: 237},
	{R: 155, G: 105, B: 245},
	{R: 252, G: 142, B: 42},
	{R: 0, G: 0, B: 0},
	{R: 255, G: 255, B: 255},
}

var connectionColors = []Color{
	{R: 0xDC, G: 0x26, B: 0x26},
	{R: 0xD9, G: 0x77, B: 0x06},
	{R: 0x05, G: 0x96, B: 0x69},
	{R: 0x7C, G: 0x3A, B: 0xED},
	{R: 0xDB, G: 0x27, B: 0x77},
}

// ConnectionColor picks the outline color for another participant.
func ConnectionColor(connection int) Color {
	if connection < 0 {
		connection = -connection
	}
	return connectionColors[connection%len(connectionColors)]
}
