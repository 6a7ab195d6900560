package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"localboard/internal/geom"
	"localboard/internal/layer"
	"localboard/internal/state"
)

// Measured is what a drawn layer covers on the canvas.
type Measured struct {
	// Bounds is the axis-aligned box of the drawn pixels' outline, rotation
	// and stroke widths included.
	Bounds geom.Rect
	// Rotation is the rotation the layer was drawn with, in [0, 360).
	Rotation float64
}

// Measure returns the drawn extent of l. It fails with ErrUnmeasurable for
// layers that draw nothing measurable.
func (r *Renderer) Measure(l layer.Layer) (Measured, error) {
	if err := checkFinite(l); err != nil {
		return Measured{}, fmt.Errorf("%s: %w", l.Type, err)
	}
	if l.Type == layer.Path && len(l.Points) == 0 {
		return Measured{}, fmt.Errorf("path without points: %w", ErrUnmeasurable)
	}

	var local []geom.Point
	if l.Type == layer.Text {
		if e, ok := r.textExtent(l); ok {
			local = corners(e)
		} else {
			local = corners(geom.R(0, 0, l.Width, l.Height))
		}
	} else {
		r.mu.Lock()
		shapes := r.shapes(l)
		r.mu.Unlock()
		for _, s := range shapes {
			local = append(local, s.poly...)
		}
	}

	tr := l.Transform()
	b, ok := geom.BoundsOf(tr.ApplyAll(local))
	if !ok {
		return Measured{}, fmt.Errorf("%s draws nothing: %w", l.Type, ErrUnmeasurable)
	}
	return Measured{Bounds: b, Rotation: tr.Rotation}, nil
}

// Content unions the drawn extents of entries. Layers that cannot be
// measured are reported through skip and left out. ok is false when nothing
// could be measured.
func (r *Renderer) Content(entries []state.Entry, skip func(id string, err error)) (geom.Rect, bool) {
	var rects []geom.Rect
	for _, e := range entries {
		m, err := r.Measure(e.Layer)
		if err != nil {
			if skip != nil {
				skip(e.ID, err)
			}
			continue
		}
		rects = append(rects, m.Bounds)
	}
	return geom.Union(rects...)
}

// DecodeSource loads an image layer's source: a base64 data URL or a path
// on disk.
func DecodeSource(src string) (image.Image, error) {
	var data []byte
	if rest, ok := strings.CutPrefix(src, "data:"); ok {
		_, payload, found := strings.Cut(rest, ",")
		if !found {
			return nil, errors.New("malformed data url")
		}
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("data url: %w", err)
		}
		data = b
	} else {
		b, err := os.ReadFile(src)
		if err != nil {
			return nil, err
		}
		data = b
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
