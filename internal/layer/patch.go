package layer

import (
	"errors"

	"localboard/internal/geom"
)

// Field names one independently replicated attribute of a layer. Concurrent
// writes to different fields both survive; writes to the same field resolve
// last-writer-wins.
type Field uint8

const (
	FieldX Field = iota
	FieldY
	FieldWidth
	FieldHeight
	FieldFill
	FieldRotation
	FieldValue
	FieldPoints
	FieldSrc
	numFields
)

// AllFields lists every field in declaration order.
var AllFields = func() []Field {
	out := make([]Field, numFields)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}()

var fieldNames = [...]string{"x", "y", "width", "height", "fill", "rotation", "value", "points", "src"}

func (f Field) String() string {
	if int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return "field?"
}

// Patch is a partial update. Nil fields are left alone.
type Patch struct {
	X        *float64      `json:"x,omitempty"`
	Y        *float64      `json:"y,omitempty"`
	Width    *float64      `json:"width,omitempty"`
	Height   *float64      `json:"height,omitempty"`
	Fill     *Color        `json:"fill,omitempty"`
	Rotation *float64      `json:"rotation,omitempty"`
	Value    *string       `json:"value,omitempty"`
	Points   *[]geom.Point `json:"points,omitempty"`
	Src      *string       `json:"src,omitempty"`
}

func ptr[T any](v T) *T { return &v }

// Position patches x and y.
func Position(p geom.Point) Patch {
	return Patch{X: ptr(p.X), Y: ptr(p.Y)}
}

// WithFill patches the fill color.
func WithFill(c Color) Patch { return Patch{Fill: ptr(c)} }

// WithRotation patches the rotation.
func WithRotation(deg float64) Patch { return Patch{Rotation: ptr(deg)} }

// WithValue patches the text content.
func WithValue(s string) Patch { return Patch{Value: ptr(s)} }

// WithPoints patches the points.
func WithPoints(pts []geom.Point) Patch {
	return Patch{Points: ptr(append([]geom.Point(nil), pts...))}
}

// Validate rejects patches that would give a layer a negative extent.
func (p Patch) Validate() error {
	if (p.Width != nil && *p.Width < 0) || (p.Height != nil && *p.Height < 0) {
		return errors.New("negative extent in patch")
	}
	return nil
}

// Merge returns p with every field set in o overriding it.
func (p Patch) Merge(o Patch) Patch {
	for _, f := range o.Fields() {
		p = p.copyField(o, f)
	}
	return p
}

// Has reports whether f is set.
func (p Patch) Has(f Field) bool {
	switch f {
	case FieldX:
		return p.X != nil
	case FieldY:
		return p.Y != nil
	case FieldWidth:
		return p.Width != nil
	case FieldHeight:
		return p.Height != nil
	case FieldFill:
		return p.Fill != nil
	case FieldRotation:
		return p.Rotation != nil
	case FieldValue:
		return p.Value != nil
	case FieldPoints:
		return p.Points != nil
	case FieldSrc:
		return p.Src != nil
	}
	return false
}

// Fields lists the fields set in p.
func (p Patch) Fields() []Field {
	var out []Field
	for _, f := range AllFields {
		if p.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Empty reports whether p sets nothing.
func (p Patch) Empty() bool { return len(p.Fields()) == 0 }

// Only returns the part of p touching f.
func (p Patch) Only(f Field) Patch {
	return Patch{}.copyField(p, f)
}

func (p Patch) copyField(src Patch, f Field) Patch {
	switch f {
	case FieldX:
		p.X = src.X
	case FieldY:
		p.Y = src.Y
	case FieldWidth:
		p.Width = src.Width
	case FieldHeight:
		p.Height = src.Height
	case FieldFill:
		p.Fill = src.Fill
	case FieldRotation:
		p.Rotation = src.Rotation
	case FieldValue:
		p.Value = src.Value
	case FieldPoints:
		p.Points = src.Points
	case FieldSrc:
		p.Src = src.Src
	}
	return p
}

// Apply returns l with p written over it. Rotation is stored modulo 360 and
// fields the variant lacks are ignored.
func (l Layer) Apply(p Patch) Layer {
	if p.X != nil {
		l.X = *p.X
	}
	if p.Y != nil {
		l.Y = *p.Y
	}
	if p.Width != nil {
		l.Width = *p.Width
	}
	if p.Height != nil {
		l.Height = *p.Height
	}
	if p.Fill != nil && l.Has(CapFill) {
		l.Fill = *p.Fill
	}
	if p.Rotation != nil {
		l.Rotation = geom.NormalizeDegrees(*p.Rotation)
	}
	if p.Value != nil {
		l.Value = *p.Value
	}
	if p.Points != nil && l.Has(CapPoints) {
		l.Points = append([]geom.Point(nil), (*p.Points)...)
	}
	if p.Src != nil && l.Has(CapSource) {
		l.Src = *p.Src
	}
	return l
}

// Capture returns a patch holding l's current values of fields. Applying it
// later restores those fields, which is how inverse patches are built.
func (l Layer) Capture(fields []Field) Patch {
	var p Patch
	for _, f := range fields {
		switch f {
		case FieldX:
			p.X = ptr(l.X)
		case FieldY:
			p.Y = ptr(l.Y)
		case FieldWidth:
			p.Width = ptr(l.Width)
		case FieldHeight:
			p.Height = ptr(l.Height)
		case FieldFill:
			p.Fill = ptr(l.Fill)
		case FieldRotation:
			p.Rotation = ptr(l.Rotation)
		case FieldValue:
			p.Value = ptr(l.Value)
		case FieldPoints:
			pts := append([]geom.Point(nil), l.Points...)
			p.Points = &pts
		case FieldSrc:
			p.Src = ptr(l.Src)
		}
	}
	return p
}

// Diff returns the patch turning l into o, restricted to fields that differ.
func (l Layer) Diff(o Layer) Patch {
	full := o.Capture(AllFields)
	var p Patch
	cur := l.Capture(AllFields)
	for _, f := range AllFields {
		if !fieldEqual(cur, full, f) {
			p = p.copyField(full, f)
		}
	}
	return p
}

func fieldEqual(a, b Patch, f Field) bool {
	switch f {
	case FieldX:
		return *a.X == *b.X
	case FieldY:
		return *a.Y == *b.Y
	case FieldWidth:
		return *a.Width == *b.Width
	case FieldHeight:
		return *a.Height == *b.Height
	case FieldFill:
		return *a.Fill == *b.Fill
	case FieldRotation:
		return *a.Rotation == *b.Rotation
	case FieldValue:
		return *a.Value == *b.Value
	case FieldPoints:
		pa, pb := *a.Points, *b.Points
		if len(pa) != len(pb) {
			return false
		}
		for i := range pa {
			if pa[i] != pb[i] {
				return false
			}
		}
		return true
	case FieldSrc:
		return *a.Src == *b.Src
	}
	return true
}
