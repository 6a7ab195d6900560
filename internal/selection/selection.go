// Package selection tracks the layers a user has chosen and applies bulk
// edits to them: fill, rotation, z-order, delete and duplicate.
package selection

import (
	"fmt"
	"log/slog"
	"slices"

	"localboard/internal/geom"
	"localboard/internal/layer"
	"localboard/internal/state"
)

// DuplicateOffset is how far copies are shifted from their originals.
var DuplicateOffset = geom.Pt(10, 10)

// Manager holds the local selection. Identifiers that no longer exist in the
// store are pruned whenever the selection is read.
type Manager struct {
	store  state.Store
	ids    []string
	logger *slog.Logger
}

func New(store state.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, logger: logger}
}

// IDs returns the live selected identifiers in selection order.
func (m *Manager) IDs() []string {
	m.ids = Prune(m.store.Snapshot(), m.ids)
	return slices.Clone(m.ids)
}

// Set replaces the selection.
func (m *Manager) Set(ids ...string) {
	m.ids = dedupe(ids)
}

func (m *Manager) Clear() { m.ids = nil }

// Contains reports whether id is selected.
func (m *Manager) Contains(id string) bool {
	return slices.Contains(m.ids, id)
}

// Empty reports whether nothing live is selected.
func (m *Manager) Empty() bool { return len(m.IDs()) == 0 }

// Sole returns the only selected layer, if exactly one is selected.
func (m *Manager) Sole() (string, bool) {
	ids := m.IDs()
	if len(ids) != 1 {
		return "", false
	}
	return ids[0], true
}

// Bounds is the union of the selected layers' unrotated boxes in s. ok is
// false when nothing is selected.
func (m *Manager) Bounds(s state.Snapshot) (geom.Rect, bool) {
	return Bounds(s, m.ids)
}

// SetFill colors every selected layer that has a fill and returns how many
// were changed. Layers without a fill are skipped.
func (m *Manager) SetFill(c layer.Color) int {
	n := 0
	for _, id := range m.IDs() {
		l, ok := m.store.Layer(id)
		if !ok || !l.Has(layer.CapFill) {
			continue
		}
		if m.try(m.store.Update(id, layer.WithFill(c)), "fill", id) {
			n++
		}
	}
	return n
}

// Rotate turns every selected layer a quarter turn clockwise.
func (m *Manager) Rotate() {
	for _, id := range m.IDs() {
		l, ok := m.store.Layer(id)
		if !ok {
			continue
		}
		m.try(m.store.Update(id, layer.WithRotation(geom.NormalizeDegrees(l.Rotation+90))), "rotate", id)
	}
}

// BringToFront moves the selection to the top of the order list as a block,
// keeping its relative order.
func (m *Manager) BringToFront() error {
	return m.apply(PlanBringToFront(m.store.Order(), m.IDs()))
}

// SendToBack moves the selection to the bottom of the order list as a block,
// keeping its relative order.
func (m *Manager) SendToBack() error {
	return m.apply(PlanSendToBack(m.store.Order(), m.IDs()))
}

func (m *Manager) apply(plan []Move) error {
	for _, mv := range plan {
		if err := m.store.Move(mv.From, mv.To); err != nil {
			return fmt.Errorf("move %d -> %d: %w", mv.From, mv.To, err)
		}
	}
	return nil
}

// Delete removes every selected layer and clears the selection.
func (m *Manager) Delete() int {
	n := 0
	for _, id := range m.IDs() {
		if m.try(m.store.Delete(id), "delete", id) {
			n++
		}
	}
	m.Clear()
	return n
}

// Duplicate copies the selection on top of the order list, shifted by
// DuplicateOffset, and selects the copies. limit caps the total layer count;
// copies that would exceed it are not made.
func (m *Manager) Duplicate(limit int) []string {
	var copies []string
	count := len(m.store.Order())
	for _, id := range orderedSubset(m.store.Order(), m.IDs()) {
		if limit > 0 && count >= limit {
			m.logger.Info("layer limit reached, duplicate truncated", "limit", limit)
			break
		}
		l, ok := m.store.Layer(id)
		if !ok {
			continue
		}
		nid := layer.NewID()
		if m.try(m.store.Insert(nid, l.Clone().Translate(DuplicateOffset)), "duplicate", id) {
			copies = append(copies, nid)
			count++
		}
	}
	if len(copies) > 0 {
		m.Set(copies...)
	}
	return copies
}

func (m *Manager) try(err error, action, id string) bool {
	if err != nil {
		m.logger.Warn("selection edit skipped", "action", action, "layer", id, "err", err)
		return false
	}
	return true
}

// Prune drops identifiers missing from s.
func Prune(s state.Snapshot, ids []string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := s.Layers[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Bounds is the union of the unrotated boxes of ids in s.
func Bounds(s state.Snapshot, ids []string) (geom.Rect, bool) {
	var rects []geom.Rect
	for _, id := range ids {
		if l, ok := s.Layers[id]; ok {
			rects = append(rects, l.Bounds())
		}
	}
	return geom.Union(rects...)
}

// ToolbarAnchor is the screen point the selection toolbar hangs from: the
// top-center of the selection box.
func ToolbarAnchor(bounds geom.Rect, offset geom.Point, zoom float64) geom.Point {
	return geom.Pt((bounds.X+bounds.Width/2)*zoom+offset.X, bounds.Y*zoom+offset.Y)
}

// Intersecting returns, back to front, the layers whose boxes overlap the
// rectangle spanned by a and b.
func Intersecting(s state.Snapshot, a, b geom.Point) []string {
	net := geom.RectFromPoints(a, b)
	var out []string
	for _, e := range s.Ordered() {
		if net.Intersects(e.Layer.Bounds()) {
			out = append(out, e.ID)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func orderedSubset(order, ids []string) []string {
	var out []string
	for _, id := range order {
		if slices.Contains(ids, id) {
			out = append(out, id)
		}
	}
	return out
}
