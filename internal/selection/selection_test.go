package selection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"localboard/internal/geom"
	"localboard/internal/layer"
	"localboard/internal/state"
)

func newBoard(t *testing.T, ids ...string) *state.Board {
	t.Helper()
	b := state.NewBoard(nil)
	for i, id := range ids {
		require.NoError(t, b.Insert(id, layer.Layer{Type: layer.Rectangle, X: float64(i * 100), Y: 0, Width: 50, Height: 50}))
	}
	return b
}

func TestPlans(t *testing.T) {
	order := []string{"A", "B", "C", "D"}
	tests := []struct {
		name  string
		plan  func([]string, []string) []Move
		ids   []string
		want  []string
		moves int
	}{
		{"back B D", PlanSendToBack, []string{"B", "D"}, []string{"B", "D", "A", "C"}, 2},
		{"front A C", PlanBringToFront, []string{"C", "A"}, []string{"B", "D", "A", "C"}, 2},
		{"front already front", PlanBringToFront, []string{"C", "D"}, order, 0},
		{"back already back", PlanSendToBack, []string{"A"}, order, 0},
		{"front all", PlanBringToFront, order, order, 0},
		{"none", PlanBringToFront, nil, order, 0},
		{"unknown ids ignored", PlanSendToBack, []string{"X", "C"}, []string{"C", "A", "B", "D"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := tt.plan(order, tt.ids)
			require.Len(t, plan, tt.moves)
			require.Equal(t, tt.want, ApplyPlan(order, plan))
		})
	}
}

func TestBringToFrontPreservesRelativeOrder(t *testing.T) {
	order := []string{"a", "x", "b", "y", "z", "c", "w"}
	got := ApplyPlan(order, PlanBringToFront(order, []string{"c", "a", "b"}))
	require.Equal(t, []string{"x", "y", "z", "w", "a", "b", "c"}, got)
}

func TestManagerZOrderAgainstStore(t *testing.T) {
	b := newBoard(t, "A", "B", "C", "D")
	m := New(b, nil)

	m.Set("B", "D")
	require.NoError(t, m.SendToBack())
	require.Equal(t, []string{"B", "D", "A", "C"}, b.Order())

	m.Set("A", "B")
	require.NoError(t, m.BringToFront())
	first := b.Order()
	require.Equal(t, []string{"D", "C", "B", "A"}, first)
	require.NoError(t, m.BringToFront())
	require.Equal(t, first, b.Order(), "bring-to-front is idempotent")
}

func TestBoundsAndAnchor(t *testing.T) {
	b := newBoard(t, "A", "B")
	m := New(b, nil)
	_, ok := m.Bounds(b.Snapshot())
	require.False(t, ok, "empty selection has no bounds")

	m.Set("A", "B")
	bounds, ok := m.Bounds(b.Snapshot())
	require.True(t, ok)
	require.Equal(t, geom.R(0, 0, 150, 50), bounds)

	anchor := ToolbarAnchor(bounds, geom.Pt(10, 20), 1)
	require.Equal(t, geom.Pt(85, 20), anchor)
}

func TestStaleIDsArePruned(t *testing.T) {
	b := newBoard(t, "A", "B")
	m := New(b, nil)
	m.Set("A", "B", "A")
	require.Equal(t, []string{"A", "B"}, m.IDs())

	require.NoError(t, b.Delete("A"))
	require.Equal(t, []string{"B"}, m.IDs())
	id, ok := m.Sole()
	require.True(t, ok)
	require.Equal(t, "B", id)
}

func TestSetFillSkipsLayersWithoutFill(t *testing.T) {
	b := newBoard(t, "A")
	require.NoError(t, b.Insert("img", layer.Layer{Type: layer.Image, Width: 10, Height: 10, Src: "x"}))
	m := New(b, nil)
	m.Set("A", "img")

	red := layer.Color{R: 255}
	require.Equal(t, 1, m.SetFill(red))
	l, _ := b.Layer("A")
	require.Equal(t, red, l.Fill)
}

func TestRotateWraps(t *testing.T) {
	b := state.NewBoard(nil)
	require.NoError(t, b.Insert("r", layer.Layer{Type: layer.Rectangle, X: 10, Y: 10, Width: 50, Height: 30}))
	m := New(b, nil)
	m.Set("r")

	want := []float64{90, 180, 270, 0}
	for _, w := range want {
		m.Rotate()
		l, _ := b.Layer("r")
		require.Equal(t, w, l.Rotation)
	}
}

func TestDeleteAndDuplicate(t *testing.T) {
	b := newBoard(t, "A", "B", "C")
	m := New(b, nil)
	m.Set("C", "A")

	copies := m.Duplicate(0)
	require.Len(t, copies, 2)
	require.Equal(t, copies, m.IDs(), "selection moves to the copies")
	order := b.Order()
	require.Equal(t, copies, order[3:])
	cp, _ := b.Layer(copies[0])
	require.Equal(t, 10.0, cp.X, "copy of A shifted")

	require.Len(t, m.Duplicate(6), 1, "limit stops the second copy")

	m.Set("A", "B")
	require.Equal(t, 2, m.Delete())
	require.True(t, m.Empty())
	_, ok := b.Layer("A")
	require.False(t, ok)
	require.NotContains(t, b.Order(), "A")
}

func TestIntersecting(t *testing.T) {
	b := newBoard(t, "A", "B", "C")
	got := Intersecting(b.Snapshot(), geom.Pt(160, 60), geom.Pt(40, 10))
	require.Equal(t, []string{"A", "B"}, got)
}
