package state

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"localboard/internal/geom"
	"localboard/internal/layer"
)

func rect(x, y float64) layer.Layer {
	return layer.Layer{Type: layer.Rectangle, X: x, Y: y, Width: 10, Height: 10}
}

func seed(t *testing.T, b *Board, ids ...string) {
	t.Helper()
	for i, id := range ids {
		require.NoError(t, b.Insert(id, rect(float64(i*20), 0)))
	}
}

func TestInsertDeleteKeepsMappingAndOrderInStep(t *testing.T) {
	b := NewBoard(nil)
	seed(t, b, "a", "b", "c")
	require.Equal(t, []string{"a", "b", "c"}, b.Order())

	require.NoError(t, b.Delete("b"))
	s := b.Snapshot()
	require.Equal(t, []string{"a", "c"}, s.Order)
	require.Len(t, s.Layers, 2)
	require.NoError(t, s.Validate())

	require.ErrorIs(t, b.Delete("b"), ErrUnknownLayer)
	require.ErrorIs(t, b.Insert("a", rect(0, 0)), ErrLayerExists)
	require.ErrorIs(t, b.Update("zz", layer.WithValue("x")), ErrUnknownLayer)
}

func TestMove(t *testing.T) {
	b := NewBoard(nil)
	seed(t, b, "a", "b", "c", "d")
	require.NoError(t, b.Move(0, 3))
	require.Equal(t, []string{"b", "c", "d", "a"}, b.Order())
	require.NoError(t, b.Move(2, 0))
	require.Equal(t, []string{"d", "b", "c", "a"}, b.Order())
	require.ErrorIs(t, b.Move(0, 4), ErrIndexOutOfRange)
}

func TestUndoRestoresExactPriorState(t *testing.T) {
	b := NewBoard(nil)
	seed(t, b, "a", "b", "c", "d")
	before := b.Snapshot()

	b.Batch(func() {
		require.NoError(t, b.Update("a", layer.Position(geom.Pt(500, 500))))
		require.NoError(t, b.Move(0, 3))
		require.NoError(t, b.Delete("c"))
		require.NoError(t, b.Update("b", layer.WithRotation(90)))
	})
	require.NotEqual(t, before, b.Snapshot())

	b.Undo()
	require.Equal(t, before, b.Snapshot())

	b.Redo()
	after := b.Snapshot()
	require.Equal(t, []string{"b", "d", "a"}, after.Order)
	require.Equal(t, 500.0, after.Layers["a"].X)

	b.Undo()
	require.Equal(t, before, b.Snapshot())
}

func TestBatchIsOneUndoStep(t *testing.T) {
	b := NewBoard(nil)
	seed(t, b, "a")
	b.Batch(func() {
		for i := 0; i < 5; i++ {
			require.NoError(t, b.Update("a", layer.Position(geom.Pt(float64(i), 0))))
		}
	})
	b.Undo()
	l, _ := b.Layer("a")
	require.Equal(t, 0.0, l.X)
	b.Undo()
	_, ok := b.Layer("a")
	require.False(t, ok, "second undo removes the insert")
	require.False(t, b.CanUndo())
	require.True(t, b.CanRedo())
}

func TestNewActionClearsRedo(t *testing.T) {
	b := NewBoard(nil)
	seed(t, b, "a")
	require.NoError(t, b.Update("a", layer.WithValue("x")))
	b.Undo()
	require.True(t, b.CanRedo())
	require.NoError(t, b.Update("a", layer.WithValue("y")))
	require.False(t, b.CanRedo())
}

func TestSubscribeOncePerBatch(t *testing.T) {
	b := NewBoard(nil)
	var got []Snapshot
	cancel := b.Subscribe(func(s Snapshot) { got = append(got, s) })

	b.Batch(func() { seed(t, b, "a", "b") })
	require.Len(t, got, 1)
	require.Equal(t, []string{"a", "b"}, got[0].Order)

	cancel()
	require.NoError(t, b.Delete("a"))
	require.Len(t, got, 1)
}

func TestReplicasConverge(t *testing.T) {
	alice, bob := NewBoard(nil), NewBoard(nil)
	alice.SetOnLocalOp(func(op Op) { bob.Apply(op) })
	bob.SetOnLocalOp(func(op Op) { alice.Apply(op) })

	require.NoError(t, alice.Insert("a", rect(0, 0)))
	require.NoError(t, bob.Insert("b", rect(50, 0)))
	require.NoError(t, alice.Update("b", layer.WithFill(layer.Color{R: 200})))
	require.NoError(t, bob.Update("b", layer.Position(geom.Pt(7, 7))))
	require.NoError(t, bob.Move(1, 0))

	require.Equal(t, alice.Snapshot(), bob.Snapshot())
	l, _ := alice.Layer("b")
	require.Equal(t, layer.Color{R: 200}, l.Fill, "concurrent edits of different fields both survive")
	require.Equal(t, 7.0, l.X)
}

func TestSameFieldLastWriterWins(t *testing.T) {
	alice, bob := NewBoard(nil), NewBoard(nil)
	require.NoError(t, alice.Insert("a", rect(0, 0)))
	bob.ApplyAll(alice.Ops())

	// both write x without seeing each other
	require.NoError(t, alice.Update("a", layer.Position(geom.Pt(1, 0))))
	require.NoError(t, bob.Update("a", layer.Position(geom.Pt(2, 0))))
	fromAlice, fromBob := alice.Ops(), bob.Ops()
	alice.ApplyAll(fromBob)
	bob.ApplyAll(fromAlice)

	require.Equal(t, alice.Snapshot(), bob.Snapshot())
}

func TestRemoteOpsAreIdempotent(t *testing.T) {
	alice, bob := NewBoard(nil), NewBoard(nil)
	seed(t, alice, "a", "b")
	require.Equal(t, 2, bob.ApplyAll(alice.Ops()))
	require.Equal(t, 0, bob.ApplyAll(alice.Ops()))
	require.Equal(t, alice.Snapshot(), bob.Snapshot())
	require.False(t, bob.CanUndo(), "remote ops are not part of local history")
}

func TestUpdateAfterRemoteDeleteIsDropped(t *testing.T) {
	alice, bob := NewBoard(nil), NewBoard(nil)
	seed(t, alice, "a")
	bob.ApplyAll(alice.Ops())
	require.NoError(t, bob.Update("a", layer.WithValue("late")))
	require.NoError(t, alice.Delete("a"))
	alice.ApplyAll(bob.Ops())
	bob.ApplyAll(alice.Ops())
	require.Equal(t, 0, alice.Snapshot().Len())
	require.Equal(t, 0, bob.Snapshot().Len())
}

func TestRemoteOpsWithNegativeExtentAreDropped(t *testing.T) {
	alice, bob := NewBoard(nil), NewBoard(nil)
	seed(t, alice, "a")
	bob.ApplyAll(alice.Ops())

	bad := layer.Layer{Type: layer.Rectangle, Width: -10, Height: 5}
	w := -3.0
	ops := []Op{
		{Type: OpInsert, ID: "neg", Layer: &bad, Stamp: Stamp{Lamport: 10, Site: "mallory"}},
		{Type: OpInsert, ID: "nil", Stamp: Stamp{Lamport: 11, Site: "mallory"}},
		{Type: OpUpdate, ID: "a", Patch: &layer.Patch{Width: &w}, Stamp: Stamp{Lamport: 12, Site: "mallory"}},
	}
	require.Zero(t, bob.ApplyAll(ops))
	require.Equal(t, []string{"a"}, bob.Order())
	l, _ := bob.Layer("a")
	require.Equal(t, 10.0, l.Width)
	require.NoError(t, bob.Snapshot().Validate())
	require.Len(t, bob.Ops(), 1, "dropped ops are not logged for late joiners")

	require.Error(t, bob.Update("a", layer.Patch{Height: &w}), "local edits get the same check")
}

func TestSaveLoad(t *testing.T) {
	b := NewBoard(nil)
	seed(t, b, "a", "b")
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, b.Snapshot()))

	s, err := ReadJSON(&buf)
	require.NoError(t, err)

	other := NewBoard(nil)
	seed(t, other, "z")
	require.NoError(t, other.Load(s))
	require.Equal(t, b.Snapshot(), other.Snapshot())

	other.Undo()
	require.Equal(t, []string{"z"}, other.Order())
}

func TestReadJSONRejectsMismatchedSets(t *testing.T) {
	_, err := ReadJSON(bytes.NewBufferString(`{"layers":{"a":{"type":0}},"order":["b"]}`))
	require.Error(t, err)
}
