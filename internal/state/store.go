// Package state holds the shared board store: the contract the canvas
// engine mutates through, and Board, an in-memory replica that merges
// operations from other participants.
package state

import (
	"errors"

	"localboard/internal/layer"
)

var (
	ErrUnknownLayer     = errors.New("unknown layer")
	ErrLayerExists      = errors.New("layer already exists")
	ErrIndexOutOfRange  = errors.New("order index out of range")
	ErrInvalidOperation = errors.New("invalid operation")
)

// Store is the shared ordered store the engine edits. Each mutation is
// applied locally before it returns; propagation to other participants is
// asynchronous. Every field write is independently last-writer-wins.
type Store interface {
	Layer(id string) (layer.Layer, bool)
	// Update writes the fields set in p.
	Update(id string, p layer.Patch) error
	// Insert adds the layer to the mapping and to the top of the order
	// list in one step.
	Insert(id string, l layer.Layer) error
	// Delete removes the layer from the mapping and the order list in one
	// step.
	Delete(id string) error
	Order() []string
	// Move relocates the order-list element at from to index to.
	Move(from, to int) error
	Snapshot() Snapshot

	// Batch groups the mutations made by fn into one undo step.
	Batch(fn func())
	Undo()
	Redo()
	CanUndo() bool
	CanRedo() bool

	// Subscribe calls fn with the materialized state after every local or
	// remote change. The returned func cancels the subscription.
	Subscribe(fn func(Snapshot)) (cancel func())
}

var _ Store = (*Board)(nil)
