package state

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"localboard/internal/layer"
)

const defaultMaxHistory = 100

type record struct {
	layer   layer.Layer
	created Stamp
	stamps  map[layer.Field]Stamp
}

// change is an undoable mutation. The history stacks hold the inverse of
// what the user did, in the order it was done.
type change struct {
	op    OpType
	id    string
	layer layer.Layer
	patch layer.Patch
	index int
}

// Board is an in-memory replica of the shared store. Local mutations are
// stamped with the board's Lamport clock and handed to OnLocalOp for
// broadcast; operations from other sites are merged with Apply.
type Board struct {
	siteID  string
	clock   Clock
	records map[string]*record
	deleted map[string]Stamp
	order   []string
	log     []Op
	seen    map[Stamp]bool

	undoStack  [][]change
	redoStack  [][]change
	pending    []change
	depth      int
	replaying  bool
	maxHistory int

	subs    map[int]func(Snapshot)
	nextSub int
	dirty   bool

	onLocalOp func(Op)
	logger    *slog.Logger
	mu        sync.Mutex
}

// NewBoard creates an empty replica with a fresh site ID.
func NewBoard(logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		siteID:     uuid.NewString(),
		records:    make(map[string]*record),
		deleted:    make(map[string]Stamp),
		seen:       make(map[Stamp]bool),
		subs:       make(map[int]func(Snapshot)),
		maxHistory: defaultMaxHistory,
		logger:     logger,
	}
}

// SiteID identifies this replica.
func (b *Board) SiteID() string { return b.siteID }

// SetOnLocalOp registers the broadcast hook for local mutations.
func (b *Board) SetOnLocalOp(fn func(Op)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onLocalOp = fn
}

func (b *Board) Layer(id string) (layer.Layer, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.records[id]
	if !ok {
		return layer.Layer{}, false
	}
	return rec.layer.Clone(), true
}

func (b *Board) Order() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.order...)
}

func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Board) snapshotLocked() Snapshot {
	s := Snapshot{
		Layers: make(map[string]layer.Layer, len(b.records)),
		Order:  append([]string(nil), b.order...),
	}
	for id, rec := range b.records {
		s.Layers[id] = rec.layer.Clone()
	}
	return s
}

// Ops returns every operation this replica has applied, in order. Replaying
// them on an empty board reproduces the current state.
func (b *Board) Ops() []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Op(nil), b.log...)
}

func (b *Board) Update(id string, p layer.Patch) error {
	return b.mutate(func() ([]Op, error) {
		return b.local(change{op: OpUpdate, id: id, patch: p})
	})
}

func (b *Board) Insert(id string, l layer.Layer) error {
	return b.mutate(func() ([]Op, error) {
		return b.local(change{op: OpInsert, id: id, layer: l, index: len(b.order)})
	})
}

func (b *Board) Delete(id string) error {
	return b.mutate(func() ([]Op, error) {
		return b.local(change{op: OpDelete, id: id})
	})
}

func (b *Board) Move(from, to int) error {
	return b.mutate(func() ([]Op, error) {
		if from < 0 || from >= len(b.order) || to < 0 || to >= len(b.order) {
			return nil, fmt.Errorf("%w: move %d -> %d of %d", ErrIndexOutOfRange, from, to, len(b.order))
		}
		if from == to {
			return nil, nil
		}
		return b.local(change{op: OpMove, id: b.order[from], index: to})
	})
}

func (b *Board) Batch(fn func()) {
	b.mu.Lock()
	b.depth++
	b.mu.Unlock()

	defer func() {
		_ = b.mutate(func() ([]Op, error) {
			b.depth--
			b.flushLocked()
			return nil, nil
		})
	}()
	fn()
}

func (b *Board) CanUndo() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.undoStack) > 0
}

func (b *Board) CanRedo() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.redoStack) > 0
}

func (b *Board) Undo() {
	_ = b.mutate(func() ([]Op, error) {
		if b.depth > 0 || len(b.undoStack) == 0 {
			return nil, nil
		}
		entry := b.undoStack[len(b.undoStack)-1]
		b.undoStack = b.undoStack[:len(b.undoStack)-1]
		ops, inverse := b.replay(entry)
		if len(inverse) > 0 {
			b.redoStack = append(b.redoStack, inverse)
		}
		return ops, nil
	})
}

func (b *Board) Redo() {
	_ = b.mutate(func() ([]Op, error) {
		if b.depth > 0 || len(b.redoStack) == 0 {
			return nil, nil
		}
		entry := b.redoStack[len(b.redoStack)-1]
		b.redoStack = b.redoStack[:len(b.redoStack)-1]
		ops, inverse := b.replay(entry)
		if len(inverse) > 0 {
			b.undoStack = append(b.undoStack, inverse)
		}
		return ops, nil
	})
}

// replay applies a history entry back to front and returns the inverse
// entry. Changes whose target vanished through a remote edit are skipped.
func (b *Board) replay(entry []change) ([]Op, []change) {
	b.replaying = true
	b.pending = nil
	var ops []Op
	for i := len(entry) - 1; i >= 0; i-- {
		applied, err := b.local(entry[i])
		if err != nil {
			b.logger.Debug("history step skipped", "layer", entry[i].id, "op", entry[i].op, "err", err)
			continue
		}
		ops = append(ops, applied...)
	}
	inverse := b.pending
	b.pending = nil
	b.replaying = false
	return ops, inverse
}

func (b *Board) Subscribe(fn func(Snapshot)) (cancel func()) {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Apply merges an operation from another site. It returns false for an
// operation already seen.
func (b *Board) Apply(op Op) bool {
	applied := false
	_ = b.mutate(func() ([]Op, error) {
		applied = b.applyRemote(op)
		return nil, nil
	})
	return applied
}

// ApplyAll merges a batch of remote operations, typically the log sent by
// the host when joining.
func (b *Board) ApplyAll(ops []Op) int {
	n := 0
	_ = b.mutate(func() ([]Op, error) {
		for _, op := range ops {
			if b.applyRemote(op) {
				n++
			}
		}
		return nil, nil
	})
	return n
}

// Load replaces the board with s as one undoable step.
func (b *Board) Load(s Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	var err error
	b.Batch(func() {
		for _, id := range b.Order() {
			if e := b.Delete(id); e != nil && err == nil {
				err = e
			}
		}
		for _, id := range s.Order {
			if e := b.Insert(id, s.Layers[id]); e != nil && err == nil {
				err = e
			}
		}
	})
	return err
}

// mutate runs fn under the lock, then broadcasts the resulting operations
// and notifies subscribers outside it.
func (b *Board) mutate(fn func() ([]Op, error)) error {
	b.mu.Lock()
	ops, err := fn()
	if !b.replaying && b.depth == 0 {
		b.flushLocked()
	}
	var subs []func(Snapshot)
	var snap Snapshot
	if b.dirty && b.depth == 0 {
		b.dirty = false
		snap = b.snapshotLocked()
		for _, s := range b.subs {
			subs = append(subs, s)
		}
	}
	onOp := b.onLocalOp
	b.mu.Unlock()

	if onOp != nil {
		for _, op := range ops {
			onOp(op)
		}
	}
	for _, s := range subs {
		s(snap)
	}
	return err
}

// flushLocked closes the current undo step.
func (b *Board) flushLocked() {
	if b.depth > 0 || b.replaying || len(b.pending) == 0 {
		return
	}
	b.undoStack = append(b.undoStack, b.pending)
	if len(b.undoStack) > b.maxHistory {
		b.undoStack = b.undoStack[1:]
	}
	b.redoStack = nil
	b.pending = nil
}

// local applies a mutation made on this site and records its inverse.
func (b *Board) local(c change) ([]Op, error) {
	var inverse change
	switch c.op {
	case OpInsert:
		if _, ok := b.records[c.id]; ok {
			return nil, fmt.Errorf("%w: %s", ErrLayerExists, c.id)
		}
		if err := c.layer.Validate(); err != nil {
			return nil, fmt.Errorf("insert %s: %w", c.id, err)
		}
		inverse = change{op: OpDelete, id: c.id}
	case OpUpdate:
		rec, ok := b.records[c.id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLayer, c.id)
		}
		if c.patch.Empty() {
			return nil, nil
		}
		if err := c.patch.Validate(); err != nil {
			return nil, fmt.Errorf("update %s: %w", c.id, err)
		}
		inverse = change{op: OpUpdate, id: c.id, patch: rec.layer.Capture(c.patch.Fields())}
	case OpDelete:
		rec, ok := b.records[c.id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLayer, c.id)
		}
		inverse = change{op: OpInsert, id: c.id, layer: rec.layer.Clone(), index: b.indexOf(c.id)}
	case OpMove:
		from := b.indexOf(c.id)
		if from < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLayer, c.id)
		}
		if c.index < 0 || c.index >= len(b.order) {
			return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, c.index)
		}
		inverse = change{op: OpMove, id: c.id, index: from}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperation, c.op)
	}

	op := Op{Type: c.op, ID: c.id, Index: c.index, Stamp: Stamp{Lamport: b.clock.Tick(), Site: b.siteID}}
	switch c.op {
	case OpInsert:
		l := c.layer.Clone()
		op.Layer = &l
	case OpUpdate:
		p := c.patch
		op.Patch = &p
	}
	b.applyLocked(op)
	b.pending = append(b.pending, inverse)
	return []Op{op}, nil
}

func (b *Board) applyRemote(op Op) bool {
	if b.seen[op.Stamp] {
		return false
	}
	b.clock.Witness(op.Stamp.Lamport)
	if err := validRemote(op); err != nil {
		b.logger.Warn("remote op dropped", "op", op.Type, "layer", op.ID, "site", op.Stamp.Site, "err", err)
		return false
	}
	if !b.applyLocked(op) {
		b.logger.Debug("remote op had no effect", "op", op.Type, "layer", op.ID, "site", op.Stamp.Site)
	}
	return true
}

// applyLocked merges op into the replica. Inserts and deletes touch the
// mapping and the order list together, so no reader sees one without the
// other.
// validRemote holds remote operations to the checks local edits pass.
func validRemote(op Op) error {
	switch op.Type {
	case OpInsert:
		if op.Layer == nil {
			return ErrInvalidOperation
		}
		return op.Layer.Validate()
	case OpUpdate:
		if op.Patch == nil {
			return ErrInvalidOperation
		}
		return op.Patch.Validate()
	}
	return nil
}

func (b *Board) applyLocked(op Op) bool {
	b.seen[op.Stamp] = true
	b.log = append(b.log, op)
	b.dirty = true

	switch op.Type {
	case OpInsert:
		if op.Layer == nil {
			return false
		}
		if _, live := b.records[op.ID]; live {
			return false
		}
		if tomb, ok := b.deleted[op.ID]; ok && !op.Stamp.After(tomb) {
			return false
		}
		rec := &record{layer: op.Layer.Clone(), created: op.Stamp, stamps: make(map[layer.Field]Stamp)}
		rec.layer = rec.layer.Apply(layer.WithRotation(rec.layer.Rotation))
		for _, f := range layer.AllFields {
			rec.stamps[f] = op.Stamp
		}
		b.records[op.ID] = rec
		delete(b.deleted, op.ID)
		idx := clamp(op.Index, 0, len(b.order))
		b.order = append(b.order, "")
		copy(b.order[idx+1:], b.order[idx:])
		b.order[idx] = op.ID
		b.logger.Debug("layer inserted", "layer", op.ID, "type", op.Layer.Type, "site", op.Stamp.Site)
		return true

	case OpUpdate:
		rec, ok := b.records[op.ID]
		if !ok || op.Patch == nil {
			return false
		}
		var won layer.Patch
		for _, f := range op.Patch.Fields() {
			if op.Stamp.After(rec.stamps[f]) {
				won = won.Merge(op.Patch.Only(f))
				rec.stamps[f] = op.Stamp
			}
		}
		if won.Empty() {
			return false
		}
		rec.layer = rec.layer.Apply(won)
		return true

	case OpDelete:
		if _, ok := b.records[op.ID]; !ok {
			return false
		}
		delete(b.records, op.ID)
		if tomb, ok := b.deleted[op.ID]; !ok || op.Stamp.After(tomb) {
			b.deleted[op.ID] = op.Stamp
		}
		if i := b.indexOf(op.ID); i >= 0 {
			b.order = append(b.order[:i], b.order[i+1:]...)
		}
		b.logger.Debug("layer deleted", "layer", op.ID, "site", op.Stamp.Site)
		return true

	case OpMove:
		from := b.indexOf(op.ID)
		if from < 0 || len(b.order) == 0 {
			return false
		}
		to := clamp(op.Index, 0, len(b.order)-1)
		moveElem(b.order, from, to)
		return from != to
	}
	return false
}

func (b *Board) indexOf(id string) int {
	for i, v := range b.order {
		if v == id {
			return i
		}
	}
	return -1
}

func moveElem(s []string, from, to int) {
	v := s[from]
	if from < to {
		copy(s[from:to], s[from+1:to+1])
	} else {
		copy(s[to+1:from+1], s[to:from])
	}
	s[to] = v
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
