package state

import (
	"localboard/internal/layer"
)

// Stamp orders writes across sites: higher Lamport wins, ties break on the
// site ID so every replica picks the same winner.
type Stamp struct {
	Lamport uint64 `json:"lamport"`
	Site    string `json:"site"`
}

// After reports whether s is newer than o.
func (s Stamp) After(o Stamp) bool {
	if s.Lamport != o.Lamport {
		return s.Lamport > o.Lamport
	}
	return s.Site > o.Site
}

func (s Stamp) IsZero() bool { return s.Lamport == 0 && s.Site == "" }

type OpType string

const (
	OpInsert OpType = "insert"
	OpUpdate OpType = "update"
	OpDelete OpType = "delete"
	OpMove   OpType = "move"
)

// Op is one replicated mutation. Inserts carry the whole layer and the
// order-list position; updates carry a field patch; moves carry the target
// index of the layer named by ID.
type Op struct {
	Type  OpType       `json:"type"`
	ID    string       `json:"id"`
	Layer *layer.Layer `json:"layer,omitempty"`
	Patch *layer.Patch `json:"patch,omitempty"`
	Index int          `json:"index"`
	Stamp Stamp        `json:"stamp"`
}

// Entry is a layer with its identifier.
type Entry struct {
	ID    string
	Layer layer.Layer
}

// Snapshot is the materialized board: the id→layer mapping and the order
// list. Both always hold the same identifier set.
type Snapshot struct {
	Layers map[string]layer.Layer `json:"layers"`
	Order  []string               `json:"order"`
}

// Layer looks up id.
func (s Snapshot) Layer(id string) (layer.Layer, bool) {
	l, ok := s.Layers[id]
	return l, ok
}

// Ordered returns the layers back to front.
func (s Snapshot) Ordered() []Entry {
	out := make([]Entry, 0, len(s.Order))
	for _, id := range s.Order {
		if l, ok := s.Layers[id]; ok {
			out = append(out, Entry{ID: id, Layer: l})
		}
	}
	return out
}

// Len returns the number of layers.
func (s Snapshot) Len() int { return len(s.Order) }
