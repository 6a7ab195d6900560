package state

import (
	"encoding/json"
	"fmt"
	"io"

	"localboard/internal/layer"
)

// Validate checks that the mapping and the order list hold the same
// identifiers and that every layer is drawable.
func (s Snapshot) Validate() error {
	if len(s.Order) != len(s.Layers) {
		return fmt.Errorf("order lists %d layers, mapping holds %d", len(s.Order), len(s.Layers))
	}
	seen := make(map[string]bool, len(s.Order))
	for _, id := range s.Order {
		if seen[id] {
			return fmt.Errorf("layer %s listed twice", id)
		}
		seen[id] = true
		l, ok := s.Layers[id]
		if !ok {
			return fmt.Errorf("%w: %s in order list", ErrUnknownLayer, id)
		}
		if err := l.Validate(); err != nil {
			return fmt.Errorf("layer %s: %w", id, err)
		}
	}
	return nil
}

// WriteJSON saves a snapshot.
func WriteJSON(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	return nil
}

// ReadJSON loads a snapshot written by WriteJSON.
func ReadJSON(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode board: %w", err)
	}
	if s.Layers == nil {
		s.Layers = map[string]layer.Layer{}
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("invalid board: %w", err)
	}
	return s, nil
}
