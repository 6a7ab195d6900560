package engine

import (
	"slices"
	"strings"

	"localboard/internal/geom"
)

// Presence is the local-only state a participant shares with the others:
// where its pointer is and what it has selected. It never enters the store.
type Presence struct {
	Cursor    *geom.Point `json:"cursor,omitempty"`
	Selection []string    `json:"selection,omitempty"`
}

// RemotePresence is another participant's presence. Connection orders the
// participants and picks their outline color.
type RemotePresence struct {
	Site       string `json:"site"`
	Connection int    `json:"connection"`
	Presence
}

// OnPresence registers fn to receive the local presence whenever the
// pointer moves or the selection changes.
func (e *Engine) OnPresence(fn func(Presence)) { e.onPresence = fn }

func (e *Engine) publish() {
	if e.onPresence == nil {
		return
	}
	p := Presence{Selection: e.sel.IDs()}
	if e.cursor != nil {
		c := *e.cursor
		p.Cursor = &c
	}
	e.onPresence(p)
}

// PointerLeave clears the shared cursor.
func (e *Engine) PointerLeave() {
	e.cursor = nil
	e.publish()
}

// SetRemotePresence records a participant's presence. Safe to call from any
// goroutine.
func (e *Engine) SetRemotePresence(rp RemotePresence) {
	e.mu.Lock()
	e.remote[rp.Site] = rp
	e.mu.Unlock()
	e.notify()
}

// RemovePresence forgets a participant that left.
func (e *Engine) RemovePresence(site string) {
	e.mu.Lock()
	delete(e.remote, site)
	e.mu.Unlock()
	e.notify()
}

// RemotePresences returns the other participants ordered by connection.
func (e *Engine) RemotePresences() []RemotePresence {
	e.mu.Lock()
	out := make([]RemotePresence, 0, len(e.remote))
	for _, rp := range e.remote {
		out = append(out, rp)
	}
	e.mu.Unlock()
	slices.SortFunc(out, func(a, b RemotePresence) int {
		if a.Connection != b.Connection {
			return a.Connection - b.Connection
		}
		return strings.Compare(a.Site, b.Site)
	})
	return out
}
