// Package net connects board replicas over the LAN. One participant hosts a
// websocket hub; the others join it by link and exchange store operations
// and presence through it.
package net

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"localboard/internal/engine"
	"localboard/internal/state"
)

const (
	// Scheme prefixes join links, as in localboard://192.168.1.4:8888.
	Scheme      = "localboard://"
	DefaultPort = 8888
	// Path is where the hub accepts websocket connections.
	Path = "/ws"
)

// Link returns the join link for a host.
func Link(ip net.IP, port int) string {
	return Scheme + net.JoinHostPort(ip.String(), strconv.Itoa(port))
}

// ParseLink extracts host:port from a join link.
func ParseLink(link string) (string, error) {
	addr, ok := strings.CutPrefix(strings.TrimSpace(link), Scheme)
	if !ok {
		return "", fmt.Errorf("link %q does not start with %s", link, Scheme)
	}
	addr = strings.TrimSuffix(addr, "/")
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return "", fmt.Errorf("link %q: %w", link, err)
	}
	return addr, nil
}

type Kind string

const (
	// KindHello opens a connection: the joiner sends its site, the host
	// answers with the joiner's connection number.
	KindHello    Kind = "hello"
	KindOps      Kind = "ops"
	KindPresence Kind = "presence"
	KindLeave    Kind = "leave"
)

// Message is the envelope of everything sent over a connection.
type Message struct {
	Kind       Kind             `json:"kind"`
	Site       string           `json:"site,omitempty"`
	Connection int              `json:"connection,omitempty"`
	Ops        []state.Op       `json:"ops,omitempty"`
	Presence   *engine.Presence `json:"presence,omitempty"`
}

var errProtocol = errors.New("protocol error")

// Replica is the local copy of the board a connection keeps in sync.
type Replica interface {
	SiteID() string
	Ops() []state.Op
	ApplyAll(ops []state.Op) int
}

// PresenceSink receives the other participants' presence.
type PresenceSink interface {
	SetRemotePresence(rp engine.RemotePresence)
	RemovePresence(site string)
}

type nopSink struct{}

func (nopSink) SetRemotePresence(engine.RemotePresence) {}
func (nopSink) RemovePresence(string)                   {}

var (
	_ Replica      = (*state.Board)(nil)
	_ PresenceSink = (*engine.Engine)(nil)
)
