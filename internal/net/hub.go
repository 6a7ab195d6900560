package net

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"localboard/internal/engine"
	"localboard/internal/state"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 256
)

// peer is one joined participant, as seen by the host.
type peer struct {
	conn       *websocket.Conn
	send       chan Message
	site       string
	connection int
	presence   *engine.Presence
	closeOnce  sync.Once
}

func (p *peer) close() {
	p.closeOnce.Do(func() { close(p.send) })
}

// Hub is run by the host. It hands every joiner the operation log, merges
// what the joiners send into the host's replica and relays it to the rest.
type Hub struct {
	board    Replica
	sink     PresenceSink
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	peers    map[*peer]bool
	next     int
	presence *engine.Presence
}

func NewHub(board Replica, sink PresenceSink, logger *slog.Logger) *Hub {
	if sink == nil {
		sink = nopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		board:  board,
		sink:   sink,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		peers: make(map[*peer]bool),
	}
}

// PeerCount returns the number of joined participants.
func (h *Hub) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// Publish sends a local operation to every participant.
func (h *Hub) Publish(op state.Op) {
	h.broadcast(Message{Kind: KindOps, Ops: []state.Op{op}}, nil)
}

// PublishPresence shares the host's own presence.
func (h *Hub) PublishPresence(p engine.Presence) {
	h.mu.Lock()
	h.presence = &p
	h.mu.Unlock()
	h.broadcast(Message{Kind: KindPresence, Site: h.board.SiteID(), Presence: &p}, nil)
}

func (h *Hub) broadcast(m Message, except *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.peers {
		if p != except {
			h.sendLocked(p, m)
		}
	}
}

// sendLocked queues m for p and drops a peer that stopped reading.
func (h *Hub) sendLocked(p *peer, m Message) {
	select {
	case p.send <- m:
	default:
		h.logger.Warn("dropping slow participant", "site", p.site)
		delete(h.peers, p)
		p.close()
	}
}

// ServeHTTP upgrades the request and serves the participant until it
// leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	p, err := h.join(conn)
	if err != nil {
		h.logger.Warn("join rejected", "remote", r.RemoteAddr, "err", err)
		conn.Close()
		return
	}
	go writeLoop(conn, p.send, h.logger)
	h.readLoop(p)
}

func (h *Hub) join(conn *websocket.Conn) (*peer, error) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	var hello Message
	if err := conn.ReadJSON(&hello); err != nil {
		return nil, err
	}
	if hello.Kind != KindHello || hello.Site == "" {
		return nil, fmt.Errorf("%w: expected hello, got %q", errProtocol, hello.Kind)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	p := &peer{conn: conn, send: make(chan Message, sendBuffer), site: hello.Site, connection: h.next}
	p.send <- Message{Kind: KindHello, Site: h.board.SiteID(), Connection: p.connection}
	if ops := h.board.Ops(); len(ops) > 0 {
		p.send <- Message{Kind: KindOps, Ops: ops}
	}
	if h.presence != nil {
		p.send <- Message{Kind: KindPresence, Site: h.board.SiteID(), Presence: h.presence}
	}
	for other := range h.peers {
		if other.presence != nil {
			p.send <- Message{Kind: KindPresence, Site: other.site, Connection: other.connection, Presence: other.presence}
		}
	}
	h.peers[p] = true
	h.logger.Info("participant joined", "site", p.site, "connection", p.connection, "remote", conn.RemoteAddr().String())
	return p, nil
}

func (h *Hub) readLoop(p *peer) {
	defer h.leave(p)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var m Message
		if err := p.conn.ReadJSON(&m); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("participant read failed", "site", p.site, "err", err)
			}
			return
		}
		switch m.Kind {
		case KindOps:
			n := h.board.ApplyAll(m.Ops)
			h.logger.Debug("merged operations", "site", p.site, "received", len(m.Ops), "applied", n)
			h.broadcast(m, p)
		case KindPresence:
			if m.Presence == nil {
				continue
			}
			h.mu.Lock()
			p.presence = m.Presence
			h.mu.Unlock()
			m.Site, m.Connection = p.site, p.connection
			h.sink.SetRemotePresence(engine.RemotePresence{Site: p.site, Connection: p.connection, Presence: *m.Presence})
			h.broadcast(m, p)
		}
	}
}

func (h *Hub) leave(p *peer) {
	h.mu.Lock()
	if h.peers[p] {
		delete(h.peers, p)
		p.close()
	}
	h.mu.Unlock()
	p.conn.Close()
	h.sink.RemovePresence(p.site)
	h.broadcast(Message{Kind: KindLeave, Site: p.site}, nil)
	h.logger.Info("participant left", "site", p.site, "connection", p.connection)
}

// Close disconnects every participant.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.peers {
		delete(h.peers, p)
		p.close()
	}
}

// ListenAndServe serves the hub on addr until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return h.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (h *Hub) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle(Path, h)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		h.Close()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()
	h.logger.Info("hosting board", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// writeLoop is the only writer of conn. It ends when send is closed.
func writeLoop(conn *websocket.Conn, send <-chan Message, logger *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case m, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(m); err != nil {
				logger.Debug("write failed", "err", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
