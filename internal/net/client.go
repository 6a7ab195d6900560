package net

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"localboard/internal/engine"
	"localboard/internal/state"
)

// ErrFellBehind means operations could not be queued fast enough and the
// connection was dropped. Joining again resyncs the board.
var ErrFellBehind = errors.New("fell behind the host, rejoin to resync")

// Client is a joined participant's connection to the host.
type Client struct {
	conn   *websocket.Conn
	board  Replica
	sink   PresenceSink
	logger *slog.Logger

	// Connection is the number the host gave this participant.
	Connection int
	// Host is the host's site ID.
	Host string

	// sites are the participants whose presence this client reported.
	sites map[string]bool

	mu        sync.Mutex
	send      chan Message
	closed    bool
	lagged    bool
	done      chan struct{}
	closeOnce sync.Once
}

// Dial joins the board hosted at addr (host:port). board's own operations
// are sent to the host so the two replicas converge; the host's log arrives
// first once Run starts.
func Dial(ctx context.Context, addr string, board Replica, sink PresenceSink, logger *slog.Logger) (*Client, error) {
	if sink == nil {
		sink = nopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	u := url.URL{Scheme: "ws", Host: addr, Path: Path}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("join %s: %w", addr, err)
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Message{Kind: KindHello, Site: board.SiteID()}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join %s: %w", addr, err)
	}
	conn.SetReadDeadline(time.Now().Add(pongWait))
	var hello Message
	if err := conn.ReadJSON(&hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join %s: %w", addr, err)
	}
	if hello.Kind != KindHello {
		conn.Close()
		return nil, fmt.Errorf("join %s: %w: expected hello, got %q", addr, errProtocol, hello.Kind)
	}

	c := &Client{
		conn:       conn,
		board:      board,
		sink:       sink,
		logger:     logger,
		Connection: hello.Connection,
		Host:       hello.Site,
		sites:      make(map[string]bool),
		send:       make(chan Message, sendBuffer),
		done:       make(chan struct{}),
	}
	if ops := board.Ops(); len(ops) > 0 {
		c.send <- Message{Kind: KindOps, Ops: ops}
	}
	go writeLoop(conn, c.send, logger)
	logger.Info("joined board", "addr", addr, "connection", c.Connection)
	return c, nil
}

// Run merges what the host sends until the connection drops or ctx is done.
func (c *Client) Run(ctx context.Context) error {
	defer c.finish()
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPingHandler(func(data string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})
	for {
		var m Message
		if err := c.conn.ReadJSON(&m); err != nil {
			if c.hasLagged() {
				return ErrFellBehind
			}
			if ctx.Err() != nil || c.isClosed() || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("connection to host lost: %w", err)
		}
		c.handle(m)
	}
}

func (c *Client) handle(m Message) {
	switch m.Kind {
	case KindOps:
		n := c.board.ApplyAll(m.Ops)
		c.logger.Debug("merged operations", "received", len(m.Ops), "applied", n)
	case KindPresence:
		if m.Presence != nil && m.Site != c.board.SiteID() {
			c.sites[m.Site] = true
			c.sink.SetRemotePresence(engine.RemotePresence{Site: m.Site, Connection: m.Connection, Presence: *m.Presence})
		}
	case KindLeave:
		delete(c.sites, m.Site)
		c.sink.RemovePresence(m.Site)
	}
}

// finish forgets everyone else's presence once the host is gone.
func (c *Client) finish() {
	c.Close()
	for site := range c.sites {
		c.sink.RemovePresence(site)
	}
}

// Publish sends a local operation to the host.
func (c *Client) Publish(op state.Op) {
	c.queue(Message{Kind: KindOps, Ops: []state.Op{op}})
}

// PublishPresence shares this participant's presence.
func (c *Client) PublishPresence(p engine.Presence) {
	c.queue(Message{Kind: KindPresence, Presence: &p})
}

// queue hands m to the writer. Presence may be dropped when the host is
// slow, but a lost operation would leave the replicas apart for good, so
// that drops the connection instead.
func (c *Client) queue(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.lagged {
		return
	}
	select {
	case c.send <- m:
		return
	default:
	}
	if m.Kind != KindOps {
		c.logger.Debug("host not keeping up, presence dropped")
		return
	}
	c.lagged = true
	c.logger.Error("host not keeping up, leaving board", "ops", len(m.Ops))
	c.conn.Close()
}

func (c *Client) hasLagged() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lagged
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close leaves the board.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		close(c.done)
	})
}

// Done is closed once the client has been closed.
func (c *Client) Done() <-chan struct{} { return c.done }
