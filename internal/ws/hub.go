package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Smoyabi/Covid19-Analysis/internal/api"
	"github.com/Smoyabi/Covid19-Analysis/internal/store"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins — callers should apply CORS at the reverse-proxy level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients on every broadcast.
type Message struct {
	Event string               `json:"event"`
	Data  api.OverviewResponse `json:"data"`
}

// Hub pushes the current dataset overview to WebSocket clients at a fixed
// interval and after every reload of the backing source.
//
// All client bookkeeping happens on the Run goroutine: it is the only code
// that touches the client set and the only closer of a client's send channel.
// Connection handlers talk to it exclusively through the add and remove
// channels, so a client dropping out mid-broadcast cannot race a send.
type Hub struct {
	store    *store.Store
	interval time.Duration

	add    chan *client
	remove chan *client
	done   chan struct{}

	connected atomic.Int64
}

// client represents one connected WebSocket client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub that reads from st and broadcasts every interval.
// The hub does not accept clients until Run is started.
func New(st *store.Store, interval time.Duration) *Hub {
	return &Hub{
		store:    st,
		interval: interval,
		add:      make(chan *client),
		remove:   make(chan *client),
		done:     make(chan struct{}),
	}
}

// Run owns the client set. It fans the current overview out to every client
// on each tick and on each store reload, admits and removes clients, and on
// ctx cancellation closes every remaining connection. Run must be called at
// most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	reloaded := h.store.Subscribe()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	clients := make(map[*client]struct{})
	defer func() {
		for c := range clients {
			close(c.send)
		}
		h.connected.Store(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.add:
			clients[c] = struct{}{}
			h.connected.Store(int64(len(clients)))
			// First frame right away so the client is not blank until the
			// next tick.
			if data, err := h.overview(); err == nil {
				h.deliver(clients, c, data)
			}

		case c := <-h.remove:
			h.drop(clients, c)

		case <-ticker.C:
			h.fanOut(clients)

		case <-reloaded:
			h.fanOut(clients)
		}
	}
}

// ServeHTTP upgrades the connection, hands the client to the Run loop, and
// blocks until the connection closes. If the hub has already shut down the
// connection is refused by closing it.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}

	select {
	case h.add <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	c.readPump() // blocks until the connection closes

	select {
	case h.remove <- c:
	case <-h.done:
	}
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	return int(h.connected.Load())
}

// --- Run-goroutine internals ------------------------------------------------

// fanOut sends one overview message to every client. Only called from Run.
func (h *Hub) fanOut(clients map[*client]struct{}) {
	if len(clients) == 0 {
		return
	}
	data, err := h.overview()
	if err != nil {
		return
	}
	for c := range clients {
		h.deliver(clients, c, data)
	}
}

// deliver queues data for one client, dropping the client if its buffer is
// full. Only called from Run.
func (h *Hub) deliver(clients map[*client]struct{}, c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.drop(clients, c)
	}
}

// drop removes a client and closes its send channel. Only called from Run,
// which keeps the close single-sided. Safe to call twice for the same client:
// a client evicted for a full buffer still reports its own removal when its
// read loop ends.
func (h *Hub) drop(clients map[*client]struct{}, c *client) {
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	h.connected.Store(int64(len(clients)))
}

func (h *Hub) overview() ([]byte, error) {
	return json.Marshal(Message{
		Event: "overview",
		Data:  api.BuildOverview(h.store),
	})
}

// --- per-connection pumps ---------------------------------------------------

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client; exits when the send channel is closed or a write
// fails.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Hub removed this client or is shutting down.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection to process control messages (pong,
// close) and detect disconnects. Blocks until the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
