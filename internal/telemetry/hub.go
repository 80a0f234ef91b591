// File: internal/telemetry/hub.go
package telemetry

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Dashboards only ever send short command lines.
	maxMessageSize = 4096
	// clientBuffer is the per dashboard outbound queue length.
	clientBuffer = 256
	// replayLines is how much history a newly connected dashboard receives.
	replayLines = 200
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// client is a middleman between one websocket connection and the hub.
type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan string
}

// Hub broadcasts telemetry lines to websocket dashboards and hands lines the
// dashboards send back to an optional handler.
type Hub struct {
	logger     *zap.Logger
	backlog    *Backlog
	onMessage  func(line string)
	clients    map[*client]bool
	broadcast  chan string
	register   chan *client
	unregister chan *client
	done       chan struct{}
	wg         sync.WaitGroup
}

// NewHub creates a Hub. onMessage may be nil.
func NewHub(logger *zap.Logger, onMessage func(line string)) *Hub {
	return &Hub{
		logger:     logger.Named("telemetry.hub"),
		backlog:    NewBacklog(replayLines),
		onMessage:  onMessage,
		clients:    make(map[*client]bool),
		broadcast:  make(chan string, clientBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Send queues a line for every connected dashboard without blocking.
func (h *Hub) Send(line string) {
	select {
	case h.broadcast <- line:
	default:
		h.logger.Debug("Hub broadcast queue full, dropping line.")
	}
}

// Run owns the client set and starts each client's pumps. When ctx is
// cancelled the pumps are stopped and waited for before it returns.
func (h *Hub) Run(ctx context.Context) error {
	h.logger.Info("Telemetry hub started.")
	defer h.logger.Info("Telemetry hub stopped.")
	defer h.wg.Wait()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return nil
		case c := <-h.register:
			// wg.Add only ever runs here, ahead of the deferred Wait.
			h.clients[c] = true
			h.wg.Add(2)
			go c.writePump()
			go c.readPump()
			for _, line := range h.backlog.Lines() {
				select {
				case c.send <- line:
				default:
				}
			}
			h.logger.Info("Dashboard connected.", zap.String("client_id", c.id))
		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
				h.logger.Info("Dashboard disconnected.", zap.String("client_id", c.id))
			}
		case line := <-h.broadcast:
			h.backlog.Send(line)
			for c := range h.clients {
				select {
				case c.send <- line:
				default:
					h.logger.Warn("Dashboard too slow, disconnecting.", zap.String("client_id", c.id))
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	_ = c.conn.Close()
}

// ServeHTTP upgrades the request and attaches the dashboard to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade websocket", zap.Error(err))
		return
	}
	c := &client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan string, clientBuffer),
	}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
	}
}

// readPump forwards inbound lines to the hub's handler.
func (c *client) readPump() {
	defer c.hub.wg.Done()
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("Dashboard read error", zap.Error(err))
			}
			return
		}
		if c.hub.onMessage == nil {
			continue
		}
		for _, line := range strings.Split(string(message), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				c.hub.onMessage(line)
			}
		}
	}
}

// writePump sends queued lines and keepalive pings. Each line is its own
// websocket text message.
func (c *client) writePump() {
	defer c.hub.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case line, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
