// Ticker hub — fans simulation events out to connected WebSocket observers.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/talgya/starlanes/internal/sim"
)

// TickerMessage is the JSON envelope broadcast to every observer.
type TickerMessage struct {
	Type    string `json:"type"` // "event" or "day"
	Payload any    `json:"payload"`
}

// client is one connected observer socket.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of connected observers and the broadcast channel.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
}

// NewHub creates the ticker hub. Run it in a goroutine.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// Run is the hub's event loop; it blocks.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			slog.Debug("ticker observer connected", "observers", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow or hung observer: drop the connection rather
					// than stalling the ticker.
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// PublishEvent broadcasts one simulation event to all observers.
func (h *Hub) PublishEvent(ev sim.Event) {
	h.publish(TickerMessage{Type: "event", Payload: ev})
}

// PublishDay broadcasts a day rollover.
func (h *Hub) PublishDay(day int) {
	h.publish(TickerMessage{Type: "day", Payload: map[string]any{
		"day":  day,
		"date": sim.SimDate(day),
	}})
}

func (h *Hub) publish(msg TickerMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		slog.Error("ticker marshal failed", "error", err)
		return
	}
	select {
	case h.broadcast <- raw:
	default:
		slog.Warn("ticker broadcast buffer full, dropping message")
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs upgrades an HTTP request to an observer socket.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{hub: hub, conn: conn, send: make(chan []byte, 256)}
	hub.register <- c

	go c.writePump()
	go c.readPump()
}

// readPump drains the socket; observers are read-only, so inbound frames
// are discarded, but reading is what detects the close.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("ticker observer read error", "error", err)
			}
			return
		}
	}
}

// writePump forwards broadcast frames to the socket until the hub closes
// the send channel.
func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
