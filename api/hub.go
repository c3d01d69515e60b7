/*
hub.go - Websocket push of game events

PURPOSE:
  Keeps the set of connected browsers and fans game events out to them.
  The hub is a game.Listener; it never blocks the scheduler: a full
  broadcast queue drops the message, a slow client is disconnected.

MESSAGES:
  {"type": "hour",  "payload": <game.Event>}
  {"type": "state", "payload": <game.State>}   sent once on connect
  Pulse events are not forwarded.

SEE ALSO:
  - server.go: GET /ws
  - broadcaster.go: periodic stats push
*/
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/warp/gridtycoon/game"
	"github.com/warp/gridtycoon/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

// Message is the JSON envelope of everything pushed to clients.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// client is a single connected browser.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of active clients and broadcasts messages.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}

	// Hello builds the first message a new client receives.
	Hello   func() Message
	Logger  *slog.Logger
	Metrics *metrics.Collector
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		Logger:     slog.Default().With("component", "hub"),
	}
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			h.gauge()
			h.Logger.Debug("client connected", "clients", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.gauge()
}

func (h *Hub) gauge() {
	if h.Metrics != nil {
		h.Metrics.WSClients.Set(float64(len(h.clients)))
	}
}

// Broadcast queues a message for every client. It never blocks.
func (h *Hub) Broadcast(m Message) {
	data, err := json.Marshal(m)
	if err != nil {
		h.Logger.Error("encode message failed", "type", m.Type, "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.Logger.Warn("broadcast queue full, message dropped", "type", m.Type)
	}
}

// Observe is a game.Listener forwarding every event except pulses.
func (h *Hub) Observe(ev game.Event) {
	if ev.Kind == game.EventPulse {
		return
	}
	h.Broadcast(Message{Type: string(ev.Kind), Payload: ev})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and registers the client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	if h.Hello != nil {
		if data, err := json.Marshal(h.Hello()); err == nil {
			c.send <- data
		}
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump only watches for close and pong frames; clients send intents
// over HTTP.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
