// Package hub fans live feed updates out to WebSocket chart clients.
package hub

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	clientBuffer = 256
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// Hub tracks connected WebSocket clients and broadcasts messages to them.
// Slow clients get messages dropped, never block the feed.
type Hub struct {
	// Snapshot, if set, is sent to each client right after it connects,
	// before any broadcast reaches it.
	Snapshot func() []byte

	// OnDrop, if set, is called once per message dropped on a slow client.
	OnDrop func()

	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]chan []byte)}
}

func (h *Hub) register(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, clientBuffer)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

// Broadcast queues msg for every connected client. Non-blocking.
func (h *Hub) Broadcast(msg []byte) {
	if msg == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- msg:
		default: // slow client — drop
			if h.OnDrop != nil {
				h.OnDrop()
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handler upgrades HTTP requests to WebSocket and serves the client until it
// disconnects.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[hub] upgrade error: %v", err)
			return
		}
		log.Printf("[hub] client connected: %s", r.RemoteAddr)

		ch := h.register(conn)
		defer func() {
			h.unregister(conn)
			conn.Close()
			log.Printf("[hub] client disconnected: %s", r.RemoteAddr)
		}()

		// Read pump: we never expect client messages, but reading drains
		// control frames and detects closes promptly.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					h.unregister(conn)
					conn.Close()
					return
				}
			}
		}()

		if h.Snapshot != nil {
			if snap := h.Snapshot(); snap != nil {
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, snap); err != nil {
					return
				}
			}
		}

		// Write pump: sends queued broadcasts to this client.
		for msg := range ch {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
