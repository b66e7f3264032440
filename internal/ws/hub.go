package ws

import (
	"log/slog"
	"sync"
	"time"
)

// Room is a named multicast group used for broadcast fan-out
type Room string

const (
	// RoomGM receives full, unredacted messages
	RoomGM Room = "gm"
	// RoomPlayer receives redacted messages
	RoomPlayer Room = "player"
)

// envelope is one queued broadcast. An empty room addresses every
// connection, joined or not.
type envelope struct {
	room Room
	data []byte
}

// Hub tracks connected clients and their room membership and fans
// broadcasts out to them. Sends are fire-and-forget: a slow client's
// message is dropped, a disconnected client simply does not receive it.
type Hub struct {
	clients map[*Client]Room
	mu      sync.RWMutex
	logger  *slog.Logger

	// Channels for managing clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]Room),
		logger:     logger.With(slog.String("component", "hub")),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = ""
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client registered",
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				duration := time.Since(client.connectedAt)
				h.logger.Info("client unregistered",
					slog.Duration("connection_duration", duration),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case msg := <-h.broadcast:
			h.mu.RLock()
			sentCount := 0
			droppedCount := 0
			for client, room := range h.clients {
				if msg.room != "" && room != msg.room {
					continue
				}
				select {
				case client.send <- msg.data:
					sentCount++
				default:
					droppedCount++
				}
			}
			h.mu.RUnlock()
			if droppedCount > 0 {
				h.logger.Warn("broadcast partial failure",
					slog.String("room", string(msg.room)),
					slog.Int("sent", sentCount),
					slog.Int("dropped", droppedCount))
			}

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				// close the connection rather than the send channel: a
				// live ReadPump may still queue onto send concurrently
				if client.conn != nil {
					_ = client.conn.Close()
				}
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// Register adds a client to the hub. Returns immediately once the hub
// has shut down.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub. Returns immediately once
// the hub has shut down.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Join moves a client into a room. A client belongs to at most one room.
func (h *Hub) Join(client *Client, room Room) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		h.clients[client] = room
	}
	h.mu.Unlock()
}

// Leave removes a client from its room without disconnecting it
func (h *Hub) Leave(client *Client) {
	h.Join(client, "")
}

// Broadcast queues a message for every member of a room
func (h *Hub) Broadcast(room Room, data []byte) {
	select {
	case h.broadcast <- envelope{room: room, data: data}:
	default:
		h.logger.Warn("broadcast dropped - hub buffer full",
			slog.String("room", string(room)))
	}
}

// BroadcastAll queues a message for every connection regardless of room
func (h *Hub) BroadcastAll(data []byte) {
	h.Broadcast("", data)
}

// Close shuts down the hub. Safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of clients joined to a room
func (h *Hub) RoomCount(room Room) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, r := range h.clients {
		if r == room {
			n++
		}
	}
	return n
}
