package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"inkwell/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const maxClients = 10000

// ErrTooManyClients is returned by Register when the hub is full.
var ErrTooManyClients = errors.New("event stream connection limit reached")

// Hub relays events from the Redis channel to every connected websocket client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
	logger  *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{clients: make(map[*Client]struct{}), logger: logger}
}

// Register adds a connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || len(h.clients) >= maxClients {
		return nil, ErrTooManyClients
	}
	c := newClient(h, conn)
	h.clients[c] = struct{}{}
	observability.WebSocketConnections.Inc()
	return c, nil
}

// Unregister removes the client and closes its send queue. Repeated calls are no-ops.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.Send)
	observability.WebSocketConnections.Dec()
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues payload for every client and returns how many accepted it.
func (h *Hub) Broadcast(payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients {
		if c.trySend(payload) {
			delivered++
		}
	}
	return delivered
}

// Run subscribes the hub to the publisher's channel until ctx is done.
func (h *Hub) Run(ctx context.Context, p *Publisher) error {
	return p.Subscribe(ctx, func(payload string) {
		h.Broadcast([]byte(payload))
	})
}

// Shutdown disconnects every client. Each client's WritePump sends the
// going-away close frame once its send queue is closed.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	goingAway := websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")
	for c := range h.clients {
		c.closeFrame = goingAway
		delete(h.clients, c)
		close(c.Send)
		observability.WebSocketConnections.Dec()
	}
	return nil
}
