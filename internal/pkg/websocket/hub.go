package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yigit/photoshare/internal/app/models/dto"
)

// ErrHubClosed is returned by Publish once the hub has stopped
var ErrHubClosed = errors.New("event hub closed")

// Hub maintains the set of active clients and fans events out to them.
// A single goroutine (Run) owns the client set, so events published from
// one process reach each client in publish order.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Events waiting to be fanned out
	broadcast chan dto.Event

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Guards count for readers outside the hub goroutine
	mu    sync.RWMutex
	count int

	// Mutex for event listeners
	listenersMu sync.RWMutex

	// In-process event listeners
	listeners []chan dto.Event

	// Logger for Hub operations
	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan dto.Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Run handles registrations and fan-out until ctx is cancelled. All client
// connections are closed on return.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for client := range h.clients {
			h.dropClient(client)
		}
		close(h.done)
		h.logger.Info().Msg("Event hub stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Done is closed once the hub has stopped
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// registerClient registers a new client to the hub
func (h *Hub) registerClient(client *Client) {
	h.clients[client] = true
	h.setCount(len(h.clients))

	h.logger.Info().
		Str("userID", client.userID).
		Str("addr", client.remoteAddr).
		Msg("Client registered")
}

// unregisterClient unregisters a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	h.dropClient(client)

	h.logger.Info().
		Str("userID", client.userID).
		Str("addr", client.remoteAddr).
		Msg("Client unregistered")
}

// dropClient must run on the hub goroutine
func (h *Hub) dropClient(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.setCount(len(h.clients))
}

// broadcastEvent sends an event to every client. Clients whose buffer is
// full are dropped; they catch up on their next explicit read.
func (h *Hub) broadcastEvent(event dto.Event) {
	h.notifyListeners(event)

	if len(h.clients) == 0 {
		h.logger.Debug().Str("type", string(event.Type)).Msg("No clients for broadcast")
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("type", string(event.Type)).Msg("Failed to marshal event for broadcast")
		return
	}

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn().
				Str("userID", client.userID).
				Str("addr", client.remoteAddr).
				Msg("Dropping slow client")
			h.dropClient(client)
		}
	}

	h.logger.Debug().
		Str("type", string(event.Type)).
		Int("clientCount", len(h.clients)).
		Msg("Event broadcasted")
}

// notifyListeners sends an event to all registered listeners
func (h *Hub) notifyListeners(event dto.Event) {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()

	for _, listener := range h.listeners {
		// Use non-blocking send to avoid blocking on slow listeners
		select {
		case listener <- event:
		default:
			h.logger.Warn().Msg("Skipped slow event listener")
		}
	}
}

// Publish queues event for fan-out. Delivery is at-most-once: there is no
// acknowledgement and nothing is kept for clients that connect later.
func (h *Hub) Publish(ctx context.Context, event dto.Event) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}

	select {
	case h.broadcast <- event:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register adds a client; it fails once the hub has stopped
func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// Unregister removes a client; it is a no-op once the hub has stopped
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// AddListener registers a channel to receive every published event
func (h *Hub) AddListener(listener chan dto.Event) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()

	h.listeners = append(h.listeners, listener)
	h.logger.Debug().Msg("Added event listener")
}

// RemoveListener removes a listener from the hub
func (h *Hub) RemoveListener(listener chan dto.Event) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()

	for i, l := range h.listeners {
		if l == listener {
			// Remove listener by replacing it with the last one and truncating
			h.listeners[i] = h.listeners[len(h.listeners)-1]
			h.listeners = h.listeners[:len(h.listeners)-1]
			h.logger.Debug().Msg("Removed event listener")
			break
		}
	}
}
