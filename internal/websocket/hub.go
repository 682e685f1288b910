package websocket

import (
	"context"
	"sync"

	"EnviroMonitorAPI/internal/logger"
)

// Event is the wire envelope pushed to dashboard clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	log        *logger.Logger
	mu         sync.RWMutex
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

// Run drives the hub loop until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("WebSocket hub started")
	for {
		select {
		case <-ctx.Done():
			h.log.Info("WebSocket hub shutting down")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Info("WS client connected. Total: %d", len(h.clients))
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case event := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- event:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast fans an event out to every connected client. Non-blocking for
// the caller; slow clients are dropped rather than stalling the alert path.
func (h *Hub) Broadcast(eventType string, payload interface{}) {
	select {
	case h.broadcast <- Event{Type: eventType, Payload: payload}:
	default:
		h.log.Warn("WS broadcast buffer full, dropping %s event", eventType)
	}
}
