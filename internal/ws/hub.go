package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Event types pushed to feed clients.
const (
	EventNewConfession = "new_confession"
	EventReaction      = "reaction"
	EventReport        = "report"
	EventNewComment    = "new_comment"
)

// Message is the JSON envelope every client receives.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub maintains the set of active clients and fans out feed events.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	allowedOrigin string
	onChange      func(clients int)

	mu sync.RWMutex
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithClientCountHook is called from the hub loop whenever a client joins
// or leaves.
func WithClientCountHook(fn func(clients int)) HubOption {
	return func(h *Hub) { h.onChange = fn }
}

// NewHub returns a hub accepting upgrades from allowedOrigin ("*" allows any).
func NewHub(allowedOrigin string, opts ...HubOption) *Hub {
	h := &Hub{
		clients:       make(map[*Client]bool),
		broadcast:     make(chan []byte, 256),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		done:          make(chan struct{}),
		allowedOrigin: allowedOrigin,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	slog.Info("websocket hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			slog.Info("websocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			slog.Debug("websocket client registered", "client", client.id, "clients", n)
			h.changed(n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			slog.Debug("websocket client unregistered", "client", client.id, "clients", n)
			h.changed(n)

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					slog.Warn("websocket send buffer full, dropping event", "client", client.id)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) changed(n int) {
	if h.onChange != nil {
		h.onChange(n)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues an event for every client. It never blocks: when the
// broadcast queue is full the event is dropped.
func (h *Hub) Publish(eventType string, data any) {
	payload, err := json.Marshal(Message{Type: eventType, Data: data})
	if err != nil {
		slog.Error("marshal websocket event", "type", eventType, "err", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		slog.Warn("websocket broadcast queue full, dropping event", "type", eventType)
	}
}
