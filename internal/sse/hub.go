package sse

import (
	"encoding/json"
	"log"
	"sync"
)

// Event types pushed to clients
const (
	EventNotification     = "notification"
	EventProductionUpdate = "production_update"
	EventOrderUpdate      = "order_update"
	EventStockUpdate      = "stock_update"
	EventShortageAlert    = "shortage_alert"
)

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("[SSE] Client registered: id=%s user=%s (total: %d)", client.ID, client.UserID, len(h.clients))
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		log.Printf("[SSE] Client unregistered: id=%s (total: %d)", clientID, len(h.clients))
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to all connected clients. Slow clients whose
// buffer is full miss the event.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			log.Printf("[SSE] Client %s buffer full, skipping event", client.ID)
		}
	}
}

// SendToUser delivers an event to every connection of one user.
func (h *Hub) SendToUser(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.UserID != userID {
			continue
		}
		select {
		case client.Events <- event:
		default:
			log.Printf("[SSE] Client %s buffer full, skipping user event", client.ID)
		}
	}
}

// Publish encodes payload as JSON and broadcasts it.
func (h *Hub) Publish(eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[SSE] Failed to encode %s event: %v", eventType, err)
		return
	}
	h.Broadcast(Event{EventType: eventType, Data: string(data)})
}

// PublishToUser encodes payload as JSON and sends it to one user's connections.
func (h *Hub) PublishToUser(userID, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[SSE] Failed to encode %s event: %v", eventType, err)
		return
	}
	h.SendToUser(userID, Event{EventType: eventType, Data: string(data)})
}
