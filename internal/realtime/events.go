// file: internal/realtime/events.go
// version: 2.1.0
// guid: 9e8d7f6a-5c4b-3a21-0f9e-8d7c6b5a4392

package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	ulid "github.com/oklog/ulid/v2"
)

// EventType defines the type of real-time event
type EventType string

const (
	EventConnectionEstablished EventType = "connection.established"
	EventBookUpdated           EventType = "book.updated"
	EventHeartbeat             EventType = "heartbeat"
	EventSystemShutdown        EventType = "system.shutdown"
)

// DefaultHeartbeatInterval keeps idle proxies from closing the stream.
const DefaultHeartbeatInterval = 15 * time.Second

// Event represents a real-time event to send to clients
type Event struct {
	Type      EventType      `json:"type"`
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Client represents a connected SSE client
type Client struct {
	ID      string
	Channel chan *Event
}

// NewClient creates a new SSE client
func NewClient(id string) *Client {
	return &Client{
		ID:      id,
		Channel: make(chan *Event, 16),
	}
}

// EventHub manages SSE connections and event distribution
type EventHub struct {
	mu        sync.RWMutex
	clients   map[string]*Client
	heartbeat time.Duration
}

// NewEventHub creates a new event hub
func NewEventHub() *EventHub {
	return &EventHub{
		clients:   make(map[string]*Client),
		heartbeat: DefaultHeartbeatInterval,
	}
}

// SetHeartbeatInterval changes how often idle streams receive a heartbeat.
func (h *EventHub) SetHeartbeatInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultHeartbeatInterval
	}
	h.mu.Lock()
	h.heartbeat = d
	h.mu.Unlock()
}

// HeartbeatInterval returns the current heartbeat period.
func (h *EventHub) HeartbeatInterval() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.heartbeat
}

// RegisterClient registers a new client
func (h *EventHub) RegisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("[DEBUG] SSE client %s registered, total clients: %d", client.ID, len(h.clients))
}

// UnregisterClient removes a client
func (h *EventHub) UnregisterClient(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.clients[clientID]; exists {
		close(client.Channel)
		delete(h.clients, clientID)
		log.Printf("[DEBUG] SSE client %s unregistered, remaining clients: %d", clientID, len(h.clients))
	}
}

// CloseAll disconnects every client by closing its channel. Streams served
// by HandleSSE return once they drain. Used on server shutdown.
func (h *EventHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.Channel)
		delete(h.clients, id)
	}
	log.Println("[DEBUG] SSE clients disconnected")
}

// Broadcast sends an event to every client. A client whose buffer is full
// misses the event rather than blocking the sender.
func (h *EventHub) Broadcast(event *Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, client := range h.clients {
		select {
		case client.Channel <- event:
			count++
		default:
			log.Printf("[WARN] SSE client %s channel full, dropping %s event", client.ID, event.Type)
		}
	}

	if count > 0 {
		log.Printf("[DEBUG] Broadcasted event %s to %d clients", event.Type, count)
	}
	return count
}

// SendBookUpdated tells open pages that the current book changed.
func (h *EventHub) SendBookUpdated(title, author string, updatedAt time.Time) int {
	return h.Broadcast(&Event{
		Type:      EventBookUpdated,
		ID:        ulid.Make().String(),
		Timestamp: time.Now(),
		Data: map[string]any{
			"title":     title,
			"author":    author,
			"updatedAt": updatedAt,
		},
	})
}

// SendShutdown tells clients the server is going away.
func (h *EventHub) SendShutdown() int {
	return h.Broadcast(&Event{
		Type:      EventSystemShutdown,
		ID:        ulid.Make().String(),
		Timestamp: time.Now(),
		Data:      map[string]any{"message": "Server is shutting down"},
	})
}

// GetClientCount returns the number of connected clients
func (h *EventHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func writeEvent(c *gin.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// HandleSSE streams events to one client. The stream ends after a shutdown
// event is delivered or when the hub closes the client.
func (h *EventHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	// The server-wide write timeout would otherwise cut long-lived streams.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	clientID := "client-" + ulid.Make().String()
	client := NewClient(clientID)

	h.RegisterClient(client)
	defer h.UnregisterClient(clientID)

	interval := h.HeartbeatInterval()

	if err := writeEvent(c, &Event{
		Type:      EventConnectionEstablished,
		Timestamp: time.Now(),
		Data:      map[string]any{"client_id": clientID},
	}); err != nil {
		log.Printf("[WARN] SSE client %s: %v", clientID, err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case event, ok := <-client.Channel:
			if !ok {
				return
			}
			if err := writeEvent(c, event); err != nil {
				log.Printf("[WARN] Error writing to SSE client %s: %v", clientID, err)
				return
			}
			if event.Type == EventSystemShutdown {
				return
			}
		case <-ticker.C:
			if err := writeEvent(c, &Event{Type: EventHeartbeat, Timestamp: time.Now()}); err != nil {
				return
			}
		}
	}
}

// Global event hub instance
var GlobalHub *EventHub

// InitializeEventHub initializes the global event hub
func InitializeEventHub() {
	if GlobalHub != nil {
		log.Println("[WARN] event hub already initialized")
		return
	}
	GlobalHub = NewEventHub()
	log.Println("[INFO] Event hub initialized")
}
