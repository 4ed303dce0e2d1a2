// internal/handler/websocket_types.go
package handler

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"printer-service/internal/model"
)

// Client represents a WebSocket client
type Client struct {
	ID          string          `json:"id"`
	Connection  *websocket.Conn `json:"-"`
	Send        chan []byte     `json:"-"`
	PrinterID   string          `json:"printer_id,omitempty"`
	UserAgent   string          `json:"user_agent"`
	RemoteAddr  string          `json:"remote_addr"`
	ConnectedAt time.Time       `json:"connected_at"`

	mu            sync.Mutex
	subscriptions map[model.EventType]bool
}

// Subscribe adds an event type; a client without subscriptions gets all
func (c *Client) Subscribe(t model.EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscriptions == nil {
		c.subscriptions = make(map[model.EventType]bool)
	}
	c.subscriptions[t] = true
}

// Unsubscribe removes an event type
func (c *Client) Unsubscribe(t model.EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, t)
}

// Subscriptions lists the subscribed event types
func (c *Client) Subscriptions() []model.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.EventType, 0, len(c.subscriptions))
	for t := range c.subscriptions {
		out = append(out, t)
	}
	return out
}

// Wants reports whether e passes the client's printer and type filters
func (c *Client) Wants(e model.Event) bool {
	if c.PrinterID != "" && e.PrinterID != c.PrinterID {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscriptions) == 0 || c.subscriptions[e.Type]
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// ConnectionManager tracks WebSocket clients. A client's Send channel is
// closed on unregister, never while a broadcast holds the read lock.
type ConnectionManager struct {
	clients map[string]*Client
	mutex   sync.RWMutex
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{clients: make(map[string]*Client)}
}

// Register registers a new client
func (cm *ConnectionManager) Register(client *Client) {
	cm.mutex.Lock()
	cm.clients[client.ID] = client
	cm.mutex.Unlock()
}

// Unregister removes a client and closes its send channel
func (cm *ConnectionManager) Unregister(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	if _, ok := cm.clients[client.ID]; ok {
		delete(cm.clients, client.ID)
		close(client.Send)
	}
}

// UnregisterAll drops every client
func (cm *ConnectionManager) UnregisterAll() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	for id, client := range cm.clients {
		delete(cm.clients, id)
		close(client.Send)
	}
}

// Each calls fn for every client under the read lock; fn must not block
func (cm *ConnectionManager) Each(fn func(*Client)) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	for _, client := range cm.clients {
		fn(client)
	}
}

// GetStats returns connection statistics
func (cm *ConnectionManager) GetStats() *ConnectionStats {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	stats := &ConnectionStats{
		TotalConnections: len(cm.clients),
		ByPrinter:        make(map[string]int),
		Clients:          make([]*Client, 0, len(cm.clients)),
	}

	for _, client := range cm.clients {
		key := client.PrinterID
		if key == "" {
			key = "*"
		}
		stats.ByPrinter[key]++
		stats.Clients = append(stats.Clients, client)
	}

	return stats
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ByPrinter        map[string]int `json:"by_printer"`
	Clients          []*Client      `json:"clients"`
}
