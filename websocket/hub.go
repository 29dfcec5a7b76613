package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"field-service-server/metrics"
)

// Client is a connected dispatch board
type Client struct {
	Hub      *Hub
	TenantID uint
	UserID   uint
	Conn     *websocket.Conn
	Send     chan []byte

	mu     sync.Mutex
	closed bool
}

// trySend queues data without blocking; false means the client is gone or slow.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Message is the envelope pushed to dispatch boards
type Message struct {
	Type      string      `json:"type"`
	TenantID  uint        `json:"tenant_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// MessageHandler handles a message sent by a client
type MessageHandler func(*Client, *Message) error

// Hub fans booking events out to the dispatch boards of each tenant
type Hub struct {
	// Connected clients by tenant
	tenants map[uint]map[*Client]bool

	// Broadcast channel for tenant-scoped messages
	Broadcast chan *Message

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Message handlers by type
	MessageHandlers map[string]MessageHandler

	// Closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	hub := &Hub{
		tenants:         make(map[uint]map[*Client]bool),
		Broadcast:       make(chan *Message, 256),
		Register:        make(chan *Client),
		Unregister:      make(chan *Client),
		MessageHandlers: make(map[string]MessageHandler),
		done:            make(chan struct{}),
	}
	hub.MessageHandlers["ping"] = hub.handlePing
	return hub
}

// Run starts the hub's main loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.Register:
			h.mu.Lock()
			if h.tenants[client.TenantID] == nil {
				h.tenants[client.TenantID] = make(map[*Client]bool)
			}
			h.tenants[client.TenantID][client] = true
			h.mu.Unlock()
			metrics.DispatchConnections.Inc()
			log.Printf("🔌 Dispatch board registered: tenant=%d user=%d", client.TenantID, client.UserID)

		case client := <-h.Unregister:
			h.remove(client)

		case message := <-h.Broadcast:
			h.broadcastToTenant(message)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.tenants[client.TenantID]
	if !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.tenants, client.TenantID)
	}
	client.close()
	metrics.DispatchConnections.Dec()
	log.Printf("🔌 Dispatch board unregistered: tenant=%d user=%d", client.TenantID, client.UserID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for tenantID, clients := range h.tenants {
		for client := range clients {
			client.close()
			metrics.DispatchConnections.Dec()
		}
		delete(h.tenants, tenantID)
	}
}

// broadcastToTenant sends a message to every board of the message's tenant
func (h *Hub) broadcastToTenant(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	var slow []*Client
	for client := range h.tenants[message.TenantID] {
		if !client.trySend(data) {
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		log.Printf("⚠️ Dropping dispatch board for user %d: send buffer is full", client.UserID)
		h.remove(client)
	}
}

// Publish queues a booking event for the tenant's boards. It never blocks.
func (h *Hub) Publish(tenantID uint, event string, payload any) {
	message := &Message{
		Type:      event,
		TenantID:  tenantID,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}
	select {
	case h.Broadcast <- message:
	default:
		log.Printf("⚠️ Dispatch broadcast channel is full, dropping %s for tenant %d", event, tenantID)
	}
}

// ConnectedClients returns how many boards of a tenant are connected
func (h *Hub) ConnectedClients(tenantID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tenants[tenantID])
}

// handlePing answers ping messages for connection health
func (h *Hub) handlePing(client *Client, message *Message) error {
	return client.SendMessage(&Message{Type: "pong", Timestamp: time.Now().UTC()})
}
