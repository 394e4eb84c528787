package websocket

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"quickpoll-backend/models"
)

// Client represents one live-results subscriber for a poll.
type Client struct {
	PollID string

	conn *websocket.Conn
	send chan []byte
	// done is closed exactly once when the hub drops the client. The
	// send channel is never closed, so broadcasts racing a disconnect
	// cannot panic on a closed channel.
	done chan struct{}
}

// Hub maintains the set of active clients grouped by poll and broadcasts
// result updates to them.
type Hub struct {
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	// mu protects the clients map
	mu sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes register and unregister requests. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.PollID]; !ok {
				h.clients[client.PollID] = make(map[*Client]bool)
			}
			h.clients[client.PollID][client] = true
			total := len(h.clients[client.PollID])
			h.mu.Unlock()
			log.Printf("Client registered for poll %s, total clients: %d", client.PollID, total)

		case client := <-h.unregister:
			h.mu.Lock()
			h.dropLocked(client)
			h.mu.Unlock()
			log.Printf("Client unregistered for poll %s", client.PollID)
		}
	}
}

// dropLocked removes the client and signals its write pump. Caller must
// hold mu. The membership check makes the done close happen exactly once
// even when an unregister races a slow-consumer drop.
func (h *Hub) dropLocked(client *Client) {
	group, ok := h.clients[client.PollID]
	if !ok {
		return
	}
	if _, ok := group[client]; !ok {
		return
	}
	delete(group, client)
	close(client.done)
	if len(group) == 0 {
		delete(h.clients, client.PollID)
	}
}

// BroadcastToPoll sends a message to every client watching the poll.
func (h *Hub) BroadcastToPoll(pollID string, message *models.WebSocketMessage) {
	payload, err := message.ToJSON()
	if err != nil {
		log.Printf("Error converting message to JSON: %v", err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients[pollID]))
	for client := range h.clients[pollID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- payload:
		default:
			// Slow consumer: drop the connection rather than block the broadcast.
			h.mu.Lock()
			h.dropLocked(client)
			h.mu.Unlock()
		}
	}
}

// RegisterClient adds a client to the hub.
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient removes a client from the hub.
func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// ActiveClients counts currently connected clients across all polls.
func (h *Hub) ActiveClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, group := range h.clients {
		total += len(group)
	}
	return total
}
