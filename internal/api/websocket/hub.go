package websocket

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/pkg/metrics"
	"github.com/rs/zerolog/log"
)

type Hub struct {
	clients    map[*Client]bool
	projConns  map[uuid.UUID]map[*Client]bool // project subscriptions
	execConns  map[uuid.UUID]map[*Client]bool // execution subscriptions
	broadcast  chan []byte
	targeted   chan targetedMessage
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// targetedMessage is a payload addressed to the subscribers of one project
// or one execution.
type targetedMessage struct {
	projectID   *uuid.UUID
	executionID *uuid.UUID
	data        []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		projConns:  make(map[uuid.UUID]map[*Client]bool),
		execConns:  make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan []byte),
		targeted:   make(chan targetedMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.WebSocketConnections.Inc()

			log.Debug().Msg("WebSocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.removeSubscriptions(client)
				metrics.WebSocketConnections.Dec()
			}
			h.mu.Unlock()

			log.Debug().Msg("WebSocket client disconnected")

		case message := <-h.broadcast:
			h.deliver(h.allClients(), message)

		case msg := <-h.targeted:
			if msg.projectID != nil {
				h.deliver(h.projectSubscribers(*msg.projectID), msg.data)
			}
			if msg.executionID != nil {
				h.deliver(h.executionSubscribers(*msg.executionID), msg.data)
			}
		}
	}
}

// deliver fans a payload out to a snapshot of clients. Clients whose send
// buffers are full get evicted instead of blocking the hub. Delivery and
// eviction both happen on the Run goroutine, so a Send channel is never
// written after it is closed.
func (h *Hub) deliver(clients []*Client, data []byte) {
	var stalled []*Client
	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			stalled = append(stalled, client)
		}
	}
	if len(stalled) > 0 {
		h.evict(stalled)
	}
}

// evict drops stalled clients. The membership check keeps a client from
// being closed twice when it appears in several snapshots or unregisters
// while a delivery is queued.
func (h *Hub) evict(clients []*Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range clients {
		if _, ok := h.clients[client]; !ok {
			continue
		}
		delete(h.clients, client)
		close(client.Send)
		h.removeSubscriptions(client)
		metrics.WebSocketConnections.Dec()
	}
}

func (h *Hub) allClients() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

func (h *Hub) projectSubscribers(projectID uuid.UUID) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := h.projConns[projectID]
	clients := make([]*Client, 0, len(conns))
	for client := range conns {
		clients = append(clients, client)
	}
	return clients
}

func (h *Hub) executionSubscribers(executionID uuid.UUID) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := h.execConns[executionID]
	clients := make([]*Client, 0, len(conns))
	for client := range conns {
		clients = append(clients, client)
	}
	return clients
}

// removeSubscriptions must be called with h.mu held.
func (h *Hub) removeSubscriptions(client *Client) {
	for projectID, conns := range h.projConns {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.projConns, projectID)
		}
	}
	for executionID, conns := range h.execConns {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.execConns, executionID)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) Broadcast(message []byte) {
	h.broadcast <- message
}

func (h *Hub) BroadcastToProject(projectID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.targeted <- targetedMessage{projectID: &projectID, data: data}
}

func (h *Hub) BroadcastToExecution(executionID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.targeted <- targetedMessage{executionID: &executionID, data: data}
}

func (h *Hub) SubscribeToProject(client *Client, projectID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.projConns[projectID]; !ok {
		h.projConns[projectID] = make(map[*Client]bool)
	}
	h.projConns[projectID][client] = true
}

func (h *Hub) UnsubscribeFromProject(client *Client, projectID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.projConns[projectID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.projConns, projectID)
		}
	}
}

func (h *Hub) SubscribeToExecution(client *Client, executionID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.execConns[executionID]; !ok {
		h.execConns[executionID] = make(map[*Client]bool)
	}
	h.execConns[executionID][client] = true
}

func (h *Hub) UnsubscribeFromExecution(client *Client, executionID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.execConns[executionID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.execConns, executionID)
		}
	}
}

func (h *Hub) CleanupExecutionSubscriptions(executionID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.execConns, executionID)
}

func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
