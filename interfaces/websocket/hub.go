package websocket

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// SessionGauge tracks open sessions
type SessionGauge interface {
	SessionOpened()
	SessionClosed()
}

type broadcast struct {
	userID string
	data   []byte
}

// Hub maintains the open sessions of every user and fans messages out to them
type Hub struct {
	// userID -> set of clients
	connections map[string]map[*Client]bool
	mu          sync.RWMutex

	broadcast chan broadcast

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	metrics SessionGauge
	logger  *zap.Logger
}

// NewHub creates a new hub. Run must be started for notifications to be delivered.
func NewHub(metrics SessionGauge, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		connections: make(map[string]map[*Client]bool),
		broadcast:   make(chan broadcast, 1000),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		metrics:     metrics,
		logger:      logger,
	}
}

// Run is the hub's event loop. It returns after Stop.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("Hub shutting down")
			h.closeAllConnections()
			return

		case msg := <-h.broadcast:
			h.broadcastToUser(msg)
		}
	}
}

// Stop shuts the hub down and closes every session
func (h *Hub) Stop() {
	h.logger.Info("Stopping WebSocket hub")
	h.cancel()
	<-h.done
}

// NotifyUser queues message for every open session of userID. Messages for
// users without sessions are dropped.
func (h *Hub) NotifyUser(userID string, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal notification", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- broadcast{userID: userID, data: data}:
	default:
		h.logger.Warn("Broadcast channel full, message dropped", zap.String("userID", userID))
	}
}

// ConnectionCount returns the number of open sessions of a user
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

// CourseNames lists, sorted and without duplicates, the course names of the
// graphs mounted by userID's open sessions
func (h *Hub) CourseNames(userID string) []string {
	var names []string
	for _, c := range h.clients(userID) {
		names = append(names, c.store.CourseNames()...)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func (h *Hub) clients(userID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.connections[userID]))
	for c := range h.connections[userID] {
		clients = append(clients, c)
	}
	return clients
}

// registerClient adds a session. It refuses once the hub is stopping, since
// closeAllConnections would never see the client.
func (h *Hub) registerClient(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctx.Err() != nil {
		return false
	}

	if h.connections[client.userID] == nil {
		h.connections[client.userID] = make(map[*Client]bool)
	}
	h.connections[client.userID][client] = true
	if h.metrics != nil {
		h.metrics.SessionOpened()
	}

	h.logger.Info("Client registered",
		zap.String("userID", client.userID),
		zap.String("connectionID", client.id),
		zap.Int("userConnections", len(h.connections[client.userID])),
	)
	return true
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.connections[client.userID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.connections, client.userID)
	}
	client.close()
	if h.metrics != nil {
		h.metrics.SessionClosed()
	}

	h.logger.Info("Client unregistered",
		zap.String("userID", client.userID),
		zap.String("connectionID", client.id),
		zap.Int("remainingConnections", len(clients)),
	)
}

func (h *Hub) broadcastToUser(msg broadcast) {
	clients := h.clients(msg.userID)
	if len(clients) == 0 {
		h.logger.Debug("No active connections for user", zap.String("userID", msg.userID))
		return
	}

	for _, c := range clients {
		if err := c.enqueue(msg.data); err != nil {
			h.logger.Warn("Closing slow client",
				zap.String("userID", c.userID),
				zap.String("connectionID", c.id),
				zap.Error(err),
			)
			h.unregisterClient(c)
		}
	}
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.connections {
		for client := range clients {
			client.close()
			if h.metrics != nil {
				h.metrics.SessionClosed()
			}
		}
		delete(h.connections, userID)
	}
	h.logger.Info("All connections closed")
}
