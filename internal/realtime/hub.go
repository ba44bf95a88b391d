package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/linkupapp/backend/internal/logger"
	"go.uber.org/zap"
)

// Event is the envelope pushed to connected clients.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub tracks websocket clients keyed by user id. Pushes are fire-and-forget:
// no delivery acknowledgment, no retry, no ordering guarantee across emits. A
// client that cannot keep up is disconnected rather than blocking the sender.
type Hub struct {
	mu    sync.RWMutex
	users map[uint]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{users: make(map[uint]map[*Client]bool)}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[c.userID] == nil {
		h.users[c.userID] = make(map[*Client]bool)
	}
	h.users[c.userID][c] = true
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns := h.users[c.userID]; conns != nil {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.users, c.userID)
		}
	}
}

// EmitToUser pushes an event to every connection the user has open. Failures
// never propagate to the caller; the triggering operation already succeeded.
func (h *Hub) EmitToUser(userID uint, event string, payload interface{}) {
	b, err := json.Marshal(Event{Event: event, Data: payload})
	if err != nil {
		logger.Log.Warn("Dropping realtime event: marshal failed",
			zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	conns := make([]*Client, 0, len(h.users[userID]))
	for c := range h.users[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		select {
		case <-c.done:
			// Disconnected between the snapshot and the send.
		case c.send <- b:
		default:
			// Slow consumer: drop the connection, not the request.
			go c.Close()
		}
	}
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)
