package ws

import (
	"context"
	"encoding/json"
	"sync"

	"avatar_bot/internal/domain"
	"avatar_bot/internal/logger"
)

// Hub tracks live Mini App connections per user and pushes ledger events to
// them. A user may have several connections (tabs, devices).
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; ok {
		delete(set, c)
		close(c.Send)
	}
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
}

// Connections returns the number of live connections of userID.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Notify pushes ev to every connection of ev.UserID. Users without a live
// connection are skipped; a connection whose buffer is full drops the event.
func (h *Hub) Notify(_ context.Context, ev domain.Event) error {
	msg, err := json.Marshal(Envelope{Type: MsgEvent, Data: &ev})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[ev.UserID] {
		select {
		case c.Send <- msg:
		default:
			logger.Component("ws").Warn("send buffer full, event dropped",
				"user_id", ev.UserID,
				"client_id", c.ID,
				"kind", ev.Kind,
			)
		}
	}
	return nil
}

// CloseAll disconnects every client. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	var all []*Client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		_ = c.Conn.Close()
	}
}
