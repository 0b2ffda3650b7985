package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a change notification delivered to the clients of one
// household.
type Message struct {
	Type        string `json:"type"`
	Entity      string `json:"entity"`
	Action      string `json:"action"`
	ID          string `json:"id,omitempty"`
	HouseholdID string `json:"householdId"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(householdID, entity, action, id string) Message {
	return Message{
		Type:        fmt.Sprintf("%s_%s", entity, action),
		Entity:      entity,
		Action:      action,
		ID:          id,
		HouseholdID: householdID,
	}
}

// Hub tracks connected clients per household and fans messages out to the
// clients of the message's household.
type Hub struct {
	mu         sync.RWMutex
	households map[string]map[*Client]struct{}
	logger     *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		households: make(map[string]map[*Client]struct{}),
		logger:     logger,
	}
}

// Register adds a client to its household's set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.households[c.householdID]
	if !ok {
		set = make(map[*Client]struct{})
		h.households[c.householdID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.households[c.householdID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.households, c.householdID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends msg to every client connected to msg.HouseholdID.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.households[msg.HouseholdID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping message for slow client", "household_id", msg.HouseholdID, "type", msg.Type)
		}
	}
}

// ClientCount returns the number of connected clients across households.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.households {
		n += len(set)
	}
	return n
}

// HouseholdClientCount returns the number of clients watching householdID.
func (h *Hub) HouseholdClientCount(householdID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.households[householdID])
}
