package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/vetra-app/vetra/internal/events"
)

// Client classes. Everything registered with the hub belongs to exactly one.
const (
	ClassUser  = "user"
	ClassShop  = "shop"
	ClassAdmin = "admin"
)

// ValidClass reports whether s names a known client class.
func ValidClass(s string) bool {
	return s == ClassUser || s == ClassShop || s == ClassAdmin
}

// Hub is the in-memory registry of live connections, keyed by class and
// identity, with optional room memberships on top. All access to the maps
// goes through the mutex; delivery itself happens on the per-client queues
// outside the lock.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[int64]*Client
	rooms   map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: map[string]map[int64]*Client{
			ClassUser:  {},
			ClassShop:  {},
			ClassAdmin: {},
		},
		rooms: make(map[string]map[*Client]struct{}),
	}
}

// Register adds a connection under its class and identity. A prior connection
// for the same key is replaced (last write wins) and shut down, so it stops
// receiving broadcasts immediately.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	byIdentity, ok := h.clients[c.Class]
	if !ok {
		byIdentity = make(map[int64]*Client)
		h.clients[c.Class] = byIdentity
	}
	prev := byIdentity[c.Identity]
	byIdentity[c.Identity] = c
	if prev != nil && prev != c {
		h.removeFromRoomsLocked(prev)
	}
	h.mu.Unlock()

	if prev != nil && prev != c {
		prev.shutdown()
	}
	log.Printf("ws connected: %s:%d (%s)", c.Class, c.Identity, c.ID)
}

// Unregister removes a connection and its room memberships. Idempotent: a
// connection that was already removed (or replaced by a newer one for the
// same identity) is only shut down, never double-deleted.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if cur, ok := h.clients[c.Class][c.Identity]; ok && cur == c {
		delete(h.clients[c.Class], c.Identity)
	}
	h.removeFromRoomsLocked(c)
	h.mu.Unlock()

	c.shutdown()
}

func (h *Hub) removeFromRoomsLocked(c *Client) {
	for name, members := range h.rooms {
		if _, ok := members[c]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, name)
			}
		}
	}
}

// JoinRoom adds a connection to a named room.
func (h *Hub) JoinRoom(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

// LeaveRoom removes a connection from a room, dropping the room once empty.
func (h *Hub) LeaveRoom(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// SendToIdentity delivers one event to the addressed connection, if it is
// currently registered. Unknown recipients are silently dropped; a recipient
// that cannot accept the write is unregistered.
func (h *Hub) SendToIdentity(evt events.Event, class string, identity int64) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("could not marshal %s event: %v", evt.Event, err)
		return
	}
	h.mu.RLock()
	c := h.clients[class][identity]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	if !c.enqueue(data) {
		h.Unregister(c)
	}
}

// BroadcastToClass delivers one event to every registered connection of the
// class. Delivery is independent per recipient: a dead socket is unregistered
// and the rest still receive the event.
func (h *Hub) BroadcastToClass(evt events.Event, class string) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("could not marshal %s event: %v", evt.Event, err)
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[class]))
	for _, c := range h.clients[class] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(data) {
			h.Unregister(c)
		}
	}
}

// BroadcastToRoom delivers one event to every member of the room.
func (h *Hub) BroadcastToRoom(evt events.Event, room string) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("could not marshal %s event: %v", evt.Event, err)
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(data) {
			h.Unregister(c)
		}
	}
}

// Kick force-closes the connection of one identity, e.g. after an account
// suspension invalidates its credential.
func (h *Hub) Kick(class string, identity int64) {
	h.mu.RLock()
	c := h.clients[class][identity]
	h.mu.RUnlock()
	if c != nil {
		h.Unregister(c)
	}
}

// Stats is the read-only connection census for monitoring.
type Stats struct {
	Total   int            `json:"total"`
	ByClass map[string]int `json:"by_type"`
	Rooms   map[string]int `json:"rooms"`
}

// Stats returns live connection counts by class and room.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s := Stats{
		ByClass: make(map[string]int, len(h.clients)),
		Rooms:   make(map[string]int, len(h.rooms)),
	}
	for class, byIdentity := range h.clients {
		s.ByClass[class] = len(byIdentity)
		s.Total += len(byIdentity)
	}
	for name, members := range h.rooms {
		s.Rooms[name] = len(members)
	}
	return s
}
