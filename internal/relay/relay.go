package relay

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"chessroom/internal/domain/event"
)

// Relay owns every live connection and the room subscriptions used for
// fan-out. Rooms reference connections by id only; the reverse mapping
// lives here. Delivery is best effort and at most once: no buffering
// guarantee, no retry, a disconnected peer simply misses the event.
type Relay struct {
	mu        sync.Mutex
	conns     map[string]*Connection
	rooms     map[string]map[string]struct{}
	connRooms map[string]string
	log       *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Relay {
	return &Relay{
		conns:     make(map[string]*Connection),
		rooms:     make(map[string]map[string]struct{}),
		connRooms: make(map[string]string),
		log:       log,
	}
}

func (r *Relay) Register(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID] = c
}

// Release drops the connection from the registry and any subscription
// and closes its send queue. Call only after the session controller has
// handled the disconnect, so teardown observes a consistent set.
func (r *Relay) Release(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connID]
	if !ok {
		return
	}
	delete(r.conns, connID)
	r.unsubscribeLocked(connID)
	close(c.send)
}

// Subscribe adds the connection to a room's fan-out group. A connection
// belongs to at most one room; subscribing again moves it.
func (r *Relay) Subscribe(connID, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unsubscribeLocked(connID)
	group, ok := r.rooms[code]
	if !ok {
		group = make(map[string]struct{})
		r.rooms[code] = group
	}
	group[connID] = struct{}{}
	r.connRooms[connID] = code
}

// DropRoom removes a torn-down room's subscription group.
func (r *Relay) DropRoom(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for connID := range r.rooms[code] {
		delete(r.connRooms, connID)
	}
	delete(r.rooms, code)
}

// Broadcast delivers the event to every connection subscribed to the
// room except excludeConnID (pass "" to reach everyone).
func (r *Relay) Broadcast(code string, env event.Envelope, excludeConnID string) {
	msg, err := json.Marshal(env)
	if err != nil {
		r.log.Errorw("failed to marshal event", "type", env.Type, "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for connID := range r.rooms[code] {
		if connID == excludeConnID {
			continue
		}
		if c, ok := r.conns[connID]; ok {
			c.enqueue(msg)
		}
	}
}

// Send unicasts the event to a single connection.
func (r *Relay) Send(connID string, env event.Envelope) {
	msg, err := json.Marshal(env)
	if err != nil {
		r.log.Errorw("failed to marshal event", "type", env.Type, "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[connID]; ok {
		c.enqueue(msg)
	}
}

func (r *Relay) unsubscribeLocked(connID string) {
	code, ok := r.connRooms[connID]
	if !ok {
		return
	}
	delete(r.connRooms, connID)
	if group, ok := r.rooms[code]; ok {
		delete(group, connID)
		if len(group) == 0 {
			delete(r.rooms, code)
		}
	}
}
