package connections

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Frame is the JSON envelope of every event written to a socket
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub keeps room membership for socket handles and broadcasts to rooms
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Handle
}

// NewHub returns a hub with no rooms
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]Handle)}
}

func (hub *Hub) join(room string, h Handle) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	members, ok := hub.rooms[room]
	if !ok {
		members = make(map[string]Handle)
		hub.rooms[room] = members
	}
	members[h.ID()] = h
}

func (hub *Hub) leave(room string, h Handle) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	members, ok := hub.rooms[room]
	if !ok {
		return
	}
	delete(members, h.ID())
	if len(members) == 0 {
		delete(hub.rooms, room)
	}
}

// Members returns how many handles are joined to room
func (hub *Hub) Members(room string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.rooms[room])
}

// BroadcastToRoom writes event to every handle joined to room. A failed
// write is logged; the handle's reader loop owns its teardown.
func (hub *Hub) BroadcastToRoom(room, event string, payload interface{}) {
	hub.mu.RLock()
	members := make([]Handle, 0, len(hub.rooms[room]))
	for _, h := range hub.rooms[room] {
		members = append(members, h)
	}
	hub.mu.RUnlock()

	for _, h := range members {
		if err := h.Emit(event, payload); err != nil {
			zap.S().Warnw("failed to deliver room event",
				"room", room,
				"event", event,
				"handle", h.ID(),
				"error", err,
			)
		}
	}
}

// SocketHandle is a Handle backed by a gorilla websocket connection
type SocketHandle struct {
	id   string
	conn *websocket.Conn
	hub  *Hub

	writeMu sync.Mutex
	roomsMu sync.Mutex
	rooms   map[string]struct{}
}

// NewSocketHandle wraps conn. Rooms joined through the handle are tracked
// in hub.
func NewSocketHandle(conn *websocket.Conn, hub *Hub) *SocketHandle {
	return &SocketHandle{
		id:    uuid.New().String(),
		conn:  conn,
		hub:   hub,
		rooms: make(map[string]struct{}),
	}
}

// ID returns the handle's unique id
func (s *SocketHandle) ID() string {
	return s.id
}

// Join adds the handle to room. Joining twice is a no-op.
func (s *SocketHandle) Join(room string) {
	s.roomsMu.Lock()
	s.rooms[room] = struct{}{}
	s.roomsMu.Unlock()
	s.hub.join(room, s)
}

// Leave removes the handle from room
func (s *SocketHandle) Leave(room string) {
	s.roomsMu.Lock()
	delete(s.rooms, room)
	s.roomsMu.Unlock()
	s.hub.leave(room, s)
}

// Rooms returns the rooms the handle is joined to
func (s *SocketHandle) Rooms() []string {
	s.roomsMu.Lock()
	defer s.roomsMu.Unlock()
	rooms := make([]string, 0, len(s.rooms))
	for r := range s.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// Emit writes a frame. gorilla connections allow one concurrent writer.
func (s *SocketHandle) Emit(event string, payload interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(Frame{Event: event, Data: payload})
}

// Close leaves every room and closes the connection
func (s *SocketHandle) Close() error {
	for _, room := range s.Rooms() {
		s.Leave(room)
	}
	return s.conn.Close()
}
