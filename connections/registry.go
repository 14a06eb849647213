// Package connections tracks which users hold a live socket, which role
// rooms those sockets joined, and fans events out to them.
package connections

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/dispatch-api/models"
)

const presenceTimeout = 2 * time.Second

// Handle is a live transport session for one user
type Handle interface {
	ID() string
	Join(room string)
	Leave(room string)
	Emit(event string, payload interface{}) error
}

// RoomBroadcaster delivers an event to every handle joined to a room
type RoomBroadcaster interface {
	BroadcastToRoom(room, event string, payload interface{})
}

// PresenceStore mirrors the set of online users somewhere other
// instances can see it. Entries written by one instance lapse unless that
// instance keeps refreshing them.
type PresenceStore interface {
	Add(ctx context.Context, userID string) error
	Refresh(ctx context.Context, userIDs []string) error
	Remove(ctx context.Context, userID string) error
	Contains(ctx context.Context, userID string) (bool, error)
	Members(ctx context.Context) ([]string, error)
}

// Registry maps user ids to their live handle. It is safe for concurrent
// use. Every method is total: presence store failures are logged and the
// registry answers from its local view.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]Handle
	transport   RoomBroadcaster
	presence    PresenceStore
}

// NewRegistry returns an empty registry. presence may be nil, in which
// case only this process' connections are visible.
func NewRegistry(presence PresenceStore) *Registry {
	return &Registry{
		connections: make(map[string]Handle),
		presence:    presence,
	}
}

// AttachTransport sets the backend used by BroadcastToRole
func (r *Registry) AttachTransport(t RoomBroadcaster) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transport = t
}

// Register associates userID with h and joins h to the room of role.
// Registering again replaces the previous handle.
func (r *Registry) Register(userID string, h Handle, role models.Role) {
	r.mu.Lock()
	r.connections[userID] = h
	total := len(r.connections)
	r.mu.Unlock()

	h.Join(role.Room())

	if r.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
		defer cancel()
		if err := r.presence.Add(ctx, userID); err != nil {
			zap.S().Errorw("failed to publish presence", "userId", userID, "error", err)
		}
	}

	zap.S().Infow("user connected",
		"userId", userID,
		"role", role,
		"handle", h.ID(),
		"totalConnections", total,
	)
}

// Unregister drops userID and leaves every role room its handle could have
// joined. It reports whether userID was registered.
func (r *Registry) Unregister(userID string) bool {
	return r.unregister(userID, "")
}

// UnregisterHandle drops userID only while handleID is still its registered
// handle, so a closing socket cannot evict the one that replaced it. It
// reports whether anything was dropped.
func (r *Registry) UnregisterHandle(userID, handleID string) bool {
	return r.unregister(userID, handleID)
}

func (r *Registry) unregister(userID, handleID string) bool {
	r.mu.Lock()
	h, ok := r.connections[userID]
	if ok && handleID != "" && h.ID() != handleID {
		r.mu.Unlock()
		zap.S().Debugw("handle already replaced, keeping registration",
			"userId", userID,
			"handle", handleID,
			"current", h.ID(),
		)
		return false
	}
	delete(r.connections, userID)
	r.mu.Unlock()

	if ok {
		// the role at unregister time is not reliable, leave them all
		for _, role := range models.AllRoles {
			h.Leave(role.Room())
		}
	}

	if r.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
		defer cancel()
		if err := r.presence.Remove(ctx, userID); err != nil {
			zap.S().Errorw("failed to withdraw presence", "userId", userID, "error", err)
		}
	}

	zap.S().Infow("user disconnected", "userId", userID, "wasConnected", ok)
	return ok
}

// RefreshPresence renews this instance's presence entries for every local
// connection
func (r *Registry) RefreshPresence(ctx context.Context) error {
	if r.presence == nil {
		return nil
	}
	ids := r.localIDs()
	if len(ids) == 0 {
		return nil
	}
	return r.presence.Refresh(ctx, ids)
}

// Heartbeat calls RefreshPresence every interval until ctx is done
func (r *Registry) Heartbeat(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshCtx, cancel := context.WithTimeout(ctx, presenceTimeout)
			if err := r.RefreshPresence(refreshCtx); err != nil {
				zap.S().Errorw("failed to refresh presence", "error", err)
			}
			cancel()
		}
	}
}

// Close withdraws the presence entries of every local connection. The
// sockets themselves are left to the transport.
func (r *Registry) Close(ctx context.Context) {
	if r.presence == nil {
		return
	}
	for _, id := range r.localIDs() {
		if err := r.presence.Remove(ctx, id); err != nil {
			zap.S().Warnw("failed to withdraw presence on shutdown", "userId", id, "error", err)
		}
	}
}

func (r *Registry) localIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.connections))
	for id := range r.connections {
		ids = append(ids, id)
	}
	return ids
}

// IsOnline reports whether userID has a live handle here or, when a
// presence store is configured, on any instance
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	_, ok := r.connections[userID]
	r.mu.RUnlock()
	if ok || r.presence == nil {
		return ok
	}

	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	online, err := r.presence.Contains(ctx, userID)
	if err != nil {
		zap.S().Errorw("failed to read presence", "userId", userID, "error", err)
		return false
	}
	return online
}

// ListOnline returns the ids of every online user, in no particular order
func (r *Registry) ListOnline() []string {
	r.mu.RLock()
	seen := make(map[string]struct{}, len(r.connections))
	ids := make([]string, 0, len(r.connections))
	for id := range r.connections {
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	if r.presence == nil {
		return ids
	}
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	members, err := r.presence.Members(ctx)
	if err != nil {
		zap.S().Errorw("failed to list presence", "error", err)
		return ids
	}
	for _, id := range members {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// Handle returns the local handle of userID
func (r *Registry) Handle(userID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.connections[userID]
	return h, ok
}

// BroadcastToRole emits event to every handle in the room of role. Delivery
// is best effort.
func (r *Registry) BroadcastToRole(role models.Role, event string, payload interface{}) {
	r.mu.RLock()
	t := r.transport
	r.mu.RUnlock()
	if t == nil {
		zap.S().Errorw("socket transport not initialized, dropping broadcast",
			"role", role,
			"event", event,
		)
		return
	}
	zap.S().Debugw("broadcasting to role", "role", role, "event", event)
	t.BroadcastToRoom(role.Room(), event, payload)
}

// Broadcast emits event to every local handle
func (r *Registry) Broadcast(event string, payload interface{}) {
	r.mu.RLock()
	handles := make([]Handle, 0, len(r.connections))
	for _, h := range r.connections {
		handles = append(handles, h)
	}
	r.mu.RUnlock()

	for _, h := range handles {
		if err := h.Emit(event, payload); err != nil {
			zap.S().Warnw("failed to emit event", "event", event, "handle", h.ID(), "error", err)
		}
	}
}
