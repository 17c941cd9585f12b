package relay

import (
	"sync"
	"time"
)

// Room is an in-memory fan-out unit: the set of currently joined
// connections plus lifecycle markers. The registry owns the set of rooms;
// each room owns its member set behind its own lock, so traffic in one
// room never contends with another.
type Room struct {
	ID        string
	Name      string
	CreatedAt time.Time

	mu         sync.RWMutex
	members    map[string]Member
	endedAt    time.Time
	evicted    bool
	lastActive time.Time
}

func newRoom(id, name string, now time.Time) *Room {
	return &Room{
		ID:         id,
		Name:       name,
		CreatedAt:  now,
		members:    map[string]Member{},
		lastActive: now,
	}
}

// join adds a member. Adding the same connection twice is a no-op.
func (r *Room) join(m Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.evicted {
		return ErrRoomNotFound
	}
	if !r.endedAt.IsZero() {
		return ErrRoomEnded
	}
	r.members[m.ID()] = m
	r.lastActive = time.Now()
	return nil
}

// leave removes a member. Removing an absent connection is a no-op.
// Reports whether anything was removed and whether the room is now empty.
func (r *Room) leave(connID string) (removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[connID]; !ok {
		return false, len(r.members) == 0
	}
	delete(r.members, connID)
	return true, len(r.members) == 0
}

// end stamps endedAt once. Members are not disconnected; they drain
// naturally. Returns false if the room was already ended.
func (r *Room) end(t time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.endedAt.IsZero() {
		return false
	}
	r.endedAt = t
	return true
}

// tryEvict marks the room dead if it is still empty, so a concurrent join
// holding a stale pointer is rejected rather than landing in a room the
// registry no longer knows about.
func (r *Room) tryEvict() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) > 0 {
		return false
	}
	r.evicted = true
	return true
}

// abandon marks the room dead regardless of membership. Used when a
// failed durable write rolls a creation back: a join that slipped in
// during the persist window holds a pointer to a room the registry is
// about to forget, and the mark makes that room reject everything.
func (r *Room) abandon() {
	r.mu.Lock()
	r.evicted = true
	r.mu.Unlock()
}

// broadcast delivers to every member except the origin. The lock is held
// for the whole iteration so fan-out is atomic with respect to joins and
// leaves, and every member sees broadcasts in the same per-room order.
// Enqueue never blocks, so holding the lock here is cheap.
func (r *Room) broadcast(msg Message) (delivered, dropped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.members {
		if id == msg.Origin {
			continue
		}
		if m.Enqueue(msg) {
			delivered++
		} else {
			dropped++
		}
	}
	r.lastActive = time.Now()
	return delivered, dropped
}

// Ended reports whether the room has been closed to new joins.
func (r *Room) Ended() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.endedAt.IsZero()
}

// EndedAt returns the end timestamp, zero if the room is still open.
func (r *Room) EndedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.endedAt
}

// Members returns the current member count.
func (r *Room) Members() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// LastActive returns when the room last saw a join or a broadcast.
func (r *Room) LastActive() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActive
}
