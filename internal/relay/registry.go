package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"
	"room-relay/internal/store"
	"room-relay/pkg/metrics"
)

// Registry maps room IDs to live rooms. It is constructed once at startup
// and handed to every connection handler; there is no package-level
// instance. The registry lock guards only the map itself, each room
// guards its own member set.
type Registry struct {
	log        *slog.Logger
	store      store.Gateway
	evictGrace time.Duration

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry builds a registry over the given metadata gateway.
// evictGrace delays empty-room eviction to absorb reconnect storms; zero
// means evict immediately.
func NewRegistry(logger *slog.Logger, gw store.Gateway, evictGrace time.Duration) *Registry {
	return &Registry{
		log:        logger,
		store:      gw,
		evictGrace: evictGrace,
		rooms:      map[string]*Room{},
	}
}

// Create reserves the room in memory, then records it durably. A failed
// durable write rolls the reservation back: creation is all or nothing.
func (g *Registry) Create(ctx context.Context, id, name string) (*Room, error) {
	rm := newRoom(id, name, time.Now().UTC())

	g.mu.Lock()
	if _, ok := g.rooms[id]; ok {
		g.mu.Unlock()
		return nil, ErrRoomExists
	}
	g.rooms[id] = rm
	g.mu.Unlock()

	if _, err := g.store.Create(ctx, id, name); err != nil {
		g.mu.Lock()
		rm.abandon()
		delete(g.rooms, id)
		g.mu.Unlock()
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrRoomExists
		}
		return nil, fmt.Errorf("persist room %q: %w", id, err)
	}

	metrics.RoomsActive.Inc()
	g.log.Info("room.created", "room", id, "name", name)
	return rm, nil
}

// Get returns the live room for an id.
func (g *Registry) Get(id string) (*Room, error) {
	g.mu.RLock()
	rm := g.rooms[id]
	g.mu.RUnlock()
	if rm == nil {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

// Resolve returns the live room for an id, re-materializing it from the
// durable record if it was evicted while empty. Ended rooms stay ended.
func (g *Registry) Resolve(ctx context.Context, id string) (*Room, error) {
	if rm, err := g.Get(id); err == nil {
		return rm, nil
	}
	rec, err := g.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("resolve room %q: %w", id, err)
	}
	if rec.EndedAt != nil {
		return nil, ErrRoomEnded
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if rm := g.rooms[id]; rm != nil {
		return rm, nil
	}
	rm := newRoom(rec.ID, rec.Name, rec.CreatedAt)
	g.rooms[id] = rm
	metrics.RoomsActive.Inc()
	g.log.Info("room.revived", "room", id)
	return rm, nil
}

// Join adds a connection to a room's member set.
func (g *Registry) Join(roomID string, m Member) error {
	rm, err := g.Get(roomID)
	if err != nil {
		return err
	}
	if err := rm.join(m); err != nil {
		return err
	}
	g.log.Debug("room.join", "room", roomID, "conn", m.ID())
	return nil
}

// Leave removes a connection from a room. It is idempotent: leaving a
// room the connection is not in, or a room that no longer exists, is a
// no-op. An empty room becomes eligible for eviction.
func (g *Registry) Leave(roomID, connID string) {
	g.mu.RLock()
	rm := g.rooms[roomID]
	g.mu.RUnlock()
	if rm == nil {
		return
	}
	removed, empty := rm.leave(connID)
	if removed {
		g.log.Debug("room.leave", "room", roomID, "conn", connID)
	}
	if empty {
		g.scheduleEvict(rm)
	}
}

// End closes a room to new joins and records the end durably. Members
// already in the room are left to drain on their own. Rooms that have
// already been evicted from memory are ended at the store directly.
func (g *Registry) End(ctx context.Context, id string, t time.Time) (store.RoomRecord, error) {
	g.mu.RLock()
	rm := g.rooms[id]
	g.mu.RUnlock()

	freshlyEnded := false
	if rm != nil && rm.end(t) {
		freshlyEnded = true
		if rm.Members() == 0 {
			g.scheduleEvict(rm)
		}
	}

	if !freshlyEnded {
		// Evicted, or ended in memory by an earlier attempt whose durable
		// write may have failed. Only a record that is also ended makes
		// this a conflict; a still-open record gets the write retried.
		rec, err := g.store.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return store.RoomRecord{}, ErrRoomNotFound
			}
			return store.RoomRecord{}, fmt.Errorf("end room %q: %w", id, err)
		}
		if rec.EndedAt != nil {
			return store.RoomRecord{}, ErrRoomEnded
		}
	}

	rec, err := g.store.MarkEnded(ctx, id, t)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.RoomRecord{}, ErrRoomNotFound
		}
		// The room stays ended in memory; the caller may retry the
		// durable write.
		return store.RoomRecord{}, fmt.Errorf("end room %q: %w", id, err)
	}
	g.log.Info("room.end", "room", id)
	return rec, nil
}

// Broadcast fans a message out to every member of the room except its
// origin. A full member queue drops the message for that member only;
// drops are counted, never surfaced to the sender.
func (g *Registry) Broadcast(roomID string, msg Message) error {
	rm, err := g.Get(roomID)
	if err != nil {
		return err
	}
	delivered, dropped := rm.broadcast(msg)
	metrics.BroadcastsTotal.Inc()
	if dropped > 0 {
		metrics.DroppedTotal.Add(float64(dropped))
		g.log.Debug("broadcast.drop", "room", roomID, "dropped", dropped, "delivered", delivered)
	}
	return nil
}

// Rooms returns the number of live rooms.
func (g *Registry) Rooms() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

func (g *Registry) scheduleEvict(rm *Room) {
	if g.evictGrace <= 0 {
		g.evict(rm)
		return
	}
	time.AfterFunc(g.evictGrace, func() { g.evict(rm) })
}

// evict removes an empty room from the map. The room is re-checked under
// both locks: a rejoin during the grace window keeps it alive, and a room
// replaced by a fresh create under the same id is left alone.
func (g *Registry) evict(rm *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rooms[rm.ID] != rm {
		return
	}
	if !rm.tryEvict() {
		return
	}
	delete(g.rooms, rm.ID)
	metrics.RoomsActive.Dec()
	g.log.Info("room.evicted", "room", rm.ID)
}
