package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Gateway. It backs tests and the STORE=memory
// dev mode where no database is running.
type Memory struct {
	mu    sync.RWMutex
	rooms map[string]RoomRecord
}

func NewMemory() *Memory {
	return &Memory{rooms: map[string]RoomRecord{}}
}

func (m *Memory) Create(_ context.Context, id, name string) (RoomRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; ok {
		return RoomRecord{}, ErrConflict
	}
	r := RoomRecord{ID: id, Name: name, CreatedAt: time.Now().UTC()}
	m.rooms[id] = r
	return r, nil
}

func (m *Memory) FindByID(_ context.Context, id string) (RoomRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return RoomRecord{}, ErrNotFound
	}
	return r, nil
}

func (m *Memory) FindAll(_ context.Context) ([]RoomRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomRecord, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	// newest first, matching the postgres adapter
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) MarkEnded(_ context.Context, id string, t time.Time) (RoomRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return RoomRecord{}, ErrNotFound
	}
	ended := t
	r.EndedAt = &ended
	m.rooms[id] = r
	return r, nil
}
