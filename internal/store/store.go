package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrConflict means a room record with the same id already exists.
	ErrConflict = errors.New("store: room id already exists")
	// ErrNotFound means no record matched the id.
	ErrNotFound = errors.New("store: room not found")
	// ErrUnavailable wraps I/O failures talking to the backing store.
	ErrUnavailable = errors.New("store: unavailable")
)

// RoomRecord is the only durable state the relay keeps.
type RoomRecord struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

// Gateway persists room metadata. It is consulted on room creation and
// end-of-life only, never on the message path.
type Gateway interface {
	Create(ctx context.Context, id, name string) (RoomRecord, error)
	FindByID(ctx context.Context, id string) (RoomRecord, error)
	FindAll(ctx context.Context) ([]RoomRecord, error)
	MarkEnded(ctx context.Context, id string, t time.Time) (RoomRecord, error)
}
