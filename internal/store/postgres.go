package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"log/slog"
)

// uniqueViolation is the postgres error code for a duplicate primary key
const uniqueViolation = "23505"

type Postgres struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgres connects to postgres and returns a pool wrapper
func NewPostgres(ctx context.Context, url string, log *slog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Postgres{pool: pool, log: log}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

// Create inserts a new room record
func (p *Postgres) Create(ctx context.Context, id, name string) (RoomRecord, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO rooms (id, name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, name, created_at, ended_at
	`, id, name)

	var r RoomRecord
	if err := row.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.EndedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return RoomRecord{}, ErrConflict
		}
		return RoomRecord{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	p.log.Info("room.persisted", "id", r.ID, "name", r.Name)
	return r, nil
}

// FindByID fetches one room record
func (p *Postgres) FindByID(ctx context.Context, id string) (RoomRecord, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, name, created_at, ended_at
		FROM rooms
		WHERE id = $1
	`, id)

	var r RoomRecord
	if err := row.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.EndedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoomRecord{}, ErrNotFound
		}
		return RoomRecord{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return r, nil
}

// FindAll returns every room record, newest first
func (p *Postgres) FindAll(ctx context.Context) ([]RoomRecord, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, created_at, ended_at
		FROM rooms
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var out []RoomRecord
	for rows.Next() {
		var r RoomRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.EndedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

// MarkEnded stamps ended_at on a room record
func (p *Postgres) MarkEnded(ctx context.Context, id string, t time.Time) (RoomRecord, error) {
	row := p.pool.QueryRow(ctx, `
		UPDATE rooms
		SET ended_at = $2
		WHERE id = $1
		RETURNING id, name, created_at, ended_at
	`, id, t)

	var r RoomRecord
	if err := row.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.EndedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoomRecord{}, ErrNotFound
		}
		return RoomRecord{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	p.log.Info("room.record.ended", "id", r.ID)
	return r, nil
}
