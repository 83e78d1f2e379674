package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridepulse/internal/domain/trip"
	"ridepulse/internal/ports"
)

// TripEventRepo persists trip events using pgx and plain SQL.
type TripEventRepo struct {
	pool *pgxpool.Pool
}

// NewTripEventRepo constructs a new TripEventRepo.
func NewTripEventRepo(pool *pgxpool.Pool) ports.TripEventRepository {
	return &TripEventRepo{pool: pool}
}

// Append inserts a new trip_events row.
func (repo *TripEventRepo) Append(ctx context.Context, event *trip.Event) error {
	data, err := event.DataJSON()
	if err != nil {
		return err
	}

	err = repo.pool.QueryRow(ctx, `
		INSERT INTO trip_events (trip_id, event_type, event_data)
		VALUES ($1, $2, $3::jsonb)
		RETURNING id, created_at
	`,
		event.TripID,
		event.Type.String(),
		string(data),
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert trip event: %w", trip.ErrStorage, err)
	}
	return nil
}

// ListForTrip returns the event log of one trip, oldest first.
func (repo *TripEventRepo) ListForTrip(ctx context.Context, tripID string, limit int) ([]*trip.Event, error) {
	rows, err := repo.pool.Query(ctx, `
		SELECT id, trip_id, event_type, event_data, created_at
		FROM trip_events
		WHERE trip_id = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, tripID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query trip events: %w", trip.ErrStorage, err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// Recent returns the newest events across all trips, newest first.
func (repo *TripEventRepo) Recent(ctx context.Context, limit int) ([]*trip.Event, error) {
	rows, err := repo.pool.Query(ctx, `
		SELECT id, trip_id, event_type, event_data, created_at
		FROM trip_events
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query recent events: %w", trip.ErrStorage, err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]*trip.Event, error) {
	var out []*trip.Event
	for rows.Next() {
		var e trip.Event
		var eventType string
		var raw []byte
		if err := rows.Scan(&e.ID, &e.TripID, &eventType, &raw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan trip event: %w", trip.ErrStorage, err)
		}
		e.Type = trip.EventType(eventType)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Data); err != nil {
				return nil, fmt.Errorf("%w: decode event data: %w", trip.ErrStorage, err)
			}
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows error: %w", trip.ErrStorage, err)
	}
	return out, nil
}
