package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"ridepulse/internal/domain/trip"
	"ridepulse/internal/ports"
)

// MessageRepo persists per-trip chat messages using pgx and plain SQL.
type MessageRepo struct {
	pool *pgxpool.Pool
}

// NewMessageRepo constructs a new MessageRepo.
func NewMessageRepo(pool *pgxpool.Pool) ports.MessageRepository {
	return &MessageRepo{pool: pool}
}

// Append inserts one chat entry. The log is append-only.
func (repo *MessageRepo) Append(ctx context.Context, m *trip.Message) error {
	err := repo.pool.QueryRow(ctx, `
		INSERT INTO trip_messages (trip_id, sender_id, side, text, sent_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, m.TripID, m.SenderID, string(m.Side), m.Text, m.SentAt).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("%w: insert trip message: %w", trip.ErrStorage, err)
	}
	return nil
}

// ListForTrip returns the chat log of one trip, oldest first.
func (repo *MessageRepo) ListForTrip(ctx context.Context, tripID string, limit int) ([]*trip.Message, error) {
	rows, err := repo.pool.Query(ctx, `
		SELECT id, trip_id, sender_id, side, text, sent_at
		FROM trip_messages
		WHERE trip_id = $1
		ORDER BY sent_at ASC
		LIMIT $2
	`, tripID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query trip messages: %w", trip.ErrStorage, err)
	}
	defer rows.Close()

	var out []*trip.Message
	for rows.Next() {
		var m trip.Message
		var side string
		if err := rows.Scan(&m.ID, &m.TripID, &m.SenderID, &side, &m.Text, &m.SentAt); err != nil {
			return nil, fmt.Errorf("%w: scan trip message: %w", trip.ErrStorage, err)
		}
		m.Side = trip.Side(side)
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows error: %w", trip.ErrStorage, err)
	}
	return out, nil
}
