package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"presencechat/internal/app/db"
)

const insertEventSQL = `
INSERT INTO presence_events (id, kind, conn_id, username, color, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// PostgresStore writes presence events to the presence_events table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// InsertEvent implements Store. Re-inserting an event with a known ID is a no-op.
func (s *PostgresStore) InsertEvent(ctx context.Context, event Event) error {
	_, err := s.pool.Exec(ctx, insertEventSQL,
		event.ID.String(),
		string(event.Kind),
		event.ConnID,
		event.Identity.Username,
		event.Identity.Color,
		event.OccurredAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("insert presence event: %w", err)
	}

	return nil
}
