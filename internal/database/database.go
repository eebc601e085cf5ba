// Package database persists room snapshots in Postgres via pgx. The live
// game state stays in memory; snapshots exist so rooms survive restarts and
// can be inspected offline.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/HoiniKris/remi/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS room_snapshots (
	room_id       TEXT PRIMARY KEY,
	variant       TEXT NOT NULL,
	phase         TEXT NOT NULL,
	player_count  INT NOT NULL,
	state         JSONB NOT NULL,
	last_activity TIMESTAMPTZ NOT NULL,
	saved_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS room_snapshots_last_activity_idx
	ON room_snapshots (last_activity);
`

// Store is a Postgres-backed snapshot store. It satisfies game.Persister.
type Store struct {
	pool *pgxpool.Pool
	log  *logrus.Logger
}

// Connect opens a pool against dsn and pings it.
func Connect(ctx context.Context, dsn string, log *logrus.Logger) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	log.Info("connected to postgres")
	return &Store{pool: pool, log: log}, nil
}

// Migrate creates the snapshot table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// SaveRoom upserts a snapshot keyed by room id.
func (s *Store) SaveRoom(ctx context.Context, snap game.RoomSnapshot) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO room_snapshots
			(room_id, variant, phase, player_count, state, last_activity, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (room_id) DO UPDATE SET
			variant = EXCLUDED.variant,
			phase = EXCLUDED.phase,
			player_count = EXCLUDED.player_count,
			state = EXCLUDED.state,
			last_activity = EXCLUDED.last_activity,
			saved_at = EXCLUDED.saved_at`,
		snap.RoomID, snap.Variant, snap.Phase, snap.PlayerCount,
		[]byte(snap.State), snap.LastActivity, snap.SavedAt)
	if err != nil {
		return fmt.Errorf("save room %s: %w", snap.RoomID, err)
	}
	return nil
}

// LoadRoom fetches a snapshot, returning (nil, nil) when none exists.
func (s *Store) LoadRoom(ctx context.Context, roomID string) (*game.RoomSnapshot, error) {
	var snap game.RoomSnapshot
	var state []byte
	err := s.pool.QueryRow(ctx, `
		SELECT room_id, variant, phase, player_count, state, last_activity, saved_at
		FROM room_snapshots WHERE room_id = $1`, roomID).
		Scan(&snap.RoomID, &snap.Variant, &snap.Phase, &snap.PlayerCount,
			&state, &snap.LastActivity, &snap.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}
	snap.State = state
	return &snap, nil
}

// DeleteRoom removes a snapshot. Deleting a missing room is not an error.
func (s *Store) DeleteRoom(ctx context.Context, roomID string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM room_snapshots WHERE room_id = $1`, roomID); err != nil {
		return fmt.Errorf("delete room %s: %w", roomID, err)
	}
	return nil
}

// ListRoomIDs returns ids of snapshots touched since cutoff, newest first.
// Used at startup to restore rooms that were live before a restart.
func (s *Store) ListRoomIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT room_id FROM room_snapshots
		WHERE last_activity >= $1
		ORDER BY last_activity DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PruneStale deletes snapshots idle since before cutoff and reports how many
// rows went away.
func (s *Store) PruneStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM room_snapshots WHERE last_activity < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}
