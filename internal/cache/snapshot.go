package cache

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/HoiniKris/remi/internal/game"
)

// stateCache is the slice of Cache the snapshot layer needs, narrowed so
// tests can substitute a fake.
type stateCache interface {
	SetRoomState(ctx context.Context, roomID string, state []byte) error
	RoomState(ctx context.Context, roomID string) ([]byte, error)
	DropRoom(ctx context.Context, roomID string) error
}

// SnapshotStore layers the room-state cache over a durable Persister. Saves
// write through to both, loads prefer the cached copy, deletes drop both.
// The durable store stays the source of truth; cache failures are logged
// and never surface to the caller.
type SnapshotStore struct {
	cache stateCache
	next  game.Persister
	log   *logrus.Logger
}

// NewSnapshotStore wraps next with the cache.
func NewSnapshotStore(c *Cache, next game.Persister, log *logrus.Logger) *SnapshotStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SnapshotStore{cache: c, next: next, log: log}
}

func (s *SnapshotStore) SaveRoom(ctx context.Context, snap game.RoomSnapshot) error {
	if payload, err := json.Marshal(snap); err == nil {
		if err := s.cache.SetRoomState(ctx, snap.RoomID, payload); err != nil {
			s.log.WithError(err).WithField("room_id", snap.RoomID).Warn("room state cache write failed")
		}
	}
	return s.next.SaveRoom(ctx, snap)
}

func (s *SnapshotStore) LoadRoom(ctx context.Context, roomID string) (*game.RoomSnapshot, error) {
	state, err := s.cache.RoomState(ctx, roomID)
	switch {
	case err != nil:
		s.log.WithError(err).WithField("room_id", roomID).Warn("room state cache read failed")
	case state != nil:
		var snap game.RoomSnapshot
		if err := json.Unmarshal(state, &snap); err == nil {
			return &snap, nil
		}
		s.log.WithField("room_id", roomID).Warn("corrupt cached room state, reading the store")
	}
	return s.next.LoadRoom(ctx, roomID)
}

func (s *SnapshotStore) DeleteRoom(ctx context.Context, roomID string) error {
	if err := s.cache.DropRoom(ctx, roomID); err != nil {
		s.log.WithError(err).WithField("room_id", roomID).Warn("cached room drop failed")
	}
	return s.next.DeleteRoom(ctx, roomID)
}
