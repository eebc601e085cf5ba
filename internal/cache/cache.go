// Package cache keeps the fast-path room data in Redis: an append-only log
// of accepted moves per room and a short-lived copy of the latest room
// state for reads that should not touch the engine.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/HoiniKris/remi/internal/game"
)

const (
	actionKeyPrefix = "remi:actions:"
	stateKeyPrefix  = "remi:room:"
)

// ActionRecord is one accepted move as stored in the per-room log.
type ActionRecord struct {
	Seq        int       `json:"seq"`
	Move       game.Move `json:"move"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Cache wraps a Redis client. It satisfies game.ActionRecorder.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

// Connect dials Redis and pings it. ttl bounds how long per-room keys
// outlive their last write.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration, log *logrus.Logger) (*Cache, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.WithField("addr", addr).Info("connected to redis")
	return &Cache{client: client, ttl: ttl, log: log}, nil
}

// RecordAction appends a move to the room's action log and refreshes the
// log's expiry.
func (c *Cache) RecordAction(ctx context.Context, roomID string, seq int, move game.Move) error {
	rec := ActionRecord{Seq: seq, Move: move, RecordedAt: time.Now()}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}
	key := actionKeyPrefix + roomID
	pipe := c.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append action for %s: %w", roomID, err)
	}
	return nil
}

// SetRoomState caches a serialized room for cheap reads.
func (c *Cache) SetRoomState(ctx context.Context, roomID string, state []byte) error {
	if err := c.client.Set(ctx, stateKeyPrefix+roomID, state, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache room %s: %w", roomID, err)
	}
	return nil
}

// RoomState returns the cached room state, or (nil, nil) on a miss.
func (c *Cache) RoomState(ctx context.Context, roomID string) ([]byte, error) {
	state, err := c.client.Get(ctx, stateKeyPrefix+roomID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached room %s: %w", roomID, err)
	}
	return state, nil
}

// DropRoom removes the room's cached state and action log.
func (c *Cache) DropRoom(ctx context.Context, roomID string) error {
	if err := c.client.Del(ctx, stateKeyPrefix+roomID, actionKeyPrefix+roomID).Err(); err != nil {
		return fmt.Errorf("drop cached room %s: %w", roomID, err)
	}
	return nil
}

// Close releases the client.
func (c *Cache) Close() error {
	return c.client.Close()
}
