package game

import (
	"context"
	"encoding/json"
	"time"
)

// Variant distinguishes the two rule sets a snapshot can belong to.
type Variant string

const (
	VariantClassic Variant = "CLASSIC"
	VariantBoard   Variant = "REMI_PE_TABLA"
)

// RoomSnapshot is the persistence-shaped view of a room. State holds the
// room marshaled as JSON; the remaining columns exist so storage can index
// and expire rooms without decoding it.
type RoomSnapshot struct {
	RoomID       string          `json:"roomId"`
	Variant      Variant         `json:"variant"`
	Phase        Phase           `json:"phase"`
	PlayerCount  int             `json:"playerCount"`
	State        json.RawMessage `json:"state"`
	LastActivity time.Time       `json:"lastActivity"`
	SavedAt      time.Time       `json:"savedAt"`
}

// Persister stores room snapshots. Engines call it asynchronously and treat
// failures as non-fatal: the in-memory room stays authoritative.
type Persister interface {
	SaveRoom(ctx context.Context, snap RoomSnapshot) error
	LoadRoom(ctx context.Context, roomID string) (*RoomSnapshot, error)
	DeleteRoom(ctx context.Context, roomID string) error
}

// ActionRecorder receives an append-only log of accepted moves, typically
// backed by Redis. Best effort, like Persister.
type ActionRecorder interface {
	RecordAction(ctx context.Context, roomID string, seq int, move Move) error
}
