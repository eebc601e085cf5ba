// Package game holds the room state machines for both Remi variants: the
// classic shared-table engine and the private-board "Remi pe Tablă" engine,
// together with turn management and disconnection handling.
//
// Concurrency model: every room is an independent unit of mutable state
// guarded by its own mutex. All mutation, whether player moves, turn
// timeouts or auto-play for stalled players, funnels through that mutex; rooms
// never share state and may progress in parallel.
package game

import (
	"errors"
	"sync"
	"time"

	"github.com/HoiniKris/remi/engine"
)

// Phase is the lifecycle state of a room.
type Phase string

const (
	PhaseWaiting  Phase = "WAITING"
	PhasePlaying  Phase = "PLAYING"
	PhaseFinished Phase = "FINISHED"
)

// MoveType tags a Move. The tag selects which optional fields are required.
type MoveType string

const (
	MoveDrawStock    MoveType = "DRAW_STOCK"
	MoveDrawDiscard  MoveType = "DRAW_DISCARD"
	MovePlayTiles    MoveType = "PLAY_TILES"    // classic: Combinations
	MoveDiscard      MoveType = "DISCARD"       // Tile
	MoveRearrange    MoveType = "REARRANGE"     // classic: Combinations
	MoveReplaceJoker MoveType = "REPLACE_JOKER" // classic: Tile, TargetCombinationIndex, JokerIndex
	MoveEndTurn      MoveType = "END_TURN"
	MoveEndGame      MoveType = "END_GAME"      // classic: declare win
	MoveArrangeBoard MoveType = "ARRANGE_BOARD" // board variant: Combinations
	MoveCloseGame    MoveType = "CLOSE_GAME"    // board variant: declare win
)

// Move is the tagged union every player action arrives as.
type Move struct {
	Type                   MoveType             `json:"type"`
	PlayerID               string               `json:"playerId"`
	Tile                   *engine.Tile         `json:"tile,omitempty"`
	Tiles                  []engine.Tile        `json:"tiles,omitempty"`
	Combinations           []engine.Combination `json:"combinations,omitempty"`
	TargetCombinationIndex *int                 `json:"targetCombinationIndex,omitempty"`
	JokerIndex             *int                 `json:"jokerIndex,omitempty"`
}

// Player is a participant in a classic room.
type Player struct {
	ID                    string        `json:"id"`
	Name                  string        `json:"name"`
	Tiles                 []engine.Tile `json:"tiles"`
	HasCompletedFirstMeld bool          `json:"hasCompletedFirstMeld"`
	Score                 int           `json:"score"`
	IsOnline              bool          `json:"isOnline"`
}

// Settings configures a classic room.
type Settings struct {
	MaxPlayers       int `json:"maxPlayers"`
	TurnTimeLimit    int `json:"turnTimeLimit"` // seconds
	FirstMeldMinimum int `json:"firstMeldMinimum"`
	JokerPenalty     int `json:"jokerPenalty"`
}

// DefaultSettings returns the standard classic-variant room settings.
func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:       4,
		TurnTimeLimit:    60,
		FirstMeldMinimum: 30,
		JokerPenalty:     25,
	}
}

// Room is a classic-variant game room. The Engine exclusively owns its
// mutation; everything else reads it or proposes changes the engine applies.
type Room struct {
	ID                 string               `json:"id"`
	Players            []*Player            `json:"players"`
	CurrentPlayerIndex int                  `json:"currentPlayerIndex"`
	StockPile          []engine.Tile        `json:"stockPile"`
	DiscardPile        []engine.Tile        `json:"discardPile"`
	TableCombinations  []engine.Combination `json:"tableCombinations"`
	Phase              Phase                `json:"gamePhase"`
	RoundNumber        int                  `json:"roundNumber"`
	TurnTimer          int                  `json:"turnTimer"` // seconds remaining at last reset
	Settings           Settings             `json:"settings"`
	CreatedAt          time.Time            `json:"createdAt"`
	LastActivity       time.Time            `json:"lastActivity"`

	mu    sync.Mutex
	turns *TurnManager
	seq   int // accepted-move counter, feeds the action log
}

// MoveOutcome carries the room after a successful classic move, plus win
// details when the move ended the game.
type MoveOutcome struct {
	Room       *Room
	WinPattern engine.WinPattern
	WinScore   int
}

// Shared, player-visible rule rejections. Every rejection is local and
// recoverable; no mutation happens on a rejected move.
var (
	ErrRoomNotFound      = errors.New("Room not found")
	ErrGameInProgress    = errors.New("Game already in progress")
	ErrRoomFull          = errors.New("Room is full")
	ErrAlreadyInRoom     = errors.New("Player already in room")
	ErrNotHost           = errors.New("Only host can start the game")
	ErrNotEnoughPlayers  = errors.New("Need at least 2 players to start")
	ErrGameStarted       = errors.New("Game already started")
	ErrGameNotInProgress = errors.New("Game not in progress")
	ErrNotYourTurn       = errors.New("Not your turn")
	ErrStockEmpty        = errors.New("Stock pile is empty")
	ErrDiscardEmpty      = errors.New("Discard pile is empty")
	ErrInvalidMoveType   = errors.New("Invalid move type")
)
