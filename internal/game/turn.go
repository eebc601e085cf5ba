package game

import (
	"errors"
	"sync"
	"time"
)

// MinTurnTimeLimit is the shortest turn clock a room may configure.
const MinTurnTimeLimit = 10 * time.Second

var (
	// ErrTurnLimitTooShort rejects turn clocks under MinTurnTimeLimit.
	ErrTurnLimitTooShort = errors.New("turn time limit must be at least 10 seconds")
	// ErrTooFewPlayers rejects rotations that cannot sustain a game.
	ErrTooFewPlayers = errors.New("turn rotation needs at least 2 players")
	// ErrPlayerNotInRotation is returned when a player id is not part of
	// the rotation.
	ErrPlayerNotInRotation = errors.New("player not in rotation")
)

// TurnState is a read-only snapshot of the rotation clock.
type TurnState struct {
	CurrentPlayerID    string
	CurrentPlayerIndex int
	TurnNumber         int
	TurnStartTime      time.Time
	TurnTimeLimit      time.Duration
	TimeRemaining      time.Duration
	Paused             bool
}

// TurnManager owns the turn rotation and the per-turn countdown for one
// room. It never touches room state itself; the owning engine reacts to its
// callbacks and mutates the room under the room lock.
//
// The timer callback runs on its own goroutine holding no locks, so the
// engine may freely call back into the manager from inside OnTimeout. If the
// engine advances the rotation during the callback the manager detects the
// turn number change and skips its own automatic advance.
type TurnManager struct {
	mu sync.Mutex

	playerIDs []string
	index     int
	turnNum   int
	limit     time.Duration
	direction int // +1 clockwise, -1 counter-clockwise

	timer     *time.Timer
	startedAt time.Time
	remaining time.Duration // valid while paused
	paused    bool
	active    bool

	// OnTimeout fires when the current player's clock expires, before the
	// automatic advance. OnTurnChange fires after every rotation step.
	// OnSessionEnd fires when the rotation shrinks below 2 players.
	OnTimeout    func(playerID string, turnNumber int)
	OnTurnChange func(currentID, previousID string)
	OnSessionEnd func(reason string)
}

// NewTurnManager builds a rotation over playerIDs starting at index 0.
func NewTurnManager(playerIDs []string, limit time.Duration, counterClockwise bool) (*TurnManager, error) {
	if len(playerIDs) < 2 {
		return nil, ErrTooFewPlayers
	}
	if limit < MinTurnTimeLimit {
		return nil, ErrTurnLimitTooShort
	}
	dir := 1
	if counterClockwise {
		dir = -1
	}
	tm := &TurnManager{
		playerIDs: append([]string(nil), playerIDs...),
		limit:     limit,
		direction: dir,
		turnNum:   1,
	}
	return tm, nil
}

// Start arms the clock for the current player.
func (tm *TurnManager) Start() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.active = true
	tm.armLocked(tm.limit)
}

// Stop disarms the clock and marks the rotation inactive. Safe to call more
// than once.
func (tm *TurnManager) Stop() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.active = false
	tm.disarmLocked()
}

// CurrentPlayerID returns the player whose turn it is.
func (tm *TurnManager) CurrentPlayerID() string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.playerIDs[tm.index]
}

// CurrentPlayerIndex returns the rotation index of the current player.
func (tm *TurnManager) CurrentPlayerIndex() int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.index
}

// IsCurrentPlayer reports whether playerID holds the turn.
func (tm *TurnManager) IsCurrentPlayer(playerID string) bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.playerIDs[tm.index] == playerID
}

// State returns a snapshot of the rotation clock.
func (tm *TurnManager) State() TurnState {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	remaining := tm.remaining
	if tm.active && !tm.paused {
		remaining = tm.limit - time.Since(tm.startedAt)
		if remaining < 0 {
			remaining = 0
		}
	}
	return TurnState{
		CurrentPlayerID:    tm.playerIDs[tm.index],
		CurrentPlayerIndex: tm.index,
		TurnNumber:         tm.turnNum,
		TurnStartTime:      tm.startedAt,
		TurnTimeLimit:      tm.limit,
		TimeRemaining:      remaining,
		Paused:             tm.paused,
	}
}

// NextTurn rotates to the next player and rearms the clock.
func (tm *TurnManager) NextTurn() {
	tm.mu.Lock()
	prev := tm.playerIDs[tm.index]
	tm.advanceLocked()
	cur := tm.playerIDs[tm.index]
	cb := tm.OnTurnChange
	tm.mu.Unlock()
	if cb != nil {
		cb(cur, prev)
	}
}

// SkipTurn is NextTurn under a name that records intent at call sites.
func (tm *TurnManager) SkipTurn() {
	tm.NextTurn()
}

// ResetTimer restarts the current player's clock without rotating.
func (tm *TurnManager) ResetTimer() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.active && !tm.paused {
		tm.armLocked(tm.limit)
	}
}

// Pause freezes the clock, remembering the remaining time.
func (tm *TurnManager) Pause() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if !tm.active || tm.paused {
		return
	}
	tm.remaining = tm.limit - time.Since(tm.startedAt)
	if tm.remaining < 0 {
		tm.remaining = 0
	}
	tm.paused = true
	tm.disarmLocked()
}

// Resume continues a paused clock from where it stopped.
func (tm *TurnManager) Resume() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if !tm.active || !tm.paused {
		return
	}
	tm.paused = false
	tm.armLocked(tm.remaining)
}

// SetTurnTimeLimit changes the per-turn clock, taking effect from the next
// arm. Limits under MinTurnTimeLimit are rejected.
func (tm *TurnManager) SetTurnTimeLimit(limit time.Duration) error {
	if limit < MinTurnTimeLimit {
		return ErrTurnLimitTooShort
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.limit = limit
	return nil
}

// AddPlayer appends a player to the end of the rotation.
func (tm *TurnManager) AddPlayer(playerID string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.playerIDs = append(tm.playerIDs, playerID)
}

// RemovePlayer drops a player from the rotation. Removing the current player
// leaves the index pointing at the player who would have been next. If the
// rotation shrinks below 2 players the clock stops and OnSessionEnd fires.
func (tm *TurnManager) RemovePlayer(playerID string) error {
	tm.mu.Lock()
	pos := -1
	for i, id := range tm.playerIDs {
		if id == playerID {
			pos = i
			break
		}
	}
	if pos == -1 {
		tm.mu.Unlock()
		return ErrPlayerNotInRotation
	}
	wasCurrent := pos == tm.index
	tm.playerIDs = append(tm.playerIDs[:pos], tm.playerIDs[pos+1:]...)
	switch {
	case len(tm.playerIDs) == 0:
		tm.index = 0
	case pos < tm.index:
		tm.index--
	case tm.index >= len(tm.playerIDs):
		tm.index = 0
	}
	var endCB func(string)
	if len(tm.playerIDs) < 2 {
		tm.active = false
		tm.disarmLocked()
		endCB = tm.OnSessionEnd
	} else if wasCurrent && tm.active && !tm.paused {
		// The removed player's successor starts a fresh clock.
		tm.armLocked(tm.limit)
	}
	tm.mu.Unlock()
	if endCB != nil {
		endCB("not enough players")
	}
	return nil
}

// PlayerOrder returns the rotation order as it currently stands.
func (tm *TurnManager) PlayerOrder() []string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return append([]string(nil), tm.playerIDs...)
}

// NextPlayerID returns who would receive the turn on the next rotation.
func (tm *TurnManager) NextPlayerID() string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	n := len(tm.playerIDs)
	return tm.playerIDs[((tm.index+tm.direction)%n+n)%n]
}

func (tm *TurnManager) advanceLocked() {
	n := len(tm.playerIDs)
	tm.index = ((tm.index+tm.direction)%n + n) % n
	tm.turnNum++
	if tm.active && !tm.paused {
		tm.armLocked(tm.limit)
	}
}

func (tm *TurnManager) armLocked(d time.Duration) {
	tm.disarmLocked()
	turn := tm.turnNum
	tm.startedAt = time.Now()
	tm.remaining = d
	tm.timer = time.AfterFunc(d, func() { tm.handleTimeout(turn) })
}

func (tm *TurnManager) disarmLocked() {
	if tm.timer != nil {
		tm.timer.Stop()
		tm.timer = nil
	}
}

func (tm *TurnManager) handleTimeout(turn int) {
	tm.mu.Lock()
	if !tm.active || tm.paused || tm.turnNum != turn {
		// Stale fire: the turn moved on before the timer drained.
		tm.mu.Unlock()
		return
	}
	playerID := tm.playerIDs[tm.index]
	cb := tm.OnTimeout
	tm.mu.Unlock()

	if cb != nil {
		cb(playerID, turn)
	}

	tm.mu.Lock()
	advanced := tm.turnNum != turn || !tm.active
	tm.mu.Unlock()
	if !advanced {
		tm.NextTurn()
	}
}
