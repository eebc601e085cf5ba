package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/HoiniKris/remi/engine"
)

const persistTimeout = 5 * time.Second

// Engine runs classic-variant rooms: a shared table everyone melds onto,
// first-meld threshold, win by emptying the hand down to one discarded tile.
type Engine struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	persister Persister
	recorder  ActionRecorder
	log       *logrus.Logger

	// OnEvent, when set, receives lifecycle notifications (game started,
	// turn timeout, game over). Called outside all locks.
	OnEvent func(roomID, event string)
}

// NewEngine builds a classic-variant engine. persister and recorder may be
// nil; the engine then runs purely in memory.
func NewEngine(persister Persister, recorder ActionRecorder, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		rooms:     make(map[string]*Room),
		persister: persister,
		recorder:  recorder,
		log:       log,
	}
}

// CreateRoom opens a new room with the host as its only player.
func (e *Engine) CreateRoom(hostID, hostName string, settings *Settings) *Room {
	s := DefaultSettings()
	if settings != nil {
		s = *settings
	}
	now := time.Now()
	room := &Room{
		ID:           uuid.NewString(),
		Players:      []*Player{{ID: hostID, Name: hostName, IsOnline: true}},
		Phase:        PhaseWaiting,
		Settings:     s,
		CreatedAt:    now,
		LastActivity: now,
	}

	e.mu.Lock()
	e.rooms[room.ID] = room
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"room_id": room.ID,
		"host_id": hostID,
	}).Info("room created")
	e.persistRoom(room)
	return room
}

// JoinRoom adds a player to a waiting room.
func (e *Engine) JoinRoom(roomID, playerID, name string) (*Room, error) {
	room, ok := e.GetRoom(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Phase != PhaseWaiting {
		return nil, ErrGameInProgress
	}
	if len(room.Players) >= room.Settings.MaxPlayers {
		return nil, ErrRoomFull
	}
	for _, p := range room.Players {
		if p.ID == playerID {
			return nil, ErrAlreadyInRoom
		}
	}
	room.Players = append(room.Players, &Player{ID: playerID, Name: name, IsOnline: true})
	room.LastActivity = time.Now()

	e.log.WithFields(logrus.Fields{
		"room_id":   roomID,
		"player_id": playerID,
		"players":   len(room.Players),
	}).Info("player joined")
	e.persistLocked(room)
	return room, nil
}

// StartGame deals tiles and opens play. Only the host (first player) may
// start, and only with at least two players seated. extraJokers widens the
// deck by up to four additional jokers.
func (e *Engine) StartGame(roomID, playerID string, extraJokers int) error {
	room, ok := e.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Phase != PhaseWaiting {
		return ErrGameStarted
	}
	if room.Players[0].ID != playerID {
		return ErrNotHost
	}
	if len(room.Players) < 2 {
		return ErrNotEnoughPlayers
	}

	tiles := engine.ShuffleTiles(engine.GenerateTileSet(extraJokers))
	tiles = e.dealTiles(room, tiles)
	room.StockPile = tiles
	room.DiscardPile = nil
	room.TableCombinations = nil
	room.Phase = PhasePlaying
	room.CurrentPlayerIndex = 0
	room.RoundNumber = 1
	room.TurnTimer = room.Settings.TurnTimeLimit
	room.LastActivity = time.Now()

	e.startTurnClock(room, false)

	e.log.WithFields(logrus.Fields{
		"room_id": roomID,
		"players": len(room.Players),
		"stock":   len(room.StockPile),
	}).Info("game started")
	e.persistLocked(room)
	e.notifyAsync(roomID, "game_started")
	return nil
}

// dealTiles hands out the opening tiles from the back of the shuffled deck:
// 15 to the first player, 14 to everyone else. Returns the remaining stock.
func (e *Engine) dealTiles(room *Room, tiles []engine.Tile) []engine.Tile {
	for i, p := range room.Players {
		n := 14
		if i == 0 {
			n = 15
		}
		p.Tiles = append([]engine.Tile(nil), tiles[len(tiles)-n:]...)
		tiles = tiles[:len(tiles)-n]
		p.HasCompletedFirstMeld = false
	}
	return tiles
}

// startTurnClock wires a TurnManager to the room. Called with the room lock
// held; the timeout callback re-enters through handleTurnTimeout, which takes
// the room lock itself.
func (e *Engine) startTurnClock(room *Room, counterClockwise bool) {
	ids := make([]string, len(room.Players))
	for i, p := range room.Players {
		ids[i] = p.ID
	}
	limit := time.Duration(room.Settings.TurnTimeLimit) * time.Second
	if limit < MinTurnTimeLimit {
		limit = MinTurnTimeLimit
	}
	tm, err := NewTurnManager(ids, limit, counterClockwise)
	if err != nil {
		// Callers already enforce the player minimum.
		e.log.WithError(err).WithField("room_id", room.ID).Error("turn manager setup failed")
		return
	}
	roomID := room.ID
	tm.OnTimeout = func(playerID string, turn int) {
		e.handleTurnTimeout(roomID, playerID, turn)
	}
	room.turns = tm
	tm.Start()
}

// handleTurnTimeout runs on the timer goroutine when a player's clock drains.
// It funnels through the room lock like any other mutation.
func (e *Engine) handleTurnTimeout(roomID, playerID string, turn int) {
	room, ok := e.GetRoom(roomID)
	if !ok {
		return
	}
	room.mu.Lock()
	if room.Phase != PhasePlaying {
		room.mu.Unlock()
		return
	}
	e.log.WithFields(logrus.Fields{
		"room_id":   roomID,
		"player_id": playerID,
		"turn":      turn,
	}).Warn("turn timed out, skipping player")
	e.advanceTurn(room)
	e.persistLocked(room)
	room.mu.Unlock()
	e.notify(roomID, "turn_timeout")
}

// ExecuteMove validates and applies a single move for the player whose turn
// it is. Rejected moves leave the room untouched.
func (e *Engine) ExecuteMove(roomID string, mv Move) (*MoveOutcome, error) {
	room, ok := e.GetRoom(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Phase != PhasePlaying {
		return nil, ErrGameNotInProgress
	}
	current := room.Players[room.CurrentPlayerIndex]
	if current.ID != mv.PlayerID {
		return nil, ErrNotYourTurn
	}

	outcome := &MoveOutcome{Room: room}
	var err error
	switch mv.Type {
	case MoveDrawStock:
		err = e.drawStock(room, current)
	case MoveDrawDiscard:
		err = e.drawDiscard(room, current)
	case MovePlayTiles:
		err = e.playTiles(room, current, mv.Combinations, outcome)
	case MoveDiscard:
		err = e.discardTile(room, current, mv.Tile)
	case MoveRearrange:
		err = e.rearrange(room, current, mv.Combinations)
	case MoveReplaceJoker:
		err = e.replaceJoker(room, current, mv)
	case MoveEndTurn:
		e.advanceTurn(room)
	case MoveEndGame:
		err = e.declareWin(room, current, outcome)
	default:
		err = ErrInvalidMoveType
	}
	if err != nil {
		return nil, err
	}

	room.LastActivity = time.Now()
	room.seq++
	e.recordMove(room.ID, room.seq, mv)
	e.persistLocked(room)
	return outcome, nil
}

func (e *Engine) drawStock(room *Room, p *Player) error {
	if len(room.StockPile) == 0 {
		return ErrStockEmpty
	}
	tile := room.StockPile[len(room.StockPile)-1]
	room.StockPile = room.StockPile[:len(room.StockPile)-1]
	p.Tiles = append(p.Tiles, tile)
	return nil
}

func (e *Engine) drawDiscard(room *Room, p *Player) error {
	if len(room.DiscardPile) == 0 {
		return ErrDiscardEmpty
	}
	tile := room.DiscardPile[len(room.DiscardPile)-1]
	room.DiscardPile = room.DiscardPile[:len(room.DiscardPile)-1]
	p.Tiles = append(p.Tiles, tile)
	return nil
}

func (e *Engine) playTiles(room *Room, p *Player, combos []engine.Combination, outcome *MoveOutcome) error {
	if len(combos) == 0 {
		return errors.New("No combinations provided")
	}
	for _, c := range combos {
		if !engine.ValidateCombination(c) {
			return fmt.Errorf("Invalid combination: %s", engine.TilesString(c.Tiles))
		}
	}
	used, err := tilesFromHand(p.Tiles, combos)
	if err != nil {
		return err
	}
	if !p.HasCompletedFirstMeld {
		if res := engine.ValidateFirstMeld(combos, room.Settings.FirstMeldMinimum); !res.Valid {
			return errors.New(res.Reason)
		}
	}
	for _, id := range used {
		p.Tiles = engine.RemoveTileByID(p.Tiles, id)
	}
	room.TableCombinations = append(room.TableCombinations, combos...)
	p.HasCompletedFirstMeld = true

	// Playing out the whole hand ends the game immediately; there is no
	// closing discard so FREE_JOKER can never apply.
	if len(p.Tiles) == 0 {
		var tableTiles []engine.Tile
		for _, c := range room.TableCombinations {
			tableTiles = append(tableTiles, c.Tiles...)
		}
		pattern := engine.DetectWinPattern(tableTiles)
		base, bonus := engine.CalculateWinScore(pattern)
		e.settleWin(room, p, outcome, pattern, base+bonus)
	}
	return nil
}

// tilesFromHand checks every tile in combos is held exactly once and returns
// the consumed tile IDs.
func tilesFromHand(hand []engine.Tile, combos []engine.Combination) ([]string, error) {
	held := make(map[string]bool, len(hand))
	for _, t := range hand {
		held[t.ID] = true
	}
	var used []string
	for _, c := range combos {
		for _, t := range c.Tiles {
			if !held[t.ID] {
				return nil, fmt.Errorf("Tile %s is not in your hand", t.ID)
			}
			held[t.ID] = false
			used = append(used, t.ID)
		}
	}
	return used, nil
}

func (e *Engine) discardTile(room *Room, p *Player, tile *engine.Tile) error {
	if tile == nil {
		return errors.New("No tile specified")
	}
	held, ok := engine.FindTileByID(p.Tiles, tile.ID)
	if !ok {
		return fmt.Errorf("Tile %s is not in your hand", tile.ID)
	}
	p.Tiles = engine.RemoveTileByID(p.Tiles, tile.ID)
	room.DiscardPile = append(room.DiscardPile, held)
	e.advanceTurn(room)
	return nil
}

// rearrange replaces the whole table with a new arrangement. Every table
// tile must reappear; extra tiles may come from the mover's hand.
func (e *Engine) rearrange(room *Room, p *Player, combos []engine.Combination) error {
	if !p.HasCompletedFirstMeld {
		return errors.New("Must complete first meld before rearranging")
	}
	for _, c := range combos {
		if !engine.ValidateCombination(c) {
			return fmt.Errorf("Invalid combination: %s", engine.TilesString(c.Tiles))
		}
	}

	onTable := make(map[string]bool)
	for _, c := range room.TableCombinations {
		for _, t := range c.Tiles {
			onTable[t.ID] = true
		}
	}
	inHand := make(map[string]bool, len(p.Tiles))
	for _, t := range p.Tiles {
		inHand[t.ID] = true
	}

	var fromHand []string
	seen := make(map[string]bool)
	for _, c := range combos {
		for _, t := range c.Tiles {
			if seen[t.ID] {
				return fmt.Errorf("Tile %s used twice", t.ID)
			}
			seen[t.ID] = true
			switch {
			case onTable[t.ID]:
			case inHand[t.ID]:
				fromHand = append(fromHand, t.ID)
			default:
				return fmt.Errorf("Tile %s is not on the table or in your hand", t.ID)
			}
		}
	}
	for id := range onTable {
		if !seen[id] {
			return fmt.Errorf("Tile %s missing from rearrangement", id)
		}
	}

	for _, id := range fromHand {
		p.Tiles = engine.RemoveTileByID(p.Tiles, id)
	}
	room.TableCombinations = combos
	return nil
}

// replaceJoker swaps a table joker for the real tile it represents. The
// joker moves into the mover's hand. The replacement is validated on a copy
// of the combination and only committed once it checks out, so the table is
// never left mid-edit.
func (e *Engine) replaceJoker(room *Room, p *Player, mv Move) error {
	if !p.HasCompletedFirstMeld {
		return errors.New("Must complete first meld before replacing a Joker")
	}
	if mv.Tile == nil || mv.TargetCombinationIndex == nil || mv.JokerIndex == nil {
		return errors.New("Joker replacement needs a tile, combination index and joker index")
	}
	ci, ji := *mv.TargetCombinationIndex, *mv.JokerIndex
	if ci < 0 || ci >= len(room.TableCombinations) {
		return errors.New("Combination index out of range")
	}
	combo := room.TableCombinations[ci]
	if ji < 0 || ji >= len(combo.Tiles) || !combo.Tiles[ji].IsJoker {
		return errors.New("Target tile is not a Joker")
	}
	slot, ok := engine.JokerRepresentation(combo, ji)
	if !ok {
		return errors.New("Cannot determine what the Joker represents")
	}
	repl, ok := engine.FindTileByID(p.Tiles, mv.Tile.ID)
	if !ok {
		return fmt.Errorf("Tile %s is not in your hand", mv.Tile.ID)
	}
	if repl.IsJoker || repl.Number != slot.Number || repl.Color != slot.Color {
		return errors.New("Replacement tile does not match the Joker's value")
	}

	candidate := engine.Combination{
		Kind:  combo.Kind,
		Tiles: append([]engine.Tile(nil), combo.Tiles...),
	}
	candidate.Tiles[ji] = repl
	if !engine.ValidateCombination(candidate) {
		return errors.New("Replacement breaks the combination")
	}

	joker := combo.Tiles[ji]
	room.TableCombinations[ci] = candidate
	p.Tiles = engine.RemoveTileByID(p.Tiles, repl.ID)
	p.Tiles = append(p.Tiles, joker)
	return nil
}

// declareWin checks the win condition, scores the table pattern and settles
// every player's score. A joker as the final tile upgrades to FREE_JOKER.
func (e *Engine) declareWin(room *Room, p *Player, outcome *MoveOutcome) error {
	wv := engine.ValidateWinCondition(p.Tiles, room.TableCombinations)
	if !wv.CanWin {
		return errors.New(wv.Reason)
	}
	pattern := wv.Pattern
	total := wv.TotalScore
	if p.Tiles[0].IsJoker {
		pattern = engine.PatternFreeJoker
		base, bonus := engine.CalculateWinScore(pattern)
		total = base + bonus
	}

	e.settleWin(room, p, outcome, pattern, total)
	return nil
}

// settleWin debits every other player for unplayed tiles, credits the winner
// with the pattern score plus everything the losers paid, and closes the
// room. Room lock held.
func (e *Engine) settleWin(room *Room, p *Player, outcome *MoveOutcome, pattern engine.WinPattern, total int) {
	collected := 0
	for _, other := range room.Players {
		if other.ID == p.ID {
			continue
		}
		lost := engine.RemainingTilesScore(other.Tiles, room.Settings.JokerPenalty)
		other.Score -= lost
		collected += lost
	}
	p.Score += total + collected
	room.Phase = PhaseFinished
	if room.turns != nil {
		room.turns.Stop()
	}

	outcome.WinPattern = pattern
	outcome.WinScore = total
	e.log.WithFields(logrus.Fields{
		"room_id":   room.ID,
		"winner_id": p.ID,
		"pattern":   pattern,
		"score":     total,
	}).Info("game over")
	e.notifyAsync(room.ID, "game_over")
}

// advanceTurn rotates to the next player, keeping the room index in step
// with the turn manager. Room lock held.
func (e *Engine) advanceTurn(room *Room) {
	if room.turns != nil {
		room.turns.NextTurn()
		room.CurrentPlayerIndex = room.turns.CurrentPlayerIndex()
	} else {
		room.CurrentPlayerIndex = (room.CurrentPlayerIndex + 1) % len(room.Players)
	}
	room.TurnTimer = room.Settings.TurnTimeLimit
}

// GetRoom returns a room by id.
func (e *Engine) GetRoom(roomID string) (*Room, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	room, ok := e.rooms[roomID]
	return room, ok
}

// GetAllRooms returns every room the engine currently holds.
func (e *Engine) GetAllRooms() []*Room {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rooms := make([]*Room, 0, len(e.rooms))
	for _, r := range e.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// CleanupInactiveRooms drops rooms idle for longer than maxIdle and returns
// how many were removed. Their persisted snapshots are deleted best effort.
func (e *Engine) CleanupInactiveRooms(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	e.mu.Lock()
	var removed []string
	for id, room := range e.rooms {
		room.mu.Lock()
		stale := room.LastActivity.Before(cutoff)
		if stale && room.turns != nil {
			room.turns.Stop()
		}
		room.mu.Unlock()
		if stale {
			delete(e.rooms, id)
			removed = append(removed, id)
		}
	}
	e.mu.Unlock()

	for _, id := range removed {
		e.log.WithField("room_id", id).Info("inactive room removed")
		if e.persister != nil {
			go func(roomID string) {
				ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
				defer cancel()
				if err := e.persister.DeleteRoom(ctx, roomID); err != nil {
					e.log.WithError(err).WithField("room_id", roomID).Warn("snapshot delete failed")
				}
			}(id)
		}
	}
	return len(removed)
}

// RestoreRoom loads a persisted snapshot back into memory, rebuilding the
// turn clock for rooms that were mid-game.
func (e *Engine) RestoreRoom(ctx context.Context, roomID string) (*Room, error) {
	if e.persister == nil {
		return nil, ErrRoomNotFound
	}
	snap, err := e.persister.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrRoomNotFound
	}
	var room Room
	if err := json.Unmarshal(snap.State, &room); err != nil {
		return nil, fmt.Errorf("decode room snapshot: %w", err)
	}
	room.LastActivity = time.Now()

	e.mu.Lock()
	e.rooms[room.ID] = &room
	e.mu.Unlock()

	if room.Phase == PhasePlaying {
		room.mu.Lock()
		e.startTurnClock(&room, false)
		if room.turns != nil {
			room.turns.mu.Lock()
			room.turns.index = room.CurrentPlayerIndex
			room.turns.mu.Unlock()
		}
		room.mu.Unlock()
	}
	e.log.WithFields(logrus.Fields{
		"room_id": room.ID,
		"phase":   room.Phase,
	}).Info("room restored")
	return &room, nil
}

// Close stops every room's turn clock.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, room := range e.rooms {
		room.mu.Lock()
		if room.turns != nil {
			room.turns.Stop()
		}
		room.mu.Unlock()
	}
}

// SaveAll snapshots every live room, for periodic background saves.
func (e *Engine) SaveAll() {
	for _, room := range e.GetAllRooms() {
		e.persistRoom(room)
	}
}

// persistRoom snapshots a room it does not yet hold the lock for.
func (e *Engine) persistRoom(room *Room) {
	room.mu.Lock()
	e.persistLocked(room)
	room.mu.Unlock()
}

// persistLocked fires an async snapshot save. Room lock held; the snapshot
// is fully serialized before the goroutine starts so the save never races
// later mutations.
func (e *Engine) persistLocked(room *Room) {
	if e.persister == nil {
		return
	}
	state, err := json.Marshal(room)
	if err != nil {
		e.log.WithError(err).WithField("room_id", room.ID).Error("room snapshot encode failed")
		return
	}
	snap := RoomSnapshot{
		RoomID:       room.ID,
		Variant:      VariantClassic,
		Phase:        room.Phase,
		PlayerCount:  len(room.Players),
		State:        state,
		LastActivity: room.LastActivity,
		SavedAt:      time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := e.persister.SaveRoom(ctx, snap); err != nil {
			e.log.WithError(err).WithField("room_id", snap.RoomID).Warn("room snapshot save failed")
		}
	}()
}

func (e *Engine) recordMove(roomID string, seq int, mv Move) {
	if e.recorder == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := e.recorder.RecordAction(ctx, roomID, seq, mv); err != nil {
			e.log.WithError(err).WithField("room_id", roomID).Warn("action record failed")
		}
	}()
}

func (e *Engine) notify(roomID, event string) {
	if e.OnEvent != nil {
		e.OnEvent(roomID, event)
	}
}

// notifyAsync defers the callback off the current goroutine, for call sites
// still holding the room lock.
func (e *Engine) notifyAsync(roomID, event string) {
	if e.OnEvent != nil {
		go e.OnEvent(roomID, event)
	}
}
