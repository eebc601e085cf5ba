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

// RemiSettings configures a "Remi pe Tablă" room. Play rotates
// counter-clockwise unless Clockwise is set; every score is multiplied by
// ScoreMultiplier (the table stake).
type RemiSettings struct {
	MaxPlayers      int  `json:"maxPlayers"`
	TurnTimeLimit   int  `json:"turnTimeLimit"` // seconds
	JokerPenalty    int  `json:"jokerPenalty"`
	Clockwise       bool `json:"clockwise"`
	UseTrumpTile    bool `json:"useTrumpTile"`
	ScoreMultiplier int  `json:"scoreMultiplier"`
}

// DefaultRemiSettings returns the standard board-variant settings.
func DefaultRemiSettings() RemiSettings {
	return RemiSettings{
		MaxPlayers:      4,
		TurnTimeLimit:   60,
		JokerPenalty:    50,
		UseTrumpTile:    true,
		ScoreMultiplier: 1,
	}
}

// RemiPlayer is a participant in a board-variant room. Board holds the
// private arrangement; tiles there are no longer counted against the player
// at settlement. LaunchedJokers records jokers this player put out of play.
type RemiPlayer struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Tiles           []engine.Tile        `json:"tiles"`
	Board           []engine.Combination `json:"board"`
	LaunchedJokers  []engine.Tile        `json:"launchedJokers"`
	Score           int                  `json:"score"`
	IsOnline        bool                 `json:"isOnline"`
	DisconnectCount int                  `json:"disconnectCount"`
	HasForfeited    bool                 `json:"hasForfeited"`
}

// RemiRoom is a board-variant game room.
type RemiRoom struct {
	ID                 string        `json:"id"`
	Players            []*RemiPlayer `json:"players"`
	CurrentPlayerIndex int           `json:"currentPlayerIndex"`
	StockPile          []engine.Tile `json:"stockPile"`
	DiscardPile        []engine.Tile `json:"discardPile"`
	LaunchedJokers     []engine.Tile `json:"launchedJokers"`
	TrumpTile          *engine.Tile  `json:"trumpTile,omitempty"`
	Phase              Phase         `json:"gamePhase"`
	RoundNumber        int           `json:"roundNumber"`
	TurnTimer          int           `json:"turnTimer"`
	Settings           RemiSettings  `json:"settings"`
	CreatedAt          time.Time     `json:"createdAt"`
	LastActivity       time.Time     `json:"lastActivity"`

	mu    sync.Mutex
	turns *TurnManager
	seq   int
}

// RemiOutcome carries the room after a successful board-variant move, plus
// the closing pattern when the move ended the game. TileLiability reports,
// per losing player, the face value left in hand at close time (jokers at
// the configured penalty); it is informational and not part of settlement.
type RemiOutcome struct {
	Room          *RemiRoom
	Pattern       *engine.PatternResult
	Score         int
	TileLiability map[string]int
}

// ErrJokerNotDrawable rejects attempts to pick a launched joker back up.
var ErrJokerNotDrawable = errors.New("Cannot pick up a launched Joker")

// RemiEngine runs board-variant rooms: private boards instead of a shared
// table, launched jokers, and the closed-game pattern ladder.
type RemiEngine struct {
	mu    sync.RWMutex
	rooms map[string]*RemiRoom

	persister Persister
	recorder  ActionRecorder
	log       *logrus.Logger

	OnEvent func(roomID, event string)

	// autoPlay, when set by the disconnection handler, takes over expired
	// turns of offline players. Called with the room lock held; returns
	// true when it advanced the turn itself.
	autoPlay func(room *RemiRoom, p *RemiPlayer) bool
}

// NewRemiEngine builds a board-variant engine. persister and recorder may
// be nil.
func NewRemiEngine(persister Persister, recorder ActionRecorder, log *logrus.Logger) *RemiEngine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RemiEngine{
		rooms:     make(map[string]*RemiRoom),
		persister: persister,
		recorder:  recorder,
		log:       log,
	}
}

// CreateRoom opens a new board-variant room with the host seated.
func (e *RemiEngine) CreateRoom(hostID, hostName string, settings *RemiSettings) *RemiRoom {
	s := DefaultRemiSettings()
	if settings != nil {
		s = *settings
	}
	if s.ScoreMultiplier < 1 {
		s.ScoreMultiplier = 1
	}
	now := time.Now()
	room := &RemiRoom{
		ID:           uuid.NewString(),
		Players:      []*RemiPlayer{{ID: hostID, Name: hostName, IsOnline: true}},
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
	}).Info("board room created")
	e.persistRoom(room)
	return room
}

// JoinRoom seats a player in a waiting room.
func (e *RemiEngine) JoinRoom(roomID, playerID, name string) (*RemiRoom, error) {
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
	room.Players = append(room.Players, &RemiPlayer{ID: playerID, Name: name, IsOnline: true})
	room.LastActivity = time.Now()

	e.log.WithFields(logrus.Fields{
		"room_id":   roomID,
		"player_id": playerID,
		"players":   len(room.Players),
	}).Info("player joined board room")
	e.persistLocked(room)
	return room, nil
}

// StartGame deals and opens play, optionally flipping a trump tile.
// extraJokers widens the deck by up to four additional jokers.
func (e *RemiEngine) StartGame(roomID, playerID string, extraJokers int) error {
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
	for i, p := range room.Players {
		n := 14
		if i == 0 {
			n = 15
		}
		p.Tiles = append([]engine.Tile(nil), tiles[len(tiles)-n:]...)
		tiles = tiles[:len(tiles)-n]
		p.Board = nil
		p.LaunchedJokers = nil
	}
	if room.Settings.UseTrumpTile && len(tiles) > 0 {
		// The trump is flipped from the stock and shown face up. Jokers
		// cannot be trump; skip down until a numbered tile surfaces.
		for i := len(tiles) - 1; i >= 0; i-- {
			if !tiles[i].IsJoker {
				trump := tiles[i]
				room.TrumpTile = &trump
				tiles = append(tiles[:i], tiles[i+1:]...)
				break
			}
		}
	}
	room.StockPile = tiles
	room.DiscardPile = nil
	room.LaunchedJokers = nil
	room.Phase = PhasePlaying
	room.CurrentPlayerIndex = 0
	room.RoundNumber = 1
	room.TurnTimer = room.Settings.TurnTimeLimit
	room.LastActivity = time.Now()

	e.startTurnClock(room)

	e.log.WithFields(logrus.Fields{
		"room_id": roomID,
		"players": len(room.Players),
		"stock":   len(room.StockPile),
		"trump":   room.TrumpTile != nil,
	}).Info("board game started")
	e.persistLocked(room)
	e.notifyAsync(roomID, "game_started")
	return nil
}

func (e *RemiEngine) startTurnClock(room *RemiRoom) {
	ids := make([]string, len(room.Players))
	for i, p := range room.Players {
		ids[i] = p.ID
	}
	limit := time.Duration(room.Settings.TurnTimeLimit) * time.Second
	if limit < MinTurnTimeLimit {
		limit = MinTurnTimeLimit
	}
	tm, err := NewTurnManager(ids, limit, !room.Settings.Clockwise)
	if err != nil {
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

func (e *RemiEngine) handleTurnTimeout(roomID, playerID string, turn int) {
	room, ok := e.GetRoom(roomID)
	if !ok {
		return
	}
	room.mu.Lock()
	if room.Phase != PhasePlaying {
		room.mu.Unlock()
		return
	}
	current := room.Players[room.CurrentPlayerIndex]
	handled := false
	if !current.IsOnline && e.autoPlay != nil && current.ID == playerID {
		handled = e.autoPlay(room, current)
	}
	if !handled {
		e.log.WithFields(logrus.Fields{
			"room_id":   roomID,
			"player_id": playerID,
			"turn":      turn,
		}).Warn("turn timed out, skipping player")
		e.advanceTurn(room)
	}
	e.persistLocked(room)
	room.mu.Unlock()
	e.notify(roomID, "turn_timeout")
}

// ExecuteMove validates and applies one board-variant move.
func (e *RemiEngine) ExecuteMove(roomID string, mv Move) (*RemiOutcome, error) {
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

	outcome := &RemiOutcome{Room: room}
	var err error
	switch mv.Type {
	case MoveDrawStock:
		err = e.drawStock(room, current)
	case MoveDrawDiscard:
		err = e.drawDiscard(room, current)
	case MoveDiscard:
		err = e.discardTile(room, current, mv.Tile)
	case MoveArrangeBoard:
		err = e.arrangeBoard(room, current, mv.Combinations)
	case MoveCloseGame:
		err = e.closeGame(room, current, mv.Tile, outcome)
	case MoveEndTurn:
		e.advanceTurn(room)
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

func (e *RemiEngine) drawStock(room *RemiRoom, p *RemiPlayer) error {
	if len(room.StockPile) == 0 {
		return ErrStockEmpty
	}
	tile := room.StockPile[len(room.StockPile)-1]
	room.StockPile = room.StockPile[:len(room.StockPile)-1]
	p.Tiles = append(p.Tiles, tile)
	return nil
}

func (e *RemiEngine) drawDiscard(room *RemiRoom, p *RemiPlayer) error {
	if len(room.DiscardPile) == 0 {
		return ErrDiscardEmpty
	}
	top := room.DiscardPile[len(room.DiscardPile)-1]
	if top.IsJoker {
		// Launched jokers never reach the discard pile, but guard anyway.
		return ErrJokerNotDrawable
	}
	room.DiscardPile = room.DiscardPile[:len(room.DiscardPile)-1]
	p.Tiles = append(p.Tiles, top)
	return nil
}

// discardTile ends the turn. A discarded joker is launched: it leaves play
// permanently and is shown beside the board instead of joining the pile.
func (e *RemiEngine) discardTile(room *RemiRoom, p *RemiPlayer, tile *engine.Tile) error {
	if tile == nil {
		return errors.New("No tile specified")
	}
	held, ok := engine.FindTileByID(p.Tiles, tile.ID)
	if !ok {
		return fmt.Errorf("Tile %s is not in your hand", tile.ID)
	}
	p.Tiles = engine.RemoveTileByID(p.Tiles, tile.ID)
	if held.IsJoker {
		p.LaunchedJokers = append(p.LaunchedJokers, held)
		room.LaunchedJokers = append(room.LaunchedJokers, held)
		e.log.WithFields(logrus.Fields{
			"room_id":   room.ID,
			"player_id": p.ID,
			"launched":  len(p.LaunchedJokers),
		}).Info("joker launched")
	} else {
		room.DiscardPile = append(room.DiscardPile, held)
	}
	e.advanceTurn(room)
	return nil
}

// arrangeBoard replaces the player's private board. Every tile in the new
// arrangement must come from the player's hand or current board; board tiles
// left out of the new arrangement return to the hand.
func (e *RemiEngine) arrangeBoard(room *RemiRoom, p *RemiPlayer, combos []engine.Combination) error {
	for _, c := range combos {
		if !engine.ValidateCombination(c) {
			return fmt.Errorf("Invalid combination: %s", engine.TilesString(c.Tiles))
		}
	}

	owned := make(map[string]engine.Tile, len(p.Tiles))
	for _, t := range p.Tiles {
		owned[t.ID] = t
	}
	for _, c := range p.Board {
		for _, t := range c.Tiles {
			owned[t.ID] = t
		}
	}

	seen := make(map[string]bool)
	for _, c := range combos {
		for _, t := range c.Tiles {
			if seen[t.ID] {
				return fmt.Errorf("Tile %s used twice", t.ID)
			}
			if _, ok := owned[t.ID]; !ok {
				return fmt.Errorf("Tile %s is not yours to arrange", t.ID)
			}
			seen[t.ID] = true
		}
	}

	var hand []engine.Tile
	for id, t := range owned {
		if !seen[id] {
			hand = append(hand, t)
		}
	}
	p.Tiles = engine.SortTiles(hand)
	p.Board = combos
	return nil
}

// closeGame settles the room. The closer must hold exactly the closing tile
// outside a fully valid board; the board's pattern decides the score, and
// every score is scaled by the table multiplier.
func (e *RemiEngine) closeGame(room *RemiRoom, p *RemiPlayer, closing *engine.Tile, outcome *RemiOutcome) error {
	if closing == nil {
		return errors.New("No closing tile specified")
	}
	if len(p.Board) == 0 {
		return errors.New("Cannot close with an empty board")
	}
	for _, c := range p.Board {
		if !engine.ValidateCombination(c) {
			return fmt.Errorf("Invalid combination: %s", engine.TilesString(c.Tiles))
		}
	}
	held, ok := engine.FindTileByID(p.Tiles, closing.ID)
	if !ok {
		return fmt.Errorf("Tile %s is not in your hand", closing.ID)
	}
	if len(p.Tiles) != 1 {
		return fmt.Errorf("Must have exactly 1 tile remaining (have %d)", len(p.Tiles))
	}

	result := engine.DetectRemiPattern(p.Board, &held, p.LaunchedJokers, held.IsJoker)
	score := result.BaseScore * room.Settings.ScoreMultiplier

	p.Tiles = nil
	if held.IsJoker {
		p.LaunchedJokers = append(p.LaunchedJokers, held)
		room.LaunchedJokers = append(room.LaunchedJokers, held)
	} else {
		room.DiscardPile = append(room.DiscardPile, held)
	}

	// The closer collects the pattern score from every live opponent;
	// forfeited players already sit at their fixed forfeit score.
	liability := make(map[string]int, len(room.Players)-1)
	for _, other := range room.Players {
		if other.ID == p.ID || other.HasForfeited {
			continue
		}
		other.Score -= score
		p.Score += score
		liability[other.ID] = engine.RemainingTilesScore(other.Tiles, room.Settings.JokerPenalty)
	}
	room.Phase = PhaseFinished
	if room.turns != nil {
		room.turns.Stop()
	}

	outcome.Pattern = &result
	outcome.Score = score
	outcome.TileLiability = liability
	e.log.WithFields(logrus.Fields{
		"room_id":   room.ID,
		"winner_id": p.ID,
		"pattern":   result.Pattern,
		"score":     score,
	}).Info("board game closed")
	e.notifyAsync(room.ID, "game_over")
	return nil
}

func (e *RemiEngine) advanceTurn(room *RemiRoom) {
	if room.turns != nil {
		room.turns.NextTurn()
		room.CurrentPlayerIndex = room.turns.CurrentPlayerIndex()
	} else {
		n := len(room.Players)
		step := -1
		if room.Settings.Clockwise {
			step = 1
		}
		room.CurrentPlayerIndex = ((room.CurrentPlayerIndex+step)%n + n) % n
	}
	room.TurnTimer = room.Settings.TurnTimeLimit
}

// GetRoom returns a room by id.
func (e *RemiEngine) GetRoom(roomID string) (*RemiRoom, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	room, ok := e.rooms[roomID]
	return room, ok
}

// GetAllRooms returns every room the engine currently holds.
func (e *RemiEngine) GetAllRooms() []*RemiRoom {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rooms := make([]*RemiRoom, 0, len(e.rooms))
	for _, r := range e.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// CleanupInactiveRooms drops rooms idle for longer than maxIdle.
func (e *RemiEngine) CleanupInactiveRooms(maxIdle time.Duration) int {
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
		e.log.WithField("room_id", id).Info("inactive board room removed")
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

// RestoreRoom loads a persisted snapshot back into memory.
func (e *RemiEngine) RestoreRoom(ctx context.Context, roomID string) (*RemiRoom, error) {
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
	var room RemiRoom
	if err := json.Unmarshal(snap.State, &room); err != nil {
		return nil, fmt.Errorf("decode room snapshot: %w", err)
	}
	room.LastActivity = time.Now()

	e.mu.Lock()
	e.rooms[room.ID] = &room
	e.mu.Unlock()

	if room.Phase == PhasePlaying {
		room.mu.Lock()
		e.startTurnClock(&room)
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
	}).Info("board room restored")
	return &room, nil
}

// Close stops every room's turn clock.
func (e *RemiEngine) Close() {
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
func (e *RemiEngine) SaveAll() {
	for _, room := range e.GetAllRooms() {
		e.persistRoom(room)
	}
}

func (e *RemiEngine) persistRoom(room *RemiRoom) {
	room.mu.Lock()
	e.persistLocked(room)
	room.mu.Unlock()
}

func (e *RemiEngine) persistLocked(room *RemiRoom) {
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
		Variant:      VariantBoard,
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

func (e *RemiEngine) recordMove(roomID string, seq int, mv Move) {
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

func (e *RemiEngine) notify(roomID, event string) {
	if e.OnEvent != nil {
		e.OnEvent(roomID, event)
	}
}

func (e *RemiEngine) notifyAsync(roomID, event string) {
	if e.OnEvent != nil {
		go e.OnEvent(roomID, event)
	}
}
