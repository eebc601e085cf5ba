package game

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/HoiniKris/remi/engine"
)

// Disconnection policy. The first two drops in a session are free; after
// that each drop costs points, and a player who stays away past the
// reconnection window forfeits the game outright.
const (
	ReconnectionWindow    = 2 * time.Minute
	FreeDisconnects       = 2
	DisconnectPenalty     = 50
	RepeatOffenderPenalty = 100
	ForfeitScore          = -1000
)

// ErrPlayerNotInRoom is returned for disconnect events about unknown players.
var ErrPlayerNotInRoom = errors.New("Player not in room")

type disconnectRecord struct {
	roomID   string
	playerID string
	since    time.Time
	timer    *time.Timer
}

// DisconnectionHandler keeps board-variant games moving when players drop.
// It marks players offline, auto-plays their expired turns, charges repeat
// offenders, and forfeits anyone who stays away past the reconnection
// window. Reconnecting inside the window restores the player with their
// hand intact.
type DisconnectionHandler struct {
	mu      sync.Mutex
	records map[string]*disconnectRecord // keyed playerID

	engine *RemiEngine
	log    *logrus.Logger
}

// NewDisconnectionHandler wires a handler to eng, taking over auto-play for
// offline players' expired turns.
func NewDisconnectionHandler(eng *RemiEngine, log *logrus.Logger) *DisconnectionHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := &DisconnectionHandler{
		records: make(map[string]*disconnectRecord),
		engine:  eng,
		log:     log,
	}
	eng.autoPlay = h.autoPlayTurn
	return h
}

// HandleDisconnect marks a player offline, charges any repeat-offender
// penalty, plays their turn out immediately if they held it, and starts the
// forfeit clock.
func (h *DisconnectionHandler) HandleDisconnect(roomID, playerID string) error {
	room, ok := h.engine.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	room.mu.Lock()
	p := findRemiPlayer(room, playerID)
	if p == nil {
		room.mu.Unlock()
		return ErrPlayerNotInRoom
	}
	p.IsOnline = false
	p.DisconnectCount++

	penalty := 0
	switch {
	case p.DisconnectCount > FreeDisconnects+1:
		penalty = RepeatOffenderPenalty
	case p.DisconnectCount > FreeDisconnects:
		penalty = DisconnectPenalty
	}
	p.Score -= penalty
	count := p.DisconnectCount
	playing := room.Phase == PhasePlaying
	// A disconnecting current player would otherwise stall the room until
	// the turn clock drains; play their turn out on the spot. Checking the
	// index under the room lock keeps a racing timer fire from advancing
	// the same turn twice.
	if playing && room.Players[room.CurrentPlayerIndex].ID == playerID {
		h.autoPlayTurn(room, p)
		h.engine.persistLocked(room)
	}
	room.mu.Unlock()

	h.log.WithFields(logrus.Fields{
		"room_id":     roomID,
		"player_id":   playerID,
		"disconnects": count,
		"penalty":     penalty,
	}).Warn("player disconnected")

	if !playing {
		return nil
	}

	h.mu.Lock()
	if old := h.records[playerID]; old != nil && old.timer != nil {
		old.timer.Stop()
	}
	rec := &disconnectRecord{
		roomID:   roomID,
		playerID: playerID,
		since:    time.Now(),
	}
	rec.timer = time.AfterFunc(ReconnectionWindow, func() {
		h.forfeit(roomID, playerID)
	})
	h.records[playerID] = rec
	h.mu.Unlock()
	return nil
}

// HandleReconnect restores a player who came back inside the window. The
// disconnect counter is not reset; repeat offenders stay on the hook.
func (h *DisconnectionHandler) HandleReconnect(roomID, playerID string) error {
	room, ok := h.engine.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	room.mu.Lock()
	p := findRemiPlayer(room, playerID)
	if p == nil {
		room.mu.Unlock()
		return ErrPlayerNotInRoom
	}
	if p.HasForfeited {
		room.mu.Unlock()
		return errors.New("Player has forfeited the game")
	}
	p.IsOnline = true
	room.mu.Unlock()

	h.mu.Lock()
	if rec := h.records[playerID]; rec != nil {
		if rec.timer != nil {
			rec.timer.Stop()
		}
		delete(h.records, playerID)
	}
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{
		"room_id":   roomID,
		"player_id": playerID,
	}).Info("player reconnected")
	return nil
}

// DisconnectedSince reports when a player dropped, if they are currently
// being waited on.
func (h *DisconnectionHandler) DisconnectedSince(playerID string) (time.Time, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rec, ok := h.records[playerID]
	if !ok {
		return time.Time{}, false
	}
	return rec.since, true
}

// Close stops every pending forfeit timer.
func (h *DisconnectionHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, rec := range h.records {
		if rec.timer != nil {
			rec.timer.Stop()
		}
		delete(h.records, id)
	}
}

// forfeit fires when the reconnection window drains without the player
// returning. Their score drops to the forfeit floor and they leave the
// rotation; if only one online player remains the game ends in their favor.
func (h *DisconnectionHandler) forfeit(roomID, playerID string) {
	h.mu.Lock()
	delete(h.records, playerID)
	h.mu.Unlock()

	room, ok := h.engine.GetRoom(roomID)
	if !ok {
		return
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	p := findRemiPlayer(room, playerID)
	if p == nil || p.IsOnline || room.Phase != PhasePlaying {
		return
	}
	p.HasForfeited = true
	p.Score = ForfeitScore

	if room.turns != nil {
		if err := room.turns.RemovePlayer(playerID); err == nil {
			// Re-anchor the room index on whoever the rotation now
			// points at.
			currentID := room.turns.CurrentPlayerID()
			for i, pl := range room.Players {
				if pl.ID == currentID {
					room.CurrentPlayerIndex = i
					break
				}
			}
		}
	}

	h.log.WithFields(logrus.Fields{
		"room_id":   roomID,
		"player_id": playerID,
	}).Warn("player forfeited after reconnection window")

	var lastOnline *RemiPlayer
	online := 0
	for _, pl := range room.Players {
		if pl.IsOnline && !pl.HasForfeited {
			online++
			lastOnline = pl
		}
	}
	if online <= 1 {
		room.Phase = PhaseFinished
		if room.turns != nil {
			room.turns.Stop()
		}
		if lastOnline != nil {
			h.log.WithFields(logrus.Fields{
				"room_id":   roomID,
				"winner_id": lastOnline.ID,
			}).Info("game ended, last player standing")
		}
		h.engine.notifyAsync(roomID, "game_over")
	}
	h.engine.persistLocked(room)
}

// autoPlayTurn plays a full turn for an offline player: draw from the
// stock, bank any combinations the hand supports, then discard. Called by
// the engine with the room lock held.
func (h *DisconnectionHandler) autoPlayTurn(room *RemiRoom, p *RemiPlayer) bool {
	if len(room.StockPile) > 0 {
		tile := room.StockPile[len(room.StockPile)-1]
		room.StockPile = room.StockPile[:len(room.StockPile)-1]
		p.Tiles = append(p.Tiles, tile)
	}

	combos, remaining := AutoArrangeTiles(p.Tiles)
	// Keep at least one tile back so the turn can end on a discard.
	for len(combos) > 0 && len(remaining) == 0 {
		last := combos[len(combos)-1]
		combos = combos[:len(combos)-1]
		remaining = append(remaining, last.Tiles...)
	}
	if len(combos) > 0 {
		p.Board = append(p.Board, combos...)
		p.Tiles = remaining
	}

	if len(p.Tiles) == 0 {
		h.engine.advanceTurn(room)
		return true
	}
	discard := selectAutoDiscard(p.Tiles)
	p.Tiles = engine.RemoveTileByID(p.Tiles, discard.ID)
	if discard.IsJoker {
		p.LaunchedJokers = append(p.LaunchedJokers, discard)
		room.LaunchedJokers = append(room.LaunchedJokers, discard)
	} else {
		room.DiscardPile = append(room.DiscardPile, discard)
	}

	h.log.WithFields(logrus.Fields{
		"room_id":   room.ID,
		"player_id": p.ID,
		"banked":    len(combos),
		"discarded": discard.ID,
	}).Info("auto-played turn for offline player")
	h.engine.advanceTurn(room)
	return true
}

// AutoArrangeTiles greedily extracts valid combinations from a hand: runs
// first (longest consecutive same-color stretches, jokers bridging single
// gaps), then sets from what is left. Returns the combinations and the
// unused tiles.
func AutoArrangeTiles(hand []engine.Tile) ([]engine.Combination, []engine.Tile) {
	var jokers []engine.Tile
	byColor := make(map[engine.Color][]engine.Tile)
	for _, t := range hand {
		if t.IsJoker {
			jokers = append(jokers, t)
		} else {
			byColor[t.Color] = append(byColor[t.Color], t)
		}
	}

	var combos []engine.Combination
	used := make(map[string]bool)

	for _, color := range engine.Colors {
		tiles := engine.SortTiles(byColor[color])
		// One tile per number; duplicates stay in hand for sets.
		var distinct []engine.Tile
		lastNum := 0
		for _, t := range tiles {
			if t.Number != lastNum {
				distinct = append(distinct, t)
				lastNum = t.Number
			}
		}

		var seq []engine.Tile
		flush := func() {
			if len(seq) >= 3 {
				c := engine.Combination{Kind: engine.KindRun, Tiles: seq}
				if engine.ValidateCombination(c) {
					combos = append(combos, c)
					for _, t := range seq {
						used[t.ID] = true
					}
				}
			}
			seq = nil
		}
		for _, t := range distinct {
			switch {
			case len(seq) == 0:
				seq = append(seq, t)
			case t.Number == seq[len(seq)-1].Number+1:
				seq = append(seq, t)
			case t.Number == seq[len(seq)-1].Number+2 && len(jokers) > 0:
				j := jokers[len(jokers)-1]
				jokers = jokers[:len(jokers)-1]
				seq = append(seq, j, t)
			default:
				flush()
				seq = []engine.Tile{t}
			}
		}
		flush()
	}

	// Sets from the leftovers: one tile per color and number.
	byNumber := make(map[int]map[engine.Color]engine.Tile)
	for _, t := range hand {
		if t.IsJoker || used[t.ID] {
			continue
		}
		if byNumber[t.Number] == nil {
			byNumber[t.Number] = make(map[engine.Color]engine.Tile)
		}
		if _, taken := byNumber[t.Number][t.Color]; !taken {
			byNumber[t.Number][t.Color] = t
		}
	}
	for n := engine.MinTileNumber; n <= engine.MaxTileNumber; n++ {
		group := byNumber[n]
		if len(group) < 3 {
			continue
		}
		var tiles []engine.Tile
		for _, color := range engine.Colors {
			if t, ok := group[color]; ok {
				tiles = append(tiles, t)
			}
		}
		c := engine.Combination{Kind: engine.KindSet, Tiles: tiles}
		if engine.ValidateCombination(c) {
			combos = append(combos, c)
			for _, t := range tiles {
				used[t.ID] = true
			}
		}
	}

	var remaining []engine.Tile
	for _, t := range hand {
		if !used[t.ID] {
			remaining = append(remaining, t)
		}
	}
	return combos, remaining
}

// selectAutoDiscard picks the costliest tile to shed: the highest non-joker
// face, falling back to a joker only when nothing else is held.
func selectAutoDiscard(hand []engine.Tile) engine.Tile {
	best := -1
	for i, t := range hand {
		if t.IsJoker {
			continue
		}
		if best == -1 || t.Number > hand[best].Number {
			best = i
		}
	}
	if best == -1 {
		return hand[0]
	}
	return hand[best]
}

func findRemiPlayer(room *RemiRoom, playerID string) *RemiPlayer {
	for _, p := range room.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}
