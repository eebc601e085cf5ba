// Package engine implements the Remi tile game rules.
//
// The package is pure: it holds the tile and combination model, the
// combination validator, the deck generator and the win-pattern detectors
// for both game variants. It performs no I/O and keeps no clocks; room
// lifecycle and timing live in internal/game.
package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Color identifies one of the four tile colors.
type Color string

const (
	ColorRed    Color = "RED"
	ColorYellow Color = "YELLOW"
	ColorBlue   Color = "BLUE"
	ColorBlack  Color = "BLACK"
)

// Colors lists all tile colors in canonical order. Joker representation for
// sets picks the first color from this order not already present.
var Colors = [4]Color{ColorRed, ColorYellow, ColorBlue, ColorBlack}

// Tile number bounds. Number 0 is reserved for jokers.
const (
	MinTileNumber = 1
	MaxTileNumber = 13
)

// Tile is an immutable tile value. Two non-joker tiles are equal when they
// share number and color; jokers are distinguishable instances and compare
// equal only by ID. A joker's Number field carries no meaning.
type Tile struct {
	ID      string `json:"id"`
	Number  int    `json:"number"`
	Color   Color  `json:"color"`
	IsJoker bool   `json:"isJoker"`
}

// TilesEqual reports play-equality of two tiles. Jokers are only equal to
// themselves.
func TilesEqual(a, b Tile) bool {
	if a.IsJoker || b.IsJoker {
		return a.ID == b.ID
	}
	return a.Number == b.Number && a.Color == b.Color
}

var colorOrder = map[Color]int{
	ColorRed:    0,
	ColorYellow: 1,
	ColorBlue:   2,
	ColorBlack:  3,
}

// CompareTiles orders tiles by color then number, jokers last.
func CompareTiles(a, b Tile) int {
	switch {
	case a.IsJoker && !b.IsJoker:
		return 1
	case !a.IsJoker && b.IsJoker:
		return -1
	case a.IsJoker && b.IsJoker:
		return 0
	}
	if d := colorOrder[a.Color] - colorOrder[b.Color]; d != 0 {
		return d
	}
	return a.Number - b.Number
}

// SortTiles returns a copy of tiles sorted by color then number.
func SortTiles(tiles []Tile) []Tile {
	sorted := make([]Tile, len(tiles))
	copy(sorted, tiles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareTiles(sorted[i], sorted[j]) < 0
	})
	return sorted
}

// FindTileByID returns the tile with the given ID, or false if absent.
func FindTileByID(tiles []Tile, id string) (Tile, bool) {
	for _, t := range tiles {
		if t.ID == id {
			return t, true
		}
	}
	return Tile{}, false
}

// RemoveTileByID returns tiles without the tile carrying the given ID.
func RemoveTileByID(tiles []Tile, id string) []Tile {
	out := make([]Tile, 0, len(tiles))
	for _, t := range tiles {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// CountJokers returns the number of jokers in tiles.
func CountJokers(tiles []Tile) int {
	n := 0
	for _, t := range tiles {
		if t.IsJoker {
			n++
		}
	}
	return n
}

// CountTilesByColor tallies non-joker tiles per color.
func CountTilesByColor(tiles []Tile) map[Color]int {
	counts := map[Color]int{
		ColorRed:    0,
		ColorYellow: 0,
		ColorBlue:   0,
		ColorBlack:  0,
	}
	for _, t := range tiles {
		if !t.IsJoker {
			counts[t.Color]++
		}
	}
	return counts
}

// String renders a tile as a short debugging token, e.g. "R7" or "JOKER".
func (t Tile) String() string {
	if t.IsJoker {
		return "JOKER"
	}
	return fmt.Sprintf("%s%d", string(t.Color[0]), t.Number)
}

// TilesString renders a slice of tiles space-separated.
func TilesString(tiles []Tile) string {
	parts := make([]string, len(tiles))
	for i, t := range tiles {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
