package engine

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Deck composition constants.
const (
	NumberedTileCount = 104 // 2 copies × 4 colors × 13 numbers
	BaseJokerCount    = 2
	MaxExtraJokers    = 4
	MaxJokerCount     = BaseJokerCount + MaxExtraJokers
)

// GenerateTileSet builds the canonical deck: 104 numbered tiles (two copies
// of every number in every color), two base jokers and up to four extra
// jokers. Every tile carries a globally unique ID within the deck.
func GenerateTileSet(extraJokers int) []Tile {
	tiles := make([]Tile, 0, NumberedTileCount+MaxJokerCount)
	tileID := 0

	for copyIdx := 0; copyIdx < 2; copyIdx++ {
		for _, color := range Colors {
			for number := MinTileNumber; number <= MaxTileNumber; number++ {
				tiles = append(tiles, Tile{
					ID:     fmt.Sprintf("tile-%d", tileID),
					Number: number,
					Color:  color,
				})
				tileID++
			}
		}
	}

	for i := 0; i < BaseJokerCount; i++ {
		tiles = append(tiles, Tile{
			ID:      fmt.Sprintf("joker-%d", i),
			Color:   ColorRed, // nominal; joker color never matters
			IsJoker: true,
		})
	}

	if extraJokers > MaxExtraJokers {
		extraJokers = MaxExtraJokers
	}
	for i := 0; i < extraJokers; i++ {
		tiles = append(tiles, Tile{
			ID:      fmt.Sprintf("joker-extra-%d", i),
			Color:   ColorRed,
			IsJoker: true,
		})
	}

	return tiles
}

// ShuffleTiles returns a Fisher-Yates shuffle of tiles driven by
// crypto/rand. The input slice is not mutated.
func ShuffleTiles(tiles []Tile) []Tile {
	shuffled := make([]Tile, len(tiles))
	copy(shuffled, tiles)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := cryptoIntn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// cryptoIntn returns a uniform random int in [0, n) from crypto/rand.
func cryptoIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails when the platform entropy source is
		// broken; the shuffle cannot proceed safely without it.
		panic(fmt.Sprintf("engine: crypto/rand failed: %v", err))
	}
	return int(v.Int64())
}

// ValidateTileSet audits a tile collection against the canonical deck
// composition: exactly two of every color/number pair and two to six jokers.
// Returns all composition errors found, empty when the set is well formed.
func ValidateTileSet(tiles []Tile) []string {
	var errs []string

	counts := make(map[string]int, NumberedTileCount/2)
	jokerCount := 0
	for _, t := range tiles {
		if t.IsJoker {
			jokerCount++
			continue
		}
		counts[fmt.Sprintf("%s-%d", t.Color, t.Number)]++
	}

	for _, color := range Colors {
		for number := MinTileNumber; number <= MaxTileNumber; number++ {
			key := fmt.Sprintf("%s-%d", color, number)
			if c := counts[key]; c != 2 {
				errs = append(errs, fmt.Sprintf("Tile %s %d appears %d times (expected 2)", color, number, c))
			}
		}
	}

	if jokerCount < BaseJokerCount || jokerCount > MaxJokerCount {
		errs = append(errs, fmt.Sprintf("Invalid Joker count: %d (expected 2-6)", jokerCount))
	}

	return errs
}
