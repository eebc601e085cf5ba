package engine

import "fmt"

// WinPattern names the scoring classification of a classic-variant win.
type WinPattern string

const (
	PatternClean       WinPattern = "CLEAN"
	PatternFreeJoker   WinPattern = "FREE_JOKER"
	PatternMonochrome  WinPattern = "MONOCHROME"
	PatternBicolor     WinPattern = "BICOLOR"
	PatternMinor       WinPattern = "MINOR"
	PatternMajor       WinPattern = "MAJOR"
	PatternGrandSquare WinPattern = "GRAND_SQUARE"
	PatternMozaic      WinPattern = "MOZAIC"
	PatternDoubles     WinPattern = "DOUBLES"
)

// WinValidation is the outcome of a classic win-condition check.
type WinValidation struct {
	CanWin     bool
	Reason     string
	Pattern    WinPattern
	BaseScore  int
	BonusScore int
	TotalScore int
}

// ValidateWinCondition checks whether a classic-variant player may declare a
// win: exactly one tile left in hand and every table combination valid. On
// success the table's pattern and score are attached.
func ValidateWinCondition(playerTiles []Tile, tableCombinations []Combination) WinValidation {
	if len(playerTiles) != 1 {
		return WinValidation{
			Reason: fmt.Sprintf("Must have exactly 1 tile remaining (have %d)", len(playerTiles)),
		}
	}

	for _, c := range tableCombinations {
		if !ValidateCombination(c) {
			return WinValidation{Reason: "Invalid combination on table"}
		}
	}

	var allTiles []Tile
	for _, c := range tableCombinations {
		allTiles = append(allTiles, c.Tiles...)
	}
	pattern := DetectWinPattern(allTiles)
	base, bonus := CalculateWinScore(pattern)

	return WinValidation{
		CanWin:     true,
		Pattern:    pattern,
		BaseScore:  base,
		BonusScore: bonus,
		TotalScore: base + bonus,
	}
}

// DetectWinPattern classifies the winning table's tiles. Checks run in fixed
// priority order; the first matching pattern wins. FREE_JOKER is decided by
// the engine from the closing hand, never here.
func DetectWinPattern(tiles []Tile) WinPattern {
	var nonJoker []Tile
	for _, t := range tiles {
		if !t.IsJoker {
			nonJoker = append(nonJoker, t)
		}
	}

	if isGrandSquare(nonJoker) {
		return PatternGrandSquare
	}

	if len(nonJoker) > 0 {
		mono := true
		for _, t := range nonJoker {
			if t.Color != nonJoker[0].Color {
				mono = false
				break
			}
		}
		if mono {
			return PatternMonochrome
		}
	}

	colors := make(map[Color]bool)
	for _, t := range nonJoker {
		colors[t.Color] = true
	}
	if len(colors) == 2 {
		return PatternBicolor
	}

	if len(nonJoker) > 0 {
		minor, major := true, true
		for _, t := range nonJoker {
			if t.Number >= 7 {
				minor = false
			}
			if t.Number <= 7 {
				major = false
			}
		}
		if minor {
			return PatternMinor
		}
		if major {
			return PatternMajor
		}
	}

	// Mozaic proxy: all four colors present. Intentionally heuristic.
	if len(colors) == 4 {
		return PatternMozaic
	}

	if isDoubles(nonJoker) {
		return PatternDoubles
	}

	// CLEAN covers both the no-joker finish and the unpatterned default.
	return PatternClean
}

// isGrandSquare reports at least four numbers each fully represented by four
// different-colored non-joker tiles.
func isGrandSquare(nonJoker []Tile) bool {
	if len(nonJoker) < 16 {
		return false
	}

	byNumber := make(map[int][]Tile)
	for _, t := range nonJoker {
		byNumber[t.Number] = append(byNumber[t.Number], t)
	}

	completeSets := 0
	for _, group := range byNumber {
		if len(group) != 4 {
			continue
		}
		colors := make(map[Color]bool, 4)
		for _, t := range group {
			colors[t.Color] = true
		}
		if len(colors) == 4 {
			completeSets++
		}
	}
	return completeSets >= 4
}

// isDoubles reports that every non-joker number/color pair appears exactly
// twice.
func isDoubles(nonJoker []Tile) bool {
	counts := make(map[string]int)
	for _, t := range nonJoker {
		counts[fmt.Sprintf("%d-%s", t.Number, t.Color)]++
	}
	for _, c := range counts {
		if c != 2 {
			return false
		}
	}
	return true
}

// CalculateWinScore returns the base and bonus score for a classic pattern.
func CalculateWinScore(pattern WinPattern) (base, bonus int) {
	base = 250

	switch pattern {
	case PatternClean:
		base = 350
		bonus = 50
	case PatternFreeJoker:
		base = 500
	case PatternMonochrome:
		bonus = 750
	case PatternBicolor:
		bonus = 250
	case PatternMinor, PatternMajor:
		bonus = 150
	case PatternGrandSquare:
		bonus = 800
	case PatternMozaic:
		bonus = 400
	case PatternDoubles:
		bonus = 300
	}
	return base, bonus
}

// RemainingTilesScore computes the points a loser forfeits for unplayed
// tiles: face number per non-joker, jokerPenalty per joker.
func RemainingTilesScore(tiles []Tile, jokerPenalty int) int {
	sum := 0
	for _, t := range tiles {
		if t.IsJoker {
			sum += jokerPenalty
		} else {
			sum += t.Number
		}
	}
	return sum
}

// FirstMeldResult reports whether proposed combinations satisfy the classic
// first-meld minimum.
type FirstMeldResult struct {
	Valid  bool
	Points int
	Reason string
}

// ValidateFirstMeld sums non-joker face numbers across combinations and
// compares against the configured minimum.
func ValidateFirstMeld(combos []Combination, minimumPoints int) FirstMeldResult {
	points := CombinationPoints(combos)
	if points < minimumPoints {
		return FirstMeldResult{
			Points: points,
			Reason: fmt.Sprintf("First meld must be at least %d points (have %d)", minimumPoints, points),
		}
	}
	return FirstMeldResult{Valid: true, Points: points}
}
