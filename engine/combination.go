package engine

import "sort"

// CombinationKind distinguishes runs from sets.
type CombinationKind string

const (
	KindRun CombinationKind = "RUN"
	KindSet CombinationKind = "SET"
)

// Combination is an ordered group of tiles claimed to form a run or set.
// Validity is always re-derived by ValidateCombination; the struct stores no
// trusted validity flag.
type Combination struct {
	Kind  CombinationKind `json:"type"`
	Tiles []Tile          `json:"tiles"`
}

// JokerSlot is the concrete (number, color) a joker stands for inside a
// combination.
type JokerSlot struct {
	Number int
	Color  Color
}

// ValidateRun reports whether tiles form a legal run: three or more tiles of
// one color with consecutive numbers, at least one non-joker, jokers filling
// internal gaps one-for-one. Jokers left over after gap filling may extend
// the run at either end; a run whose leftovers cannot extend in either
// direction is still accepted when gap filling alone was consistent, because
// a joker's position is fixed lazily at reveal time.
func ValidateRun(tiles []Tile) bool {
	if len(tiles) < 3 {
		return false
	}

	var jokers, regular []Tile
	for _, t := range tiles {
		if t.IsJoker {
			jokers = append(jokers, t)
		} else {
			regular = append(regular, t)
		}
	}
	if len(regular) == 0 {
		return false
	}

	firstColor := regular[0].Color
	for _, t := range regular {
		if t.Color != firstColor {
			return false
		}
	}

	sorted := make([]Tile, len(regular))
	copy(sorted, regular)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	jokersUsed := 0
	for i := 0; i < len(sorted)-1; i++ {
		gap := sorted[i+1].Number - sorted[i].Number - 1
		if gap < 0 {
			// Duplicate number.
			return false
		}
		jokersUsed += gap
		if jokersUsed > len(jokers) {
			return false
		}
	}

	remaining := len(jokers) - jokersUsed
	minNumber := sorted[0].Number
	maxNumber := sorted[len(sorted)-1].Number

	canExtendStart := minNumber-remaining >= MinTileNumber
	canExtendEnd := maxNumber+remaining <= MaxTileNumber
	return canExtendStart || canExtendEnd || remaining == 0
}

// ValidateSet reports whether tiles form a legal set: three or four tiles of
// one number in distinct colors, at least one non-joker, jokers substituting
// for missing colors.
func ValidateSet(tiles []Tile) bool {
	if len(tiles) < 3 || len(tiles) > 4 {
		return false
	}

	var jokers, regular []Tile
	for _, t := range tiles {
		if t.IsJoker {
			jokers = append(jokers, t)
		} else {
			regular = append(regular, t)
		}
	}
	if len(regular) == 0 {
		return false
	}

	firstNumber := regular[0].Number
	seen := make(map[Color]bool, 4)
	for _, t := range regular {
		if t.Number != firstNumber {
			return false
		}
		if seen[t.Color] {
			return false
		}
		seen[t.Color] = true
	}

	total := len(regular) + len(jokers)
	if total < 3 || total > 4 {
		return false
	}
	if total == 4 {
		// Jokers each stand for a distinct missing color.
		return len(seen)+len(jokers) <= 4
	}
	return true
}

// ValidateCombination re-derives the validity of a combination from its kind
// and tiles.
func ValidateCombination(c Combination) bool {
	switch c.Kind {
	case KindRun:
		return ValidateRun(c.Tiles)
	case KindSet:
		return ValidateSet(c.Tiles)
	}
	return false
}

// DetectCombinationType classifies tiles as a run or set, preferring runs.
// Returns false when tiles form neither.
func DetectCombinationType(tiles []Tile) (CombinationKind, bool) {
	if ValidateRun(tiles) {
		return KindRun, true
	}
	if ValidateSet(tiles) {
		return KindSet, true
	}
	return "", false
}

// JokerRepresentation derives the concrete tile value a joker stands for.
// For runs it fills the lowest interior gap first, otherwise extends beyond
// the known extremity; for sets it takes the first canonical color not used
// by a non-joker. Returns false when the slot does not hold a joker or the
// value cannot be determined.
func JokerRepresentation(c Combination, jokerIndex int) (JokerSlot, bool) {
	if jokerIndex < 0 || jokerIndex >= len(c.Tiles) || !c.Tiles[jokerIndex].IsJoker {
		return JokerSlot{}, false
	}

	var regular []Tile
	for _, t := range c.Tiles {
		if !t.IsJoker {
			regular = append(regular, t)
		}
	}
	if len(regular) == 0 {
		return JokerSlot{}, false
	}

	switch c.Kind {
	case KindRun:
		color := regular[0].Color
		sorted := SortTiles(regular)

		present := make(map[int]bool, len(sorted))
		minNum, maxNum := sorted[0].Number, sorted[0].Number
		for _, t := range sorted {
			present[t.Number] = true
			if t.Number < minNum {
				minNum = t.Number
			}
			if t.Number > maxNum {
				maxNum = t.Number
			}
		}

		// Interior gaps take priority over extension.
		for n := minNum; n <= maxNum; n++ {
			if !present[n] {
				return JokerSlot{Number: n, Color: color}, true
			}
		}

		// No gaps: the joker extends the sequence at the end it sits on.
		firstRegularIdx := -1
		for i, t := range c.Tiles {
			if !t.IsJoker {
				firstRegularIdx = i
				break
			}
		}
		if jokerIndex < firstRegularIdx {
			return JokerSlot{Number: minNum - 1, Color: color}, true
		}
		return JokerSlot{Number: maxNum + 1, Color: color}, true

	case KindSet:
		number := regular[0].Number
		used := make(map[Color]bool, len(regular))
		for _, t := range regular {
			used[t.Color] = true
		}
		for _, color := range Colors {
			if !used[color] {
				return JokerSlot{Number: number, Color: color}, true
			}
		}
	}

	return JokerSlot{}, false
}

// CanAddTileToCombination reports whether appending tile keeps the
// combination valid. Validation is always re-run over the whole hypothetical
// combination; joker accounting is global, so no incremental shortcut is
// sound.
func CanAddTileToCombination(c Combination, tile Tile) bool {
	next := Combination{
		Kind:  c.Kind,
		Tiles: append(append([]Tile(nil), c.Tiles...), tile),
	}
	return ValidateCombination(next)
}

// CanReplaceTileWithJoker reports whether swapping the tile at tileIndex for
// the given joker keeps the combination valid.
func CanReplaceTileWithJoker(c Combination, tileIndex int, joker Tile) bool {
	if !joker.IsJoker || tileIndex < 0 || tileIndex >= len(c.Tiles) {
		return false
	}
	next := Combination{
		Kind:  c.Kind,
		Tiles: append([]Tile(nil), c.Tiles...),
	}
	next.Tiles[tileIndex] = joker
	return ValidateCombination(next)
}

// FindAllValidCombinations enumerates every subset of tiles (size ≥ 3) that
// forms a valid run or set. Intended for auto-suggesting arrangements; cost
// is exponential in hand size.
func FindAllValidCombinations(tiles []Tile) []Combination {
	var found []Combination

	for size := 3; size <= len(tiles); size++ {
		subset := make([]Tile, 0, size)
		var backtrack func(start int)
		backtrack = func(start int) {
			if len(subset) == size {
				if kind, ok := DetectCombinationType(subset); ok {
					found = append(found, Combination{
						Kind:  kind,
						Tiles: append([]Tile(nil), subset...),
					})
				}
				return
			}
			for i := start; i < len(tiles); i++ {
				subset = append(subset, tiles[i])
				backtrack(i + 1)
				subset = subset[:len(subset)-1]
			}
		}
		backtrack(0)
	}

	return found
}

// CombinationPoints sums the face numbers of non-joker tiles across
// combinations. Used for the classic first-meld threshold.
func CombinationPoints(combos []Combination) int {
	total := 0
	for _, c := range combos {
		for _, t := range c.Tiles {
			if !t.IsJoker {
				total += t.Number
			}
		}
	}
	return total
}
