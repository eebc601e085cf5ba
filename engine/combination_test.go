package engine

import "testing"

func run(tiles ...Tile) Combination { return Combination{Kind: KindRun, Tiles: tiles} }
func set(tiles ...Tile) Combination { return Combination{Kind: KindSet, Tiles: tiles} }

func TestValidateRun(t *testing.T) {
	tests := []struct {
		name  string
		tiles []Tile
		want  bool
	}{
		{
			"consecutive same color",
			[]Tile{tile(3, ColorRed), tile(4, ColorRed), tile(5, ColorRed)},
			true,
		},
		{
			"long run",
			[]Tile{tile(1, ColorBlue), tile(2, ColorBlue), tile(3, ColorBlue), tile(4, ColorBlue), tile(5, ColorBlue)},
			true,
		},
		{
			"too short",
			[]Tile{tile(3, ColorRed), tile(4, ColorRed)},
			false,
		},
		{
			"mixed colors",
			[]Tile{tile(3, ColorRed), tile(4, ColorBlue), tile(5, ColorRed)},
			false,
		},
		{
			"duplicate number",
			[]Tile{tile(3, ColorRed), tile(3, ColorRed), tile(4, ColorRed)},
			false,
		},
		{
			"gap filled by joker",
			[]Tile{tile(3, ColorRed), joker("j0"), tile(5, ColorRed)},
			true,
		},
		{
			"gap of two filled by two jokers",
			[]Tile{tile(3, ColorRed), joker("j0"), joker("j1"), tile(6, ColorRed)},
			true,
		},
		{
			"gap too wide for jokers",
			[]Tile{tile(3, ColorRed), joker("j0"), tile(6, ColorRed)},
			false,
		},
		{
			"leftover joker extends end",
			[]Tile{tile(11, ColorBlack), tile(12, ColorBlack), tile(13, ColorBlack), joker("j0")},
			true,
		},
		{
			"leftover joker extends start",
			[]Tile{joker("j0"), tile(1, ColorBlack), tile(2, ColorBlack), tile(3, ColorBlack)},
			true,
		},
		{
			"all jokers",
			[]Tile{joker("j0"), joker("j1"), joker("j2")},
			false,
		},
	}

	for _, tt := range tests {
		if got := ValidateRun(tt.tiles); got != tt.want {
			t.Errorf("%s: ValidateRun = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// A full-span run 1..13 with a leftover joker can extend in neither
// direction, but gap filling was consistent so it is still accepted: the
// joker's position is fixed lazily at reveal time.
func TestValidateRunLeftoverJokerWithoutRoom(t *testing.T) {
	tiles := make([]Tile, 0, 14)
	for n := 1; n <= 13; n++ {
		tiles = append(tiles, tile(n, ColorRed))
	}
	tiles = append(tiles, joker("j0"))

	if !ValidateRun(tiles) {
		t.Error("full-span run with a spare joker should validate")
	}
}

func TestValidateSet(t *testing.T) {
	tests := []struct {
		name  string
		tiles []Tile
		want  bool
	}{
		{
			"three distinct colors",
			[]Tile{tile(7, ColorRed), tile(7, ColorBlue), tile(7, ColorBlack)},
			true,
		},
		{
			"four distinct colors",
			[]Tile{tile(7, ColorRed), tile(7, ColorYellow), tile(7, ColorBlue), tile(7, ColorBlack)},
			true,
		},
		{
			"joker substitutes",
			[]Tile{tile(7, ColorRed), tile(7, ColorBlue), joker("j0")},
			true,
		},
		{
			"two jokers one anchor",
			[]Tile{tile(7, ColorRed), joker("j0"), joker("j1")},
			true,
		},
		{
			"duplicate color",
			[]Tile{tile(7, ColorRed), tile(7, ColorRed), tile(7, ColorBlue)},
			false,
		},
		{
			"mismatched numbers",
			[]Tile{tile(7, ColorRed), tile(8, ColorBlue), tile(7, ColorBlack)},
			false,
		},
		{
			"too many tiles",
			[]Tile{tile(7, ColorRed), tile(7, ColorYellow), tile(7, ColorBlue), tile(7, ColorBlack), joker("j0")},
			false,
		},
		{
			"four tiles with joker colliding colors",
			[]Tile{tile(7, ColorRed), tile(7, ColorYellow), tile(7, ColorBlue), joker("j0")},
			true,
		},
		{
			"all jokers",
			[]Tile{joker("j0"), joker("j1"), joker("j2")},
			false,
		},
	}

	for _, tt := range tests {
		if got := ValidateSet(tt.tiles); got != tt.want {
			t.Errorf("%s: ValidateSet = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDetectCombinationType(t *testing.T) {
	if kind, ok := DetectCombinationType([]Tile{tile(3, ColorRed), tile(4, ColorRed), tile(5, ColorRed)}); !ok || kind != KindRun {
		t.Errorf("run not detected: %v %v", kind, ok)
	}
	if kind, ok := DetectCombinationType([]Tile{tile(7, ColorRed), tile(7, ColorBlue), tile(7, ColorBlack)}); !ok || kind != KindSet {
		t.Errorf("set not detected: %v %v", kind, ok)
	}
	if _, ok := DetectCombinationType([]Tile{tile(3, ColorRed), tile(9, ColorBlue), tile(7, ColorBlack)}); ok {
		t.Error("garbage detected as a combination")
	}
}

func TestJokerRepresentationRun(t *testing.T) {
	// Interior gap: joker stands for R4.
	c := run(tile(3, ColorRed), joker("j0"), tile(5, ColorRed))
	slot, ok := JokerRepresentation(c, 1)
	if !ok || slot.Number != 4 || slot.Color != ColorRed {
		t.Errorf("gap joker = %+v, %v; want R4", slot, ok)
	}

	// No gap, joker at the end extends past the maximum.
	c = run(tile(3, ColorBlue), tile(4, ColorBlue), tile(5, ColorBlue), joker("j0"))
	slot, ok = JokerRepresentation(c, 3)
	if !ok || slot.Number != 6 || slot.Color != ColorBlue {
		t.Errorf("end joker = %+v, %v; want B6", slot, ok)
	}

	// Joker before the first regular tile extends below the minimum.
	c = run(joker("j0"), tile(3, ColorBlue), tile(4, ColorBlue), tile(5, ColorBlue))
	slot, ok = JokerRepresentation(c, 0)
	if !ok || slot.Number != 2 || slot.Color != ColorBlue {
		t.Errorf("start joker = %+v, %v; want B2", slot, ok)
	}
}

func TestJokerRepresentationSet(t *testing.T) {
	c := set(tile(7, ColorYellow), tile(7, ColorBlack), joker("j0"))
	slot, ok := JokerRepresentation(c, 2)
	if !ok || slot.Number != 7 || slot.Color != ColorRed {
		t.Errorf("set joker = %+v, %v; want RED 7 (first unused canonical color)", slot, ok)
	}
}

func TestJokerRepresentationNonJoker(t *testing.T) {
	c := run(tile(3, ColorRed), tile(4, ColorRed), tile(5, ColorRed))
	if _, ok := JokerRepresentation(c, 1); ok {
		t.Error("non-joker slot should not resolve")
	}
}

func TestCanAddTileToCombination(t *testing.T) {
	c := run(tile(3, ColorRed), tile(4, ColorRed), tile(5, ColorRed))
	if !CanAddTileToCombination(c, tile(6, ColorRed)) {
		t.Error("extending a run with the next number should be allowed")
	}
	if CanAddTileToCombination(c, tile(9, ColorRed)) {
		t.Error("non-adjacent tile should be rejected")
	}
	if CanAddTileToCombination(c, tile(6, ColorBlue)) {
		t.Error("off-color tile should be rejected")
	}
}

func TestCanReplaceTileWithJoker(t *testing.T) {
	c := run(tile(3, ColorRed), tile(4, ColorRed), tile(5, ColorRed))
	if !CanReplaceTileWithJoker(c, 1, joker("j0")) {
		t.Error("swapping a middle tile for a joker keeps the run valid")
	}
	if CanReplaceTileWithJoker(c, 1, tile(9, ColorBlue)) {
		t.Error("replacement tile must be a joker")
	}

	// Replacing the only anchor in a joker-heavy set would leave all jokers.
	s := set(tile(7, ColorRed), joker("j0"), joker("j1"))
	if CanReplaceTileWithJoker(s, 0, joker("j2")) {
		t.Error("replacement must not produce an all-joker combination")
	}
}

func TestFindAllValidCombinations(t *testing.T) {
	tiles := []Tile{
		{ID: "a", Number: 3, Color: ColorRed},
		{ID: "b", Number: 4, Color: ColorRed},
		{ID: "c", Number: 5, Color: ColorRed},
		{ID: "d", Number: 5, Color: ColorBlue},
		{ID: "e", Number: 5, Color: ColorBlack},
	}

	found := FindAllValidCombinations(tiles)
	var haveRun, haveSet bool
	for _, c := range found {
		switch c.Kind {
		case KindRun:
			haveRun = true
		case KindSet:
			haveSet = true
		}
	}
	if !haveRun || !haveSet {
		t.Errorf("expected both a run and a set among %d results", len(found))
	}
}

func TestCombinationPoints(t *testing.T) {
	combos := []Combination{
		run(tile(10, ColorRed), joker("j0"), tile(12, ColorRed)),
		set(tile(5, ColorRed), tile(5, ColorBlue), tile(5, ColorBlack)),
	}
	// Jokers contribute nothing.
	if got := CombinationPoints(combos); got != 37 {
		t.Errorf("CombinationPoints = %d, want 37", got)
	}
}
