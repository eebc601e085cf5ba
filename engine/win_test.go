package engine

import (
	"strings"
	"testing"
)

// fourColorSet builds a complete 4-tile set of one number.
func fourColorSet(number int) Combination {
	tiles := make([]Tile, 0, 4)
	for _, c := range Colors {
		tiles = append(tiles, tile(number, c))
	}
	return set(tiles...)
}

func TestValidateWinConditionRequiresOneTile(t *testing.T) {
	hand := []Tile{tile(2, ColorRed), tile(9, ColorBlue)}
	v := ValidateWinCondition(hand, nil)
	if v.CanWin {
		t.Fatal("two tiles in hand must not win")
	}
	if !strings.Contains(v.Reason, "exactly 1 tile") {
		t.Errorf("reason = %q", v.Reason)
	}
}

func TestValidateWinConditionRejectsInvalidTable(t *testing.T) {
	table := []Combination{run(tile(3, ColorRed), tile(9, ColorRed), tile(5, ColorRed))}
	v := ValidateWinCondition([]Tile{tile(1, ColorRed)}, table)
	if v.CanWin {
		t.Fatal("invalid table combination must block the win")
	}
	if v.Reason != "Invalid combination on table" {
		t.Errorf("reason = %q", v.Reason)
	}
}

func TestValidateWinConditionScoresPattern(t *testing.T) {
	table := []Combination{
		run(tile(1, ColorRed), tile(2, ColorRed), tile(3, ColorRed)),
		run(tile(5, ColorRed), tile(6, ColorRed), tile(7, ColorRed)),
	}
	v := ValidateWinCondition([]Tile{tile(13, ColorBlack)}, table)
	if !v.CanWin {
		t.Fatalf("valid state rejected: %s", v.Reason)
	}
	if v.Pattern != PatternMonochrome {
		t.Errorf("pattern = %s, want MONOCHROME", v.Pattern)
	}
	if v.TotalScore != 250+750 {
		t.Errorf("total = %d, want 1000", v.TotalScore)
	}
}

func TestDetectWinPatternPriority(t *testing.T) {
	grandSquare := func() []Tile {
		var tiles []Tile
		for _, n := range []int{2, 5, 9, 12} {
			tiles = append(tiles, fourColorSet(n).Tiles...)
		}
		return tiles
	}

	tests := []struct {
		name  string
		tiles []Tile
		want  WinPattern
	}{
		{"grand square", grandSquare(), PatternGrandSquare},
		{
			"monochrome",
			[]Tile{tile(1, ColorRed), tile(2, ColorRed), tile(3, ColorRed)},
			PatternMonochrome,
		},
		{
			"bicolor",
			[]Tile{tile(1, ColorRed), tile(2, ColorRed), tile(5, ColorBlue)},
			PatternBicolor,
		},
		{
			"minor",
			[]Tile{tile(1, ColorRed), tile(2, ColorBlue), tile(3, ColorBlack)},
			PatternMinor,
		},
		{
			"major",
			[]Tile{tile(9, ColorRed), tile(10, ColorBlue), tile(11, ColorBlack)},
			PatternMajor,
		},
		{
			"mozaic proxy: four colors",
			[]Tile{tile(2, ColorRed), tile(9, ColorYellow), tile(4, ColorBlue), tile(11, ColorBlack)},
			PatternMozaic,
		},
		{
			"clean fallback",
			[]Tile{tile(2, ColorRed), tile(9, ColorBlue), tile(4, ColorBlack)},
			PatternClean,
		},
	}

	for _, tt := range tests {
		if got := DetectWinPattern(tt.tiles); got != tt.want {
			t.Errorf("%s: pattern = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestDetectWinPatternDoubles(t *testing.T) {
	// Three colors so bicolor does not fire, numbers spanning 7 so neither
	// minor nor major fires, each pair duplicated exactly twice.
	tiles := []Tile{
		tile(2, ColorRed), tile(2, ColorRed),
		tile(9, ColorBlue), tile(9, ColorBlue),
		tile(7, ColorBlack), tile(7, ColorBlack),
	}
	if got := DetectWinPattern(tiles); got != PatternDoubles {
		t.Errorf("pattern = %s, want DOUBLES", got)
	}
}

func TestCalculateWinScore(t *testing.T) {
	tests := []struct {
		pattern WinPattern
		base    int
		bonus   int
	}{
		{PatternClean, 350, 50},
		{PatternFreeJoker, 500, 0},
		{PatternMonochrome, 250, 750},
		{PatternBicolor, 250, 250},
		{PatternMinor, 250, 150},
		{PatternMajor, 250, 150},
		{PatternGrandSquare, 250, 800},
		{PatternMozaic, 250, 400},
		{PatternDoubles, 250, 300},
	}
	for _, tt := range tests {
		base, bonus := CalculateWinScore(tt.pattern)
		if base != tt.base || bonus != tt.bonus {
			t.Errorf("%s: score = (%d,%d), want (%d,%d)", tt.pattern, base, bonus, tt.base, tt.bonus)
		}
	}
}

func TestRemainingTilesScore(t *testing.T) {
	tiles := []Tile{tile(5, ColorRed), tile(13, ColorBlue), joker("j0")}
	if got := RemainingTilesScore(tiles, 25); got != 43 {
		t.Errorf("score = %d, want 43", got)
	}
	if got := RemainingTilesScore(tiles, 50); got != 68 {
		t.Errorf("score with board penalty = %d, want 68", got)
	}
}

func TestValidateFirstMeld(t *testing.T) {
	high := []Combination{fourColorSet(10)}
	if r := ValidateFirstMeld(high, 30); !r.Valid || r.Points != 40 {
		t.Errorf("40-point meld rejected: %+v", r)
	}

	low := []Combination{set(tile(2, ColorRed), tile(2, ColorBlue), tile(2, ColorBlack))}
	r := ValidateFirstMeld(low, 30)
	if r.Valid {
		t.Fatal("6-point meld accepted")
	}
	if !strings.Contains(r.Reason, "First meld must be at least 30 points") {
		t.Errorf("reason = %q", r.Reason)
	}
}
