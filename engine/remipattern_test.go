package engine

import "testing"

// board builds a plausible winning board out of runs in the given colors.
func monocolorBoard(color Color) []Combination {
	return []Combination{
		run(tile(1, color), tile(2, color), tile(3, color)),
		run(tile(5, color), tile(6, color), tile(7, color)),
		run(tile(9, color), tile(10, color), tile(11, color), tile(12, color)),
		run(tile(11, color), tile(12, color), tile(13, color)),
	}
}

func TestDetectRemiPatternTwoJokersLaunched(t *testing.T) {
	launched := []Tile{joker("joker-0"), joker("joker-1")}
	// Even a monocolor board is trumped by two launched jokers.
	r := DetectRemiPattern(monocolorBoard(ColorRed), nil, launched, false)
	if r.Pattern != RemiTwoJokersLaunched || r.BaseScore != 1000 {
		t.Errorf("got %s/%d, want TWO_JOKERS_LAUNCHED/1000", r.Pattern, r.BaseScore)
	}
	if !r.SpecialGame {
		t.Error("two launched jokers is a special game")
	}
}

func TestDetectRemiPatternJokerLaunchedAndClosed(t *testing.T) {
	launched := []Tile{joker("joker-0")}
	r := DetectRemiPattern(monocolorBoard(ColorRed), nil, launched, true)
	if r.Pattern != RemiJokerLaunchedAndClosed || r.BaseScore != 1000 {
		t.Errorf("got %s/%d, want JOKER_LAUNCHED_AND_CLOSED/1000", r.Pattern, r.BaseScore)
	}
}

func TestDetectRemiPatternMonocolorTiers(t *testing.T) {
	board := monocolorBoard(ColorRed)
	r := DetectRemiPattern(board, nil, nil, false)
	if r.Pattern != RemiMonocolor || r.BaseScore != 1000 {
		t.Fatalf("got %s/%d, want MONOCOLOR/1000", r.Pattern, r.BaseScore)
	}

	// One embedded joker drops the tier to SPECIAL_1_JOKER.
	oneJoker := append([]Combination{}, board...)
	oneJoker[0] = run(tile(1, ColorRed), joker("joker-0"), tile(3, ColorRed))
	r = DetectRemiPattern(oneJoker, nil, nil, false)
	if r.Pattern != RemiSpecial1Joker || r.BaseScore != 900 {
		t.Errorf("got %s/%d, want SPECIAL_1_JOKER/900", r.Pattern, r.BaseScore)
	}

	// Two embedded jokers drop it further.
	twoJokers := append([]Combination{}, oneJoker...)
	twoJokers[1] = run(tile(5, ColorRed), joker("joker-1"), tile(7, ColorRed))
	r = DetectRemiPattern(twoJokers, nil, nil, false)
	if r.Pattern != RemiSpecial2Joker || r.BaseScore != 800 {
		t.Errorf("got %s/%d, want SPECIAL_2_JOKER/800", r.Pattern, r.BaseScore)
	}
}

func TestDetectRemiPatternGrandSquare(t *testing.T) {
	board := []Combination{
		fourColorSet(9),
		fourColorSet(9),
		// Mixed-color runs keep monocolor from firing first.
		run(tile(1, ColorRed), tile(2, ColorRed), tile(3, ColorRed)),
		run(tile(4, ColorBlue), tile(5, ColorBlue), tile(6, ColorBlue)),
		run(tile(7, ColorBlack), tile(8, ColorBlack), tile(9, ColorBlack)),
	}
	r := DetectRemiPattern(board, nil, nil, false)
	if r.Pattern != RemiGrandSquare || r.BaseScore != 1000 {
		t.Errorf("got %s/%d, want GRAND_SQUARE/1000", r.Pattern, r.BaseScore)
	}
}

func TestDetectRemiPatternDoubles(t *testing.T) {
	// Four runs in four colors duplicate seven numbers exactly twice each.
	board := []Combination{
		run(tile(1, ColorRed), tile(2, ColorRed), tile(3, ColorRed)),
		run(tile(1, ColorBlue), tile(2, ColorBlue), tile(3, ColorBlue)),
		run(tile(9, ColorBlack), tile(10, ColorBlack), tile(11, ColorBlack), tile(12, ColorBlack)),
		run(tile(9, ColorYellow), tile(10, ColorYellow), tile(11, ColorYellow), tile(12, ColorYellow)),
	}
	r := DetectRemiPattern(board, nil, nil, false)
	if r.Pattern != RemiDoubles || r.BaseScore != 1000 {
		t.Errorf("got %s/%d, want DOUBLES/1000", r.Pattern, r.BaseScore)
	}
}

func TestDetectRemiPatternLargeFamily(t *testing.T) {
	bicolor := []Combination{
		run(tile(1, ColorRed), tile(2, ColorRed), tile(3, ColorRed)),
		run(tile(5, ColorBlue), tile(6, ColorBlue), tile(7, ColorBlue)),
		run(tile(9, ColorRed), tile(10, ColorRed), tile(11, ColorRed)),
		run(tile(11, ColorBlue), tile(12, ColorBlue), tile(13, ColorBlue)),
	}

	r := DetectRemiPattern(bicolor, nil, nil, false)
	if r.Pattern != RemiBicolor || r.BaseScore != 500 || !r.LargeGame {
		t.Errorf("got %s/%d, want BICOLOR/500 large", r.Pattern, r.BaseScore)
	}

	// Closing with a joker lifts any large-family game to 1000.
	r = DetectRemiPattern(bicolor, nil, nil, true)
	if r.Pattern != RemiBicolorJokerClosed || r.BaseScore != 1000 {
		t.Errorf("got %s/%d, want BICOLOR_JOKER_CLOSED/1000", r.Pattern, r.BaseScore)
	}

	// Embedded jokers lower the tier.
	withJoker := append([]Combination{}, bicolor...)
	withJoker[0] = run(tile(1, ColorRed), joker("joker-0"), tile(3, ColorRed))
	r = DetectRemiPattern(withJoker, nil, nil, false)
	if r.Pattern != RemiLarge1Joker || r.BaseScore != 400 {
		t.Errorf("got %s/%d, want LARGE_1_JOKER/400", r.Pattern, r.BaseScore)
	}
}

func TestDetectRemiPatternMinorMajor(t *testing.T) {
	minor := []Combination{
		run(tile(1, ColorRed), tile(2, ColorRed), tile(3, ColorRed)),
		run(tile(4, ColorBlue), tile(5, ColorBlue), tile(6, ColorBlue)),
		run(tile(5, ColorBlack), tile(6, ColorBlack), tile(7, ColorBlack)),
	}
	r := DetectRemiPattern(minor, nil, nil, false)
	if r.Pattern != RemiMinor || r.BaseScore != 500 {
		t.Errorf("got %s/%d, want MINOR/500", r.Pattern, r.BaseScore)
	}

	major := []Combination{
		run(tile(8, ColorRed), tile(9, ColorRed), tile(10, ColorRed)),
		run(tile(11, ColorBlue), tile(12, ColorBlue), tile(13, ColorBlue)),
		run(tile(8, ColorBlack), tile(9, ColorBlack), tile(10, ColorBlack)),
	}
	r = DetectRemiPattern(major, nil, nil, true)
	if r.Pattern != RemiMajorJokerClosed || r.BaseScore != 1000 {
		t.Errorf("got %s/%d, want MAJOR_JOKER_CLOSED/1000", r.Pattern, r.BaseScore)
	}
}

func TestDetectRemiPatternSimpleFallback(t *testing.T) {
	// Three colors across runs and a set, numbers straddling 7: no family
	// predicate fires.
	board := []Combination{
		run(tile(1, ColorRed), tile(2, ColorRed), tile(3, ColorRed)),
		run(tile(9, ColorBlue), tile(10, ColorBlue), tile(11, ColorBlue)),
		run(tile(5, ColorBlack), tile(6, ColorBlack), tile(7, ColorBlack)),
		set(tile(12, ColorRed), tile(12, ColorYellow), tile(12, ColorBlue)),
	}

	r := DetectRemiPattern(board, nil, nil, false)
	if r.Pattern != RemiSimple || r.BaseScore != 250 {
		t.Errorf("got %s/%d, want SIMPLE/250", r.Pattern, r.BaseScore)
	}

	// A launched joker upgrades the simple game.
	r = DetectRemiPattern(board, nil, []Tile{joker("joker-0")}, false)
	if r.Pattern != RemiSimpleJokerLaunched || r.BaseScore != 500 {
		t.Errorf("got %s/%d, want SIMPLE_JOKER_LAUNCHED/500", r.Pattern, r.BaseScore)
	}

	// Embedded jokers lower the simple score.
	withJokers := append([]Combination{}, board...)
	withJokers[0] = run(tile(1, ColorRed), joker("joker-0"), tile(3, ColorRed))
	r = DetectRemiPattern(withJokers, nil, nil, false)
	if r.Pattern != RemiSimple1Joker || r.BaseScore != 200 {
		t.Errorf("got %s/%d, want SIMPLE_1_JOKER/200", r.Pattern, r.BaseScore)
	}

	withJokers[1] = run(tile(9, ColorBlue), joker("joker-1"), tile(11, ColorBlue))
	r = DetectRemiPattern(withJokers, nil, nil, false)
	if r.Pattern != RemiSimple2Joker || r.BaseScore != 150 {
		t.Errorf("got %s/%d, want SIMPLE_2_JOKER/150", r.Pattern, r.BaseScore)
	}
}

func TestDetectRemiPatternMozaic(t *testing.T) {
	// Runs only, ≥10 non-jokers, first four in distinct colors, neighbors
	// always differing. The validator is not consulted by the detector, so
	// shape the tiles directly for the color walk.
	board := []Combination{
		{Kind: KindRun, Tiles: []Tile{
			tile(1, ColorRed), tile(2, ColorYellow), tile(3, ColorBlue), tile(4, ColorBlack),
			tile(5, ColorRed), tile(6, ColorYellow), tile(7, ColorBlue), tile(8, ColorBlack),
			tile(9, ColorRed), tile(10, ColorYellow), tile(11, ColorBlue), tile(12, ColorBlack),
		}},
	}
	r := DetectRemiPattern(board, nil, nil, false)
	if r.Pattern != RemiMozaic || r.BaseScore != 250 {
		t.Errorf("got %s/%d, want MOZAIC/250", r.Pattern, r.BaseScore)
	}

	r = DetectRemiPattern(board, nil, nil, true)
	if r.Pattern != RemiMozaicJokerLaunched || r.BaseScore != 500 {
		t.Errorf("got %s/%d, want MOZAIC_JOKER_LAUNCHED/500", r.Pattern, r.BaseScore)
	}
}
