package engine

// RemiPattern names a Remi pe Tablă scoring classification.
type RemiPattern string

const (
	RemiSimple                 RemiPattern = "SIMPLE"
	RemiSimple1Joker           RemiPattern = "SIMPLE_1_JOKER"
	RemiSimple2Joker           RemiPattern = "SIMPLE_2_JOKER"
	RemiMozaic                 RemiPattern = "MOZAIC"
	RemiBicolor                RemiPattern = "BICOLOR"
	RemiMinor                  RemiPattern = "MINOR"
	RemiMajor                  RemiPattern = "MAJOR"
	RemiSimpleJokerLaunched    RemiPattern = "SIMPLE_JOKER_LAUNCHED"
	RemiMozaicJokerLaunched    RemiPattern = "MOZAIC_JOKER_LAUNCHED"
	RemiLarge1Joker            RemiPattern = "LARGE_1_JOKER"
	RemiLarge2Joker            RemiPattern = "LARGE_2_JOKER"
	RemiDoubles                RemiPattern = "DOUBLES"
	RemiGrandSquare            RemiPattern = "GRAND_SQUARE"
	RemiMonocolor              RemiPattern = "MONOCOLOR"
	RemiBicolorJokerClosed     RemiPattern = "BICOLOR_JOKER_CLOSED"
	RemiMinorJokerClosed       RemiPattern = "MINOR_JOKER_CLOSED"
	RemiMajorJokerClosed       RemiPattern = "MAJOR_JOKER_CLOSED"
	RemiJokerLaunchedAndClosed RemiPattern = "JOKER_LAUNCHED_AND_CLOSED"
	RemiTwoJokersLaunched      RemiPattern = "TWO_JOKERS_LAUNCHED"
	RemiSpecial1Joker          RemiPattern = "SPECIAL_1_JOKER"
	RemiSpecial2Joker          RemiPattern = "SPECIAL_2_JOKER"
)

// PatternResult is a detected board-variant pattern with its base score.
type PatternResult struct {
	Pattern     RemiPattern `json:"pattern"`
	BaseScore   int         `json:"baseScore"`
	Description string      `json:"description"`
	SpecialGame bool        `json:"isSpecialGame"` // top tier
	LargeGame   bool        `json:"isLargeGame"`   // middle tier
}

func special(p RemiPattern, score int, desc string) PatternResult {
	return PatternResult{Pattern: p, BaseScore: score, Description: desc, SpecialGame: true}
}

func large(p RemiPattern, score int, desc string) PatternResult {
	return PatternResult{Pattern: p, BaseScore: score, Description: desc, LargeGame: true}
}

// DetectRemiPattern classifies a closed board-variant game. The detection
// ladder is strict: launched-joker patterns outrank monocolor, grand square
// and doubles, which outrank the large-game family (bicolor, minor, major),
// which outranks mozaic, which outranks the simple fallback. Within most
// families the score tier drops with the number of jokers embedded in the
// formed combinations.
//
// finalTile is the tile discarded to close; closedWithJoker reports whether
// it was a joker.
func DetectRemiPattern(boardCombinations []Combination, finalTile *Tile, launchedJokers []Tile, closedWithJoker bool) PatternResult {
	var allTiles []Tile
	for _, c := range boardCombinations {
		allTiles = append(allTiles, c.Tiles...)
	}
	jokersInFormations := CountJokers(allTiles)
	hasLaunchedJoker := len(launchedJokers) > 0
	if finalTile != nil && finalTile.IsJoker {
		closedWithJoker = true
	}

	if len(launchedJokers) >= 2 {
		return special(RemiTwoJokersLaunched, 1000, "Game with 2 launched Jokers")
	}
	if hasLaunchedJoker && closedWithJoker {
		return special(RemiJokerLaunchedAndClosed, 1000, "Joker launched and closed with Joker")
	}

	if isRemiMonocolor(boardCombinations) {
		switch jokersInFormations {
		case 2:
			return special(RemiSpecial2Joker, 800, "Monocolor with 2 Jokers in formation")
		case 1:
			return special(RemiSpecial1Joker, 900, "Monocolor with 1 Joker in formation")
		}
		return special(RemiMonocolor, 1000, "Monocolor (single-color runs)")
	}

	if isRemiGrandSquare(boardCombinations) {
		switch jokersInFormations {
		case 2:
			return special(RemiSpecial2Joker, 800, "Grand Square with 2 Jokers in formation")
		case 1:
			return special(RemiSpecial1Joker, 900, "Grand Square with 1 Joker in formation")
		}
		return special(RemiGrandSquare, 1000, "Grand Square (8 tiles of one number)")
	}

	if isRemiDoubles(boardCombinations) {
		switch jokersInFormations {
		case 2:
			return special(RemiSpecial2Joker, 800, "Doubles with 2 Jokers in formation")
		case 1:
			return special(RemiSpecial1Joker, 900, "Doubles with 1 Joker in formation")
		}
		return special(RemiDoubles, 1000, "Doubles (7 doubled tiles)")
	}

	bicolor := isRemiBicolor(boardCombinations)
	minor := isRemiMinor(allTiles)
	major := isRemiMajor(allTiles)

	if bicolor && closedWithJoker {
		return special(RemiBicolorJokerClosed, 1000, "Bicolor closed with Joker")
	}
	if minor && closedWithJoker {
		return special(RemiMinorJokerClosed, 1000, "Minor closed with Joker")
	}
	if major && closedWithJoker {
		return special(RemiMajorJokerClosed, 1000, "Major closed with Joker")
	}

	if bicolor {
		switch jokersInFormations {
		case 2:
			return large(RemiLarge2Joker, 300, "Bicolor with 2 Jokers in formation")
		case 1:
			return large(RemiLarge1Joker, 400, "Bicolor with 1 Joker in formation")
		}
		return large(RemiBicolor, 500, "Bicolor (runs in at most 2 colors)")
	}
	if minor {
		switch jokersInFormations {
		case 2:
			return large(RemiLarge2Joker, 300, "Minor with 2 Jokers in formation")
		case 1:
			return large(RemiLarge1Joker, 400, "Minor with 1 Joker in formation")
		}
		return large(RemiMinor, 500, "Minor (tiles 1 through 7)")
	}
	if major {
		switch jokersInFormations {
		case 2:
			return large(RemiLarge2Joker, 300, "Major with 2 Jokers in formation")
		case 1:
			return large(RemiLarge1Joker, 400, "Major with 1 Joker in formation")
		}
		return large(RemiMajor, 500, "Major (tiles 8 through 13)")
	}

	if isRemiMozaic(boardCombinations) {
		if hasLaunchedJoker || closedWithJoker {
			return large(RemiMozaicJokerLaunched, 500, "Mozaic with Joker launched or closed with Joker")
		}
		return PatternResult{Pattern: RemiMozaic, BaseScore: 250, Description: "Mozaic (alternating-color sequence)"}
	}

	if hasLaunchedJoker || closedWithJoker {
		return large(RemiSimpleJokerLaunched, 500, "Simple game with Joker launched or closed with Joker")
	}
	switch jokersInFormations {
	case 2:
		return PatternResult{Pattern: RemiSimple2Joker, BaseScore: 150, Description: "Simple game with 2 Jokers in formations"}
	case 1:
		return PatternResult{Pattern: RemiSimple1Joker, BaseScore: 200, Description: "Simple game with 1 Joker in formations"}
	}
	return PatternResult{Pattern: RemiSimple, BaseScore: 250, Description: "Simple game"}
}

// isRemiMonocolor reports that all non-joker tiles across runs share one
// color. Boards without runs never qualify.
func isRemiMonocolor(combos []Combination) bool {
	colors, hasRun := runColors(combos)
	return hasRun && len(colors) == 1
}

// isRemiBicolor reports that runs use at most two colors.
func isRemiBicolor(combos []Combination) bool {
	colors, hasRun := runColors(combos)
	return hasRun && len(colors) >= 1 && len(colors) <= 2
}

func runColors(combos []Combination) (map[Color]bool, bool) {
	colors := make(map[Color]bool)
	hasRun := false
	for _, c := range combos {
		if c.Kind != KindRun {
			continue
		}
		hasRun = true
		for _, t := range c.Tiles {
			if !t.IsJoker {
				colors[t.Color] = true
			}
		}
	}
	return colors, hasRun
}

// isRemiGrandSquare reports eight non-joker tiles of a single number across
// the board.
func isRemiGrandSquare(combos []Combination) bool {
	for _, count := range boardNumberCounts(combos) {
		if count >= 8 {
			return true
		}
	}
	return false
}

// isRemiDoubles reports at least seven numbers appearing exactly twice.
func isRemiDoubles(combos []Combination) bool {
	doubles := 0
	for _, count := range boardNumberCounts(combos) {
		if count == 2 {
			doubles++
		}
	}
	return doubles >= 7
}

func boardNumberCounts(combos []Combination) map[int]int {
	counts := make(map[int]int)
	for _, c := range combos {
		for _, t := range c.Tiles {
			if !t.IsJoker {
				counts[t.Number]++
			}
		}
	}
	return counts
}

// isRemiMinor: every tile is a joker or numbered 1–7.
func isRemiMinor(tiles []Tile) bool {
	for _, t := range tiles {
		if !t.IsJoker && (t.Number < 1 || t.Number > 7) {
			return false
		}
	}
	return true
}

// isRemiMajor: every tile is a joker or numbered 8–13.
func isRemiMajor(tiles []Tile) bool {
	for _, t := range tiles {
		if !t.IsJoker && (t.Number < 8 || t.Number > 13) {
			return false
		}
	}
	return true
}

// isRemiMozaic checks the alternating-color sequence shape: runs only, at
// least 10 non-joker tiles, the first four in four distinct colors and no
// two neighbors sharing a color.
func isRemiMozaic(combos []Combination) bool {
	for _, c := range combos {
		if c.Kind != KindRun {
			return false
		}
	}

	var nonJoker []Tile
	for _, c := range combos {
		for _, t := range c.Tiles {
			if !t.IsJoker {
				nonJoker = append(nonJoker, t)
			}
		}
	}
	if len(nonJoker) < 10 {
		return false
	}

	firstFour := make(map[Color]bool, 4)
	for _, t := range nonJoker[:4] {
		firstFour[t.Color] = true
	}
	if len(firstFour) < 4 {
		return false
	}

	for i := 1; i < len(nonJoker); i++ {
		if nonJoker[i].Color == nonJoker[i-1].Color {
			return false
		}
	}
	return true
}
