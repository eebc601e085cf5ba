package engine

import "testing"

func tile(number int, color Color) Tile {
	return Tile{ID: "t", Number: number, Color: color}
}

func joker(id string) Tile {
	return Tile{ID: id, Color: ColorRed, IsJoker: true}
}

func TestTilesEqual(t *testing.T) {
	a := Tile{ID: "a", Number: 5, Color: ColorRed}
	b := Tile{ID: "b", Number: 5, Color: ColorRed}
	c := Tile{ID: "c", Number: 5, Color: ColorBlue}

	if !TilesEqual(a, b) {
		t.Error("same number+color should be equal despite different IDs")
	}
	if TilesEqual(a, c) {
		t.Error("different colors should not be equal")
	}
}

func TestJokersEqualOnlyByID(t *testing.T) {
	j1 := joker("joker-0")
	j2 := joker("joker-1")

	if TilesEqual(j1, j2) {
		t.Error("distinct jokers must not be equal")
	}
	if !TilesEqual(j1, j1) {
		t.Error("a joker must equal itself")
	}

	// A joker's Number field is meaningless and must be ignored.
	j3 := Tile{ID: "joker-0", Number: 9, Color: ColorBlue, IsJoker: true}
	if !TilesEqual(j1, j3) {
		t.Error("joker equality must ignore number and color")
	}
}

func TestSortTiles(t *testing.T) {
	tiles := []Tile{
		joker("joker-0"),
		tile(5, ColorBlue),
		tile(2, ColorRed),
		tile(9, ColorRed),
	}
	sorted := SortTiles(tiles)

	want := []string{"R2", "R9", "B5", "JOKER"}
	for i, w := range want {
		if sorted[i].String() != w {
			t.Errorf("sorted[%d] = %s, want %s", i, sorted[i], w)
		}
	}

	// Input untouched.
	if tiles[0].String() != "JOKER" {
		t.Error("SortTiles mutated its input")
	}
}

func TestRemoveTileByID(t *testing.T) {
	tiles := []Tile{
		{ID: "x", Number: 1, Color: ColorRed},
		{ID: "y", Number: 2, Color: ColorRed},
	}
	out := RemoveTileByID(tiles, "x")
	if len(out) != 1 || out[0].ID != "y" {
		t.Fatalf("RemoveTileByID left %v", out)
	}
	if got := RemoveTileByID(tiles, "missing"); len(got) != 2 {
		t.Errorf("removing a missing ID changed length: %d", len(got))
	}
}

func TestCountTilesByColor(t *testing.T) {
	counts := CountTilesByColor([]Tile{
		tile(1, ColorRed), tile(2, ColorRed), tile(3, ColorBlack), joker("j"),
	})
	if counts[ColorRed] != 2 || counts[ColorBlack] != 1 || counts[ColorBlue] != 0 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
