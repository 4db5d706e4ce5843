package game

import (
	"math/rand/v2"
	"testing"
)

func TestManhattanIncludesEveryAxis(t *testing.T) {
	cases := []struct {
		a, b Cell
		want int
	}{
		{Cell{3, 0, 2}, Cell{3, 0, 2}, 0},
		{Cell{0, 0, 0}, Cell{1, 0, 0}, 1},
		{Cell{0, 0, 0}, Cell{2, 0, 3}, 5},
		{Cell{4, 0, 1}, Cell{1, 0, 4}, 6},
		{Cell{0, 1, 0}, Cell{0, 0, 0}, 1},
	}
	for _, c := range cases {
		if got := Manhattan(c.a, c.b); got != c.want {
			t.Fatalf("Manhattan(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
		if got := Manhattan(c.b, c.a); got != c.want {
			t.Fatalf("Manhattan is not symmetric for %v, %v", c.a, c.b)
		}
	}
}

func TestIndexRoundTrip(t *testing.T) {
	g := NewGrid(GridWidth, GridLength)
	seen := make(map[int]bool)
	for x := 0; x < g.Width; x++ {
		for z := 0; z < g.Length; z++ {
			c := Cell{X: x, Z: z}
			i, ok := g.Index(c)
			if !ok {
				t.Fatalf("Index(%v) not ok", c)
			}
			if seen[i] {
				t.Fatalf("index %d assigned twice", i)
			}
			seen[i] = true
			back, ok := g.CellAt(i)
			if !ok || back != c {
				t.Fatalf("CellAt(%d) = %v, want %v", i, back, c)
			}
		}
	}
	if _, ok := g.Index(Cell{X: g.Width}); ok {
		t.Fatalf("expected out-of-grid cell to have no index")
	}
	if _, ok := g.CellAt(g.Width * g.Length); ok {
		t.Fatalf("expected out-of-range index to have no cell")
	}
}

func TestTileAtUsesOffset(t *testing.T) {
	g := NewGrid(GridWidth, GridLength)
	c := Cell{X: 3, Z: 2}
	got, ok := g.TileAt(g.Center(c))
	if !ok || got != c {
		t.Fatalf("TileAt(Center(%v)) = %v,%v", c, got, ok)
	}
	if _, ok := g.TileAt(Vec3{X: -0.2, Z: 1}); ok {
		t.Fatalf("expected position off the platform to map to no tile")
	}
}

func TestRandomHiddenStaysInRangeAndCoversIt(t *testing.T) {
	g := NewGrid(GridWidth, GridLength)
	rng := rand.New(rand.NewPCG(1, 2))

	const draws = 20000
	counts := make(map[Cell]int)
	for i := 0; i < draws; i++ {
		c := g.RandomHidden(rng)
		if !g.HiddenRange(c) {
			t.Fatalf("drawn cell %v outside hidden range", c)
		}
		if c.X == g.Width-1 || c.Z == g.Length-1 {
			t.Fatalf("drawn cell %v on the excluded boundary", c)
		}
		counts[c]++
	}

	want := (g.Width - 1) * (g.Length - 1)
	if len(counts) != want {
		t.Fatalf("covered %d cells, want %d", len(counts), want)
	}
	expected := float64(draws) / float64(want)
	for c, n := range counts {
		if float64(n) < expected*0.75 || float64(n) > expected*1.25 {
			t.Fatalf("cell %v drawn %d times, expected about %.0f", c, n, expected)
		}
	}
}
