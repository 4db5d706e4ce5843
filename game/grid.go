package game

import (
	"math"
	"math/rand/v2"
)

// Cell is a grid coordinate. Y is always 0 on the platform; it is kept so
// distances match the 3D coordinates clients send.
type Cell struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
	Z int `json:"z" msgpack:"z"`
}

// Grid is the fixed platform. Tiles are addressed by index, z*Width + x.
type Grid struct {
	Width  int
	Length int
}

func NewGrid(width, length int) Grid {
	if width < 1 {
		width = GridWidth
	}
	if length < 1 {
		length = GridLength
	}
	return Grid{Width: width, Length: length}
}

func (g Grid) Contains(c Cell) bool {
	return c.Y == 0 && c.X >= 0 && c.X < g.Width && c.Z >= 0 && c.Z < g.Length
}

// Index returns the stable tile index of c.
func (g Grid) Index(c Cell) (int, bool) {
	if !g.Contains(c) {
		return 0, false
	}
	return c.Z*g.Width + c.X, true
}

// CellAt is the inverse of Index.
func (g Grid) CellAt(i int) (Cell, bool) {
	if i < 0 || i >= g.Width*g.Length {
		return Cell{}, false
	}
	return Cell{X: i % g.Width, Z: i / g.Width}, true
}

// TileAt maps a world position to the tile beneath it.
func (g Grid) TileAt(pos Vec3) (Cell, bool) {
	c := Cell{X: int(math.Floor(pos.X)), Z: int(math.Floor(pos.Z))}
	return c, g.Contains(c)
}

// Center returns the world position of the middle of a tile.
func (g Grid) Center(c Cell) Vec3 {
	return Vec3{X: float64(c.X), Z: float64(c.Z)}.Add(GridOffset)
}

// RandomHidden draws the hidden item cell uniformly over x in [0, Width-2]
// and z in [0, Length-2]; the last row and column never hold the item.
func (g Grid) RandomHidden(rng *rand.Rand) Cell {
	return Cell{X: rng.IntN(max(g.Width-1, 1)), Z: rng.IntN(max(g.Length-1, 1))}
}

// HiddenRange reports whether c is a cell RandomHidden can produce.
func (g Grid) HiddenRange(c Cell) bool {
	return c.Y == 0 && c.X >= 0 && c.X < max(g.Width-1, 1) && c.Z >= 0 && c.Z < max(g.Length-1, 1)
}

// Manhattan is the sum of absolute per-axis differences.
func Manhattan(a, b Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y) + abs(a.Z-b.Z)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
