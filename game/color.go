package game

type Color struct {
	R float32 `json:"r" msgpack:"r"`
	G float32 `json:"g" msgpack:"g"`
	B float32 `json:"b" msgpack:"b"`
	A float32 `json:"a" msgpack:"a"`
}

var (
	Player1Color = Color{R: 0, G: 1, B: 0, A: 1}
	Player2Color = Color{R: 1, G: 0, B: 0, A: 1}

	TileGreen  = Color{R: 0.1882353, G: 1, B: 0.4117647, A: 1}
	TileYellow = Color{R: 1, G: 0.9568627, B: 0.1882353, A: 1}
	TileOrange = Color{R: 1, G: 0.454901, B: 0.1882353, A: 1}
	TileRed    = Color{R: 1, G: 0.1882353, B: 0.2156862, A: 1}
)

// ColorFor returns the fixed color of a player identity.
func ColorFor(id int) Color {
	if id == 1 {
		return Player2Color
	}
	return Player1Color
}
