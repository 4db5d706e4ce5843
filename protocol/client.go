package protocol

import "github.com/Droledami/kubblin/game"

// Payloads sent by participants.

type Hello struct {
	V    int    `json:"v" msgpack:"v"`
	Name string `json:"name,omitempty" msgpack:"name,omitempty"`
}

type Ready struct {
	Ready bool `json:"ready" msgpack:"ready"`
}

type Click struct {
	Cell game.Cell `json:"cell" msgpack:"cell"`
}

type Replay struct{}

type Position struct {
	Pos game.Vec3 `json:"pos" msgpack:"pos"`
}

type OutOfBounds struct{}

// Collision reports that Self's body touched Other's. Dir is the unit
// vector from Self toward Other.
type Collision struct {
	Self  int       `json:"self" msgpack:"self"`
	Other int       `json:"other" msgpack:"other"`
	Dir   game.Vec3 `json:"dir" msgpack:"dir"`
}
