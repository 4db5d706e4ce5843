package game

import "time"

const (
	GridWidth  = 6 // X axis
	GridLength = 6 // Z axis
	GridFloor  = 0.4499999
	MaxPlayers = 2

	CountdownFrom     = 3
	CountdownStep     = time.Second
	HintPulseDuration = 500 * time.Millisecond
	NotYourTurnFlash  = time.Second
	StunDuration      = 200 * time.Millisecond

	FallLimit     = -2.0 // below this height a player is off the platform
	Deadzone      = 0.08
	MoveAccel     = 0.08 // per frame
	MoveDecelMult = 2.0
	MaxMoveSpeed  = 5.0
)

var (
	GridOffset   = Vec3{X: 0.5, Z: 0.5}
	Player1Spawn = Vec3{X: GridOffset.X, Y: GridFloor, Z: GridLength - GridOffset.Z}
	Player2Spawn = Vec3{X: GridWidth - GridOffset.X, Y: GridFloor, Z: GridOffset.Z}
)

// SpawnFor returns the starting position of a player identity.
func SpawnFor(id int) Vec3 {
	if id == 1 {
		return Player2Spawn
	}
	return Player1Spawn
}
