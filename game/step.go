package game

import "math"

// Input is one frame of local movement intent, each axis in -1..1.
type Input struct {
	Ax float64
	Ay float64
}

// Mover is the local character model. It is never replicated; the
// authority only sees the positions it produces.
type Mover struct {
	Speed    float64
	MaxSpeed float64
	Accel    float64
}

func NewMover() Mover {
	return Mover{MaxSpeed: MaxMoveSpeed, Accel: MoveAccel}
}

// Step advances one frame and returns the displacement on the platform plane.
func (m *Mover) Step(in Input, dt float64) Vec3 {
	mag := math.Hypot(in.Ax, in.Ay)
	if mag > Deadzone {
		if m.Speed < m.MaxSpeed {
			m.Speed += m.Accel
		}
		if m.Speed > m.MaxSpeed {
			m.Speed = m.MaxSpeed
		}
	} else {
		m.Speed -= m.Accel * MoveDecelMult
		if m.Speed < 0 {
			m.Speed = 0
		}
		return Vec3{}
	}
	return Vec3{X: in.Ax * m.Speed * dt, Z: in.Ay * m.Speed * dt}
}

// Stop zeroes the current speed.
func (m *Mover) Stop() {
	m.Speed = 0
}
