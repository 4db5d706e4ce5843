package room

import "github.com/Droledami/kubblin/protocol"

type Conn interface {
	Send([]byte) error
	Close() error
}

// Join: issued once after hello parsed
type Join struct {
	Conn  Conn
	Codec protocol.Codec
	Name  string
	Reply chan<- JoinResult
}

type JoinResult struct {
	PlayerID int
	Err      error
}

// Inbound: one decoded frame from a seated player
type Inbound struct {
	PlayerID int
	Env      protocol.Envelope
}

// Leave: issued on disconnect
type Leave struct {
	PlayerID int
}

// task is a scheduled action posted back onto the room goroutine.
type task func()
