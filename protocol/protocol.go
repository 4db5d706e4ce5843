package protocol

import "strconv"

const Version = 1

// client -> authority. MsgCollision is the exception: any participant sends
// it to everyone and the authority relays it without validation.
const (
	MsgHello       = "hello"
	MsgReady       = "ready"
	MsgClick       = "click"
	MsgReplay      = "replay"
	MsgPosition    = "position"
	MsgOutOfBounds = "out_of_bounds"
	MsgCollision   = "collision"
)

// authority -> participants
const (
	MsgWelcome     = "welcome"
	MsgVar         = "var"
	MsgNotYourTurn = "not_your_turn"
	MsgHint        = "hint"
	MsgCountdown   = "countdown"
	MsgWinner      = "winner"
	MsgEndOfGame   = "end_of_game"
	MsgResetReady  = "reset_ready"
	MsgMoveTo      = "move_to"
	MsgState       = "state"
	MsgError       = "error"
	MsgAnnounce    = "announce"
)

const (
	SnapshotHz = 10
	PositionHz = 20 // client body reports per second
)

// Replicated variable names.
const (
	VarTurnOwner  = "turnOwner"
	VarHasStarted = "hasStarted"
	VarHiddenItem = "hiddenItemCell"
	varReady      = "ready/"
	varColor      = "color/"
)

func ReadyVar(id int) string { return varReady + strconv.Itoa(id) }
func ColorVar(id int) string { return varColor + strconv.Itoa(id) }

// Mode selects who receives a directive.
type Mode uint8

const (
	Broadcast Mode = iota
	Unicast
	ToAuthority
)

func (m Mode) String() string {
	switch m {
	case Broadcast:
		return "broadcast"
	case Unicast:
		return "unicast"
	case ToAuthority:
		return "authority"
	}
	return "unknown"
}

// Address is carried by every envelope; the transport interprets it.
type Address struct {
	Mode        Mode `json:"mode" msgpack:"mode"`
	Participant int  `json:"pid,omitempty" msgpack:"pid,omitempty"`
}

func All() Address { return Address{Mode: Broadcast} }
func To(id int) Address { return Address{Mode: Unicast, Participant: id} }
func Authority() Address { return Address{Mode: ToAuthority} }

// Envelope is a decoded frame. P still holds the payload in the codec the
// frame arrived with.
type Envelope struct {
	T   string
	To  Address
	Seq uint64
	P   []byte
}

// Message is a frame to encode.
type Message struct {
	T       string
	To      Address
	Seq     uint64
	Payload any
}
