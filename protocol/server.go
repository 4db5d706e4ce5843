package protocol

import "github.com/Droledami/kubblin/game"

const (
	ErrCodeRoomFull   = "ROOM_FULL"
	ErrCodeBadHello   = "BAD_HELLO"
	ErrCodeVersion    = "VERSION"
	ErrCodeNoRoom     = "NO_ROOM"
	ErrCodeBadMessage = "BAD_MESSAGE"
)

type Welcome struct {
	PlayerID   int         `json:"playerId" msgpack:"playerId"`
	SessionID  string      `json:"sessionId" msgpack:"sessionId"`
	Room       string      `json:"room" msgpack:"room"`
	Color      game.Color  `json:"color" msgpack:"color"`
	Spawn      game.Vec3   `json:"spawn" msgpack:"spawn"`
	Grid       GridInfo    `json:"grid" msgpack:"grid"`
	SnapshotHz int         `json:"snapshotHz" msgpack:"snapshotHz"`
	Vars       []VarUpdate `json:"vars" msgpack:"vars"`
}

type GridInfo struct {
	Width  int `json:"width" msgpack:"width"`
	Length int `json:"length" msgpack:"length"`
}

// VarUpdate carries one replicated variable. Exactly one value field is set.
type VarUpdate struct {
	Name  string      `json:"name" msgpack:"name"`
	Int   *int        `json:"int,omitempty" msgpack:"int,omitempty"`
	Bool  *bool       `json:"bool,omitempty" msgpack:"bool,omitempty"`
	Cell  *game.Cell  `json:"cell,omitempty" msgpack:"cell,omitempty"`
	Color *game.Color `json:"color,omitempty" msgpack:"color,omitempty"`
}

// NewVarUpdate wraps a value of one of the replicated types.
func NewVarUpdate(name string, v any) (VarUpdate, bool) {
	u := VarUpdate{Name: name}
	switch x := v.(type) {
	case int:
		u.Int = &x
	case bool:
		u.Bool = &x
	case game.Cell:
		u.Cell = &x
	case game.Color:
		u.Color = &x
	default:
		return VarUpdate{}, false
	}
	return u, true
}

// Value unwraps the carried value.
func (u VarUpdate) Value() (any, bool) {
	switch {
	case u.Int != nil:
		return *u.Int, true
	case u.Bool != nil:
		return *u.Bool, true
	case u.Cell != nil:
		return *u.Cell, true
	case u.Color != nil:
		return *u.Color, true
	}
	return nil, false
}

type NotYourTurn struct {
	PlayerID int `json:"playerId" msgpack:"playerId"`
}

type Hint struct {
	Cell   game.Cell `json:"cell" msgpack:"cell"`
	Bucket string    `json:"bucket" msgpack:"bucket"`
}

// Countdown is one step of the pre-round countdown; N == 0 means go.
type Countdown struct {
	N         int  `json:"n" msgpack:"n"`
	HideReady bool `json:"hideReady" msgpack:"hideReady"`
}

type Winner struct {
	PlayerID int `json:"playerId" msgpack:"playerId"`
}

// EndOfGame is addressed to one participant and toggles its end-of-game UI.
type EndOfGame struct {
	PlayerID int  `json:"playerId" msgpack:"playerId"`
	Show     bool `json:"show" msgpack:"show"`
	Winner   int  `json:"winner" msgpack:"winner"`
}

type ResetReady struct{}

type MoveTo struct {
	PlayerID int       `json:"playerId" msgpack:"playerId"`
	Pos      game.Vec3 `json:"pos" msgpack:"pos"`
}

// PlayerPosition relays a participant's reported body position.
type PlayerPosition struct {
	PlayerID int       `json:"playerId" msgpack:"playerId"`
	Pos      game.Vec3 `json:"pos" msgpack:"pos"`
}

type State struct {
	Tick    int              `json:"tick" msgpack:"tick"`
	Phase   string           `json:"phase" msgpack:"phase"`
	Waiting bool             `json:"waiting,omitempty" msgpack:"waiting,omitempty"`
	Players []PlayerSnapshot `json:"players" msgpack:"players"`
}

type PlayerSnapshot struct {
	ID    int        `json:"id" msgpack:"id"`
	Name  string     `json:"name" msgpack:"name"`
	Color game.Color `json:"color" msgpack:"color"`
	Ready bool       `json:"ready" msgpack:"ready"`
	Pos   game.Vec3  `json:"pos" msgpack:"pos"`
}

type Error struct {
	Code    string `json:"code" msgpack:"code"`
	Message string `json:"message,omitempty" msgpack:"message,omitempty"`
}
