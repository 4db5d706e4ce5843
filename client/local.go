// Package client is a participant: it mirrors the authority's replicated
// variables, reacts to directives through a Presenter and reports its own
// body and contacts back.
package client

import (
	"log"
	"strconv"

	"github.com/Droledami/kubblin/effects"
	"github.com/Droledami/kubblin/game"
	"github.com/Droledami/kubblin/protocol"
	"github.com/Droledami/kubblin/replica"
)

// Sender ships a frame to the authority.
type Sender interface {
	Send(m protocol.Message) error
}

const (
	flashOwner = "not-your-turn"
	stunOwner  = "stun"
)

func tileOwner(i int) string { return "tile/" + strconv.Itoa(i) }

// Local is the participant-side state. It is driven from a single
// goroutine: frames go through Handle, timed effects through the
// scheduler it was given.
type Local struct {
	out   Sender
	view  Presenter
	sched *effects.Scheduler
	log   *log.Logger

	store      *replica.Store
	auth       *replica.Authority
	TurnOwner  *replica.Var[int]
	HasStarted *replica.Var[bool]
	HiddenItem *replica.Var[game.Cell]
	ready      [game.MaxPlayers]*replica.Var[bool]

	// readyScope holds the readiness UI observers. It is released when the
	// countdown hides the ready UI and rebuilt on reset.
	readyScope *replica.Scope
	scope      *replica.Scope

	id        int
	joined    bool
	grid      game.Grid
	positions map[int]game.Vec3
	mover     game.Mover
	stunned   bool
	fell      bool
	seq       uint64
	explored  map[game.Cell]bool
}

func NewLocal(out Sender, view Presenter, sched *effects.Scheduler, logger *log.Logger) *Local {
	if view == nil {
		view = NopPresenter{}
	}
	if logger == nil {
		logger = log.Default()
	}
	if sched == nil {
		sched = effects.New(effects.Real(), nil)
	}
	store, auth := replica.NewStore("mirror", replica.WithLogger(logger))
	l := &Local{
		out:       out,
		view:      view,
		sched:     sched,
		log:       logger,
		store:     store,
		auth:      auth,
		scope:     replica.NewScope(),
		grid:      game.NewGrid(game.GridWidth, game.GridLength),
		positions: make(map[int]game.Vec3),
		mover:     game.NewMover(),
		explored:  make(map[game.Cell]bool),
	}
	l.TurnOwner = replica.MustRegister(store, protocol.VarTurnOwner, 1)
	l.HasStarted = replica.MustRegister(store, protocol.VarHasStarted, false)
	l.HiddenItem = replica.MustRegister(store, protocol.VarHiddenItem, game.Cell{})
	for id := range game.MaxPlayers {
		l.ready[id] = replica.MustRegister(store, protocol.ReadyVar(id), false)
		color := replica.MustRegister(store, protocol.ColorVar(id), game.ColorFor(id))
		replica.Watch(l.scope, color, func(_, c game.Color) { l.view.ColorChanged(id, c) })
	}

	replica.Watch(l.scope, l.TurnOwner, func(_, owner int) { l.view.TurnChanged(owner) })
	replica.Watch(l.scope, l.HasStarted, func(_, started bool) {
		if started {
			l.fell = false
			l.explored = make(map[game.Cell]bool)
		}
		l.view.Started(started)
	})
	l.watchReadiness()
	return l
}

func (l *Local) watchReadiness() {
	l.readyScope = replica.NewScope()
	for id, v := range l.ready {
		replica.Watch(l.readyScope, v, func(_, ready bool) { l.view.Ready(id, ready) })
	}
}

// ID is this participant's identity, valid once joined.
func (l *Local) ID() int { return l.id }

func (l *Local) Joined() bool { return l.joined }

func (l *Local) Grid() game.Grid { return l.grid }

func (l *Local) Stunned() bool { return l.stunned }

// MyTurn reports whether the round is on and this participant holds the turn.
func (l *Local) MyTurn() bool {
	return l.joined && l.HasStarted.Get() && l.TurnOwner.Get() == l.id+1
}

func (l *Local) Ready(id int) bool {
	if id < 0 || id >= game.MaxPlayers {
		return false
	}
	return l.ready[id].Get()
}

// Color is the mirrored identity color of a participant.
func (l *Local) Color(id int) (game.Color, bool) {
	v, ok := replica.Lookup[game.Color](l.store, protocol.ColorVar(id))
	if !ok {
		return game.Color{}, false
	}
	return v.Get(), true
}

func (l *Local) Position(id int) (game.Vec3, bool) {
	p, ok := l.positions[id]
	return p, ok
}

// Unexplored lists the cells without a hint this round, in index order.
func (l *Local) Unexplored() []game.Cell {
	var out []game.Cell
	for i := 0; i < l.grid.Width*l.grid.Length; i++ {
		c, _ := l.grid.CellAt(i)
		if !l.explored[c] {
			out = append(out, c)
		}
	}
	return out
}

// Close releases every observer.
func (l *Local) Close() {
	l.readyScope.Close()
	l.scope.Close()
	l.sched.Cancel(flashOwner)
	l.sched.Cancel(stunOwner)
}

func (l *Local) send(t string, to protocol.Address, seq uint64, payload any) {
	if err := l.out.Send(protocol.Message{T: t, To: to, Seq: seq, Payload: payload}); err != nil {
		l.log.Printf("send %s: %v", t, err)
	}
}

func (l *Local) SetReady(ready bool) {
	l.send(protocol.MsgReady, protocol.Authority(), 0, protocol.Ready{Ready: ready})
}

// Click asks the authority to reveal a tile. Turn checks happen there.
func (l *Local) Click(cell game.Cell) {
	l.send(protocol.MsgClick, protocol.Authority(), 0, protocol.Click{Cell: cell})
}

func (l *Local) Replay() {
	l.send(protocol.MsgReplay, protocol.Authority(), 0, protocol.Replay{})
}

// Move runs one frame of the local movement model. While stunned, input
// is ignored.
func (l *Local) Move(in game.Input, dt float64) game.Vec3 {
	if l.stunned {
		in = game.Input{}
	}
	pos := l.positions[l.id].Add(l.mover.Step(in, dt))
	l.positions[l.id] = pos
	return pos
}

// ReportPosition sends this participant's body position. The first report
// below the fall limit during a round also reports falling off.
func (l *Local) ReportPosition(pos game.Vec3) {
	if !l.joined {
		return
	}
	l.positions[l.id] = pos
	l.seq++
	l.send(protocol.MsgPosition, protocol.Authority(), l.seq, protocol.Position{Pos: pos})
	if pos.Y < game.FallLimit && l.HasStarted.Get() && !l.fell {
		l.fell = true
		l.send(protocol.MsgOutOfBounds, protocol.Authority(), 0, protocol.OutOfBounds{})
	}
}

// Collide reports contact with other to everyone and stuns this
// participant. The knockback itself is applied when the relay comes back.
func (l *Local) Collide(other int) {
	if !l.joined || other == l.id {
		return
	}
	self, ok1 := l.positions[l.id]
	them, ok2 := l.positions[other]
	if !ok1 || !ok2 {
		return
	}
	dir := game.KnockbackDir(self, them)
	l.send(protocol.MsgCollision, protocol.All(), 0, protocol.Collision{Self: l.id, Other: other, Dir: dir})
	l.stun()
}

func (l *Local) stun() {
	l.sched.Cancel(stunOwner)
	l.mover.Stop()
	l.stunned = true
	l.view.Stunned(true)
	l.sched.After(stunOwner, game.StunDuration, func() {
		l.stunned = false
		l.view.Stunned(false)
	})
}
