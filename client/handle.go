package client

import (
	"github.com/Droledami/kubblin/game"
	"github.com/Droledami/kubblin/protocol"
)

// Handle applies one frame from the authority.
func (l *Local) Handle(c protocol.Codec, env protocol.Envelope) error {
	switch env.T {
	case protocol.MsgWelcome:
		return with(c, env, l.welcome)
	case protocol.MsgVar:
		return with(c, env, l.applyVar)
	case protocol.MsgNotYourTurn:
		return with(c, env, func(protocol.NotYourTurn) { l.flashNotYourTurn() })
	case protocol.MsgHint:
		return with(c, env, l.hint)
	case protocol.MsgCountdown:
		return with(c, env, l.countdown)
	case protocol.MsgWinner:
		return with(c, env, func(w protocol.Winner) { l.view.Winner(w.PlayerID == l.id, w.PlayerID) })
	case protocol.MsgEndOfGame:
		return with(c, env, func(e protocol.EndOfGame) { l.view.EndOfGame(e.Show) })
	case protocol.MsgResetReady:
		l.resetReady()
	case protocol.MsgMoveTo:
		return with(c, env, func(m protocol.MoveTo) {
			if m.PlayerID == l.id {
				l.mover.Stop()
				l.fell = false
			}
			l.place(m.PlayerID, m.Pos)
		})
	case protocol.MsgPosition:
		return with(c, env, func(p protocol.PlayerPosition) {
			if p.PlayerID != l.id {
				l.place(p.PlayerID, p.Pos)
			}
		})
	case protocol.MsgCollision:
		return with(c, env, l.knockback)
	case protocol.MsgState:
		return with(c, env, func(st protocol.State) {
			for _, p := range st.Players {
				if _, known := l.positions[p.ID]; !known || p.ID != l.id {
					l.positions[p.ID] = p.Pos
				}
			}
		})
	case protocol.MsgError:
		return with(c, env, func(e protocol.Error) { l.view.Error(e.Code, e.Message) })
	default:
		l.log.Printf("unhandled %q", env.T)
	}
	return nil
}

func with[T any](c protocol.Codec, env protocol.Envelope, fn func(T)) error {
	p, err := protocol.DecodePayloadWith[T](c, env)
	if err != nil {
		return err
	}
	fn(p)
	return nil
}

func (l *Local) welcome(w protocol.Welcome) {
	l.id = w.PlayerID
	l.joined = true
	l.grid = game.NewGrid(w.Grid.Width, w.Grid.Length)
	l.positions[l.id] = w.Spawn
	for _, u := range w.Vars {
		l.applyVar(u)
	}
	l.view.Joined(l.id, l.grid)
}

func (l *Local) applyVar(u protocol.VarUpdate) {
	v, ok := u.Value()
	if !ok {
		l.log.Printf("var %s without value", u.Name)
		return
	}
	if err := l.store.Write(l.auth, u.Name, v); err != nil {
		l.log.Printf("var %s: %v", u.Name, err)
	}
}

func (l *Local) flashNotYourTurn() {
	l.sched.Cancel(flashOwner)
	l.view.NotYourTurn(true)
	l.sched.After(flashOwner, game.NotYourTurnFlash, func() { l.view.NotYourTurn(false) })
}

// hint pulses the tile then reverts it. Two pulses on one tile may
// overlap; the earlier revert wins.
func (l *Local) hint(h protocol.Hint) {
	b, ok := game.ParseBucket(h.Bucket)
	if !ok {
		l.log.Printf("unknown bucket %q", h.Bucket)
		return
	}
	idx, ok := l.grid.Index(h.Cell)
	if !ok {
		l.log.Printf("hint outside grid: %+v", h.Cell)
		return
	}
	l.explored[h.Cell] = true
	l.view.PulseTile(h.Cell, b.Color())
	l.sched.After(tileOwner(idx), game.HintPulseDuration, func() { l.view.RevertTile(h.Cell) })
}

func (l *Local) countdown(c protocol.Countdown) {
	if c.HideReady {
		l.readyScope.Close()
	}
	l.view.Countdown(c.N, c.HideReady)
}

func (l *Local) resetReady() {
	if l.readyScope.Closed() {
		l.watchReadiness()
	}
	l.view.ResetReady()
}

func (l *Local) place(id int, pos game.Vec3) {
	l.positions[id] = pos
	l.view.Moved(id, pos)
}

func (l *Local) knockback(c protocol.Collision) {
	self, ok1 := l.positions[c.Self]
	other, ok2 := l.positions[c.Other]
	if !ok1 || !ok2 {
		return
	}
	self, other = game.ApplyKnockback(self, other, c.Dir)
	l.place(c.Self, self)
	l.place(c.Other, other)
}
