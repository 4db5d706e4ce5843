package session

import (
	"github.com/Droledami/kubblin/game"
	"github.com/Droledami/kubblin/protocol"
)

// Outcome is the authority's verdict on a click.
type Outcome uint8

const (
	OutcomeIgnored Outcome = iota
	OutcomeOutOfTurn
	OutcomeMiss
	OutcomeFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeOutOfTurn:
		return "out_of_turn"
	case OutcomeMiss:
		return "miss"
	case OutcomeFound:
		return "found"
	}
	return "unknown"
}

// SubmitClick validates a tile click. The turn check comes first, then the
// proximity hint is broadcast, then the round is won or the turn passes.
func (s *Session) SubmitClick(id int, cell game.Cell) Outcome {
	if s.phase != PhasePlaying {
		s.log.Printf("click from %d ignored in %s", id, s.phase)
		return OutcomeIgnored
	}
	if !s.Has(id) {
		s.log.Printf("click from unknown participant %d", id)
		return OutcomeIgnored
	}
	if !s.cfg.Grid.Contains(cell) {
		s.log.Printf("click from %d outside grid: %+v", id, cell)
		return OutcomeIgnored
	}

	if id+1 != s.TurnOwner.Get() {
		s.out.Deliver(protocol.To(id), protocol.MsgNotYourTurn, protocol.NotYourTurn{PlayerID: id})
		return OutcomeOutOfTurn
	}

	d := game.Manhattan(cell, s.HiddenItem.Get())
	bucket := game.BucketFor(d)
	s.out.Deliver(protocol.All(), protocol.MsgHint, protocol.Hint{Cell: cell, Bucket: bucket.String()})

	if d == 0 {
		s.DeclareWinner(id)
		return OutcomeFound
	}
	s.passTurn()
	return OutcomeMiss
}

func (s *Session) passTurn() {
	next := 1
	if s.TurnOwner.Get() == 1 {
		next = 2
	}
	set(s, s.TurnOwner, next)
}
