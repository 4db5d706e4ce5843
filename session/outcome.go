package session

import (
	"github.com/Droledami/kubblin/game"
	"github.com/Droledami/kubblin/protocol"
)

// DeclareWinner ends the round in favour of id. Every participant is told
// who won and decides locally whether it won or lost.
func (s *Session) DeclareWinner(id int) {
	if s.phase != PhasePlaying {
		s.log.Printf("winner %d ignored in %s", id, s.phase)
		return
	}
	if !s.Has(id) {
		s.log.Printf("winner %d is not seated", id)
		return
	}
	s.winner = id
	s.ResetAllReadiness()
	s.out.Deliver(protocol.All(), protocol.MsgWinner, protocol.Winner{PlayerID: id})
	for _, p := range s.participants() {
		s.out.Deliver(protocol.To(p.id), protocol.MsgEndOfGame, protocol.EndOfGame{PlayerID: p.id, Show: true, Winner: id})
	}
	set(s, s.HasStarted, false)
	s.phase = PhaseGameOver
	s.log.Printf("participant %d wins", id)
}

// DeclareOutOfBounds hands the round to the other participant.
func (s *Session) DeclareOutOfBounds(id int) {
	if s.phase != PhasePlaying || !s.Has(id) {
		s.log.Printf("out of bounds from %d ignored in %s", id, s.phase)
		return
	}
	other := s.opponent(id)
	if other < 0 {
		return
	}
	s.log.Printf("participant %d fell off", id)
	s.DeclareWinner(other)
}

// RequestReplay respawns id, hides its end-of-game UI and marks it ready.
func (s *Session) RequestReplay(id int) {
	p := s.get(id)
	if p == nil {
		s.log.Printf("replay from unknown participant %d", id)
		return
	}
	if s.phase != PhaseLobby && s.phase != PhaseGameOver {
		s.log.Printf("replay from %d ignored in %s", id, s.phase)
		return
	}
	p.pos = game.SpawnFor(id)
	s.out.Deliver(protocol.To(id), protocol.MsgMoveTo, protocol.MoveTo{PlayerID: id, Pos: p.pos})
	s.out.Deliver(protocol.To(id), protocol.MsgEndOfGame, protocol.EndOfGame{PlayerID: id, Show: false, Winner: s.winner})
	s.SetReady(id, true)
}

func (s *Session) opponent(id int) int {
	for _, p := range s.participants() {
		if p.id != id {
			return p.id
		}
	}
	return -1
}
