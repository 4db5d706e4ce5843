package session

import (
	"github.com/Droledami/kubblin/game"
	"github.com/Droledami/kubblin/protocol"
)

// SetReady records a participant's readiness. Readiness only moves in the
// lobby and after a round; during the countdown and play it is ignored.
func (s *Session) SetReady(id int, ready bool) {
	if !s.Has(id) {
		s.log.Printf("ready from unknown participant %d", id)
		return
	}
	if s.phase != PhaseLobby && s.phase != PhaseGameOver {
		s.log.Printf("ready from %d ignored in %s", id, s.phase)
		return
	}
	set(s, s.ready[id], ready)
	s.evaluateReadiness()
}

// AllReady reports whether the roster is full and every participant is ready.
func (s *Session) AllReady() bool {
	ps := s.participants()
	if len(ps) < game.MaxPlayers {
		return false
	}
	for _, p := range ps {
		if !s.ready[p.id].Get() {
			return false
		}
	}
	return true
}

// ResetAllReadiness tells participants to reset their ready UI and clears
// every readiness flag.
func (s *Session) ResetAllReadiness() {
	s.out.Deliver(protocol.All(), protocol.MsgResetReady, protocol.ResetReady{})
	for _, v := range s.ready {
		set(s, v, false)
	}
	s.evaluateReadiness()
}

// evaluateReadiness starts the countdown on the transition into all-ready.
// Staying all-ready does not start it again.
func (s *Session) evaluateReadiness() {
	now := s.AllReady()
	rising := now && !s.allReady
	s.allReady = now
	if !rising {
		return
	}
	if s.phase != PhaseLobby && s.phase != PhaseGameOver {
		return
	}
	s.startCountdown()
}
