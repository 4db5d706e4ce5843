package session

import "github.com/Droledami/kubblin/protocol"

const countdownOwner = "countdown"

func (s *Session) startCountdown() {
	s.phase = PhaseCountdown
	hidden := s.cfg.Grid.RandomHidden(s.rng)
	set(s, s.HiddenItem, hidden)
	set(s, s.TurnOwner, 1)
	s.log.Printf("countdown from %d, hidden item at %d,%d", s.cfg.CountdownFrom, hidden.X, hidden.Z)
	s.countdownStep(s.cfg.CountdownFrom)
}

// countdownStep arms the next step before announcing this one.
func (s *Session) countdownStep(n int) {
	if s.phase != PhaseCountdown {
		return
	}
	if n > 0 {
		s.sched.After(countdownOwner, s.cfg.CountdownStep, func() {
			s.countdownStep(n - 1)
		})
	}
	s.out.Deliver(protocol.All(), protocol.MsgCountdown, protocol.Countdown{N: n, HideReady: true})
	if n <= 0 {
		s.beginPlay()
	}
}

func (s *Session) beginPlay() {
	s.phase = PhasePlaying
	set(s, s.HasStarted, true)
	s.log.Printf("round started, turn %d", s.TurnOwner.Get())
}
