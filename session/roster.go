package session

import (
	"fmt"

	"github.com/Droledami/kubblin/game"
	"github.com/Droledami/kubblin/replica"
)

// Join seats a participant in the lowest free slot and returns its identity.
func (s *Session) Join(name string) (int, error) {
	id := -1
	for i, p := range s.roster {
		if p == nil {
			id = i
			break
		}
	}
	if id < 0 {
		return 0, ErrRosterFull
	}
	if name == "" {
		name = fmt.Sprintf("Player %d", id+1)
	}
	p := &participant{
		id:    id,
		name:  name,
		pos:   game.SpawnFor(id),
		scope: replica.NewScope(),
	}
	s.roster[id] = p

	replica.Watch(p.scope, s.ready[id], func(_, ready bool) {
		s.log.Printf("participant %d ready=%v", id, ready)
		s.evaluateReadiness()
	})
	s.log.Printf("participant %d (%s) joined", id, name)
	return id, nil
}

// Leave removes a participant. Losing a player outside the lobby aborts the
// round: the countdown is cancelled, play stops and everyone left is unready.
func (s *Session) Leave(id int) {
	p := s.get(id)
	if p == nil {
		return
	}
	p.scope.Close()
	s.roster[id] = nil
	set(s, s.ready[id], false)
	s.log.Printf("participant %d (%s) left", id, p.name)

	if s.phase != PhaseLobby {
		s.sched.Cancel(countdownOwner)
		set(s, s.HasStarted, false)
		s.phase = PhaseLobby
		s.ResetAllReadiness()
	}
	s.evaluateReadiness()
}

// Size is the number of seated participants.
func (s *Session) Size() int {
	n := 0
	for _, p := range s.roster {
		if p != nil {
			n++
		}
	}
	return n
}

// Has reports whether id is seated.
func (s *Session) Has(id int) bool {
	return s.get(id) != nil
}

// Participants returns the seated identities in ascending order.
func (s *Session) Participants() []int {
	out := make([]int, 0, game.MaxPlayers)
	for _, p := range s.participants() {
		out = append(out, p.id)
	}
	return out
}

// Name returns the display name of id.
func (s *Session) Name(id int) string {
	if p := s.get(id); p != nil {
		return p.name
	}
	return ""
}
