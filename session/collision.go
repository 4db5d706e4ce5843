package session

import (
	"github.com/Droledami/kubblin/game"
	"github.com/Droledami/kubblin/protocol"
)

// ReportCollision relays a contact report to everyone. Collisions are not
// authoritative; the session only mirrors the knockback in its own view.
func (s *Session) ReportCollision(from int, c protocol.Collision) {
	if from != c.Self {
		s.log.Printf("collision from %d reports self=%d", from, c.Self)
	}
	s.out.Deliver(protocol.All(), protocol.MsgCollision, c)

	self, other := s.get(c.Self), s.get(c.Other)
	if self == nil || other == nil || self == other {
		return
	}
	self.pos, other.pos = game.ApplyKnockback(self.pos, other.pos, c.Dir)
}

// UpdatePosition records a body position report. Reports carry a sequence
// number; a report not newer than the last applied one is dropped and
// UpdatePosition returns false.
func (s *Session) UpdatePosition(id int, seq uint64, pos game.Vec3) bool {
	p := s.get(id)
	if p == nil {
		return false
	}
	if seq != 0 && seq <= p.lastSeq {
		return false
	}
	if seq != 0 {
		p.lastSeq = seq
	}
	p.pos = pos
	for _, o := range s.participants() {
		if o.id != id {
			s.out.Deliver(protocol.To(o.id), protocol.MsgPosition, protocol.PlayerPosition{PlayerID: id, Pos: pos})
		}
	}
	return true
}
