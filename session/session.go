// Package session is the authoritative state machine of one two-player
// round: roster and readiness, the countdown, turns and proximity hints,
// the win/replay handshake and collision relay.
//
// A Session is not safe for concurrent use. Its owner (the room actor)
// calls every method from one goroutine and has the scheduler post timed
// actions back onto that goroutine.
package session

import (
	"errors"
	"log"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/Droledami/kubblin/effects"
	"github.com/Droledami/kubblin/game"
	"github.com/Droledami/kubblin/protocol"
	"github.com/Droledami/kubblin/replica"
)

var (
	ErrRosterFull         = errors.New("session: roster full")
	ErrUnknownParticipant = errors.New("session: unknown participant")
)

// Transport delivers directives to participants.
type Transport interface {
	Deliver(to protocol.Address, t string, payload any)
}

type Config struct {
	Grid          game.Grid
	CountdownFrom int
	CountdownStep time.Duration
	// HiddenPublic replicates the hidden item cell to every participant.
	HiddenPublic bool
	Strict       bool
}

func DefaultConfig() Config {
	return Config{
		Grid:          game.NewGrid(game.GridWidth, game.GridLength),
		CountdownFrom: game.CountdownFrom,
		CountdownStep: game.CountdownStep,
	}
}

type Phase uint8

const (
	PhaseLobby Phase = iota
	PhaseCountdown
	PhasePlaying
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseCountdown:
		return "countdown"
	case PhasePlaying:
		return "playing"
	case PhaseGameOver:
		return "game_over"
	}
	return "unknown"
}

type participant struct {
	id      int
	name    string
	pos     game.Vec3
	lastSeq uint64
	scope   *replica.Scope
}

type Session struct {
	cfg   Config
	log   *log.Logger
	out   Transport
	sched *effects.Scheduler
	rng   *rand.Rand

	store *replica.Store
	auth  *replica.Authority

	TurnOwner  *replica.Var[int]
	HasStarted *replica.Var[bool]
	HiddenItem *replica.Var[game.Cell]
	ready      [game.MaxPlayers]*replica.Var[bool]
	colors     [game.MaxPlayers]*replica.Var[game.Color]

	roster   [game.MaxPlayers]*participant
	phase    Phase
	allReady bool
	winner   int
}

// New builds a session in the lobby. A nil rng draws from a random seed and
// a nil logger uses the standard logger.
func New(cfg Config, out Transport, sched *effects.Scheduler, rng *rand.Rand, logger *log.Logger) *Session {
	if cfg.Grid.Width < 1 || cfg.Grid.Length < 1 {
		cfg.Grid = game.NewGrid(cfg.Grid.Width, cfg.Grid.Length)
	}
	if cfg.CountdownFrom < 0 {
		cfg.CountdownFrom = 0
	}
	if cfg.CountdownStep <= 0 {
		cfg.CountdownStep = game.CountdownStep
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = log.Default()
	}
	if sched == nil {
		sched = effects.New(effects.Real(), nil)
	}

	store, auth := replica.NewStore("session", replica.WithStrict(cfg.Strict), replica.WithLogger(logger))
	s := &Session{
		cfg:   cfg,
		log:   logger,
		out:   out,
		sched: sched,
		rng:   rng,
		store: store,
		auth:  auth,
	}

	var hiddenOpts []replica.VarOption
	if !cfg.HiddenPublic {
		hiddenOpts = append(hiddenOpts, replica.Private())
	}
	s.TurnOwner = replica.MustRegister(store, protocol.VarTurnOwner, 1)
	s.HasStarted = replica.MustRegister(store, protocol.VarHasStarted, false)
	s.HiddenItem = replica.MustRegister(store, protocol.VarHiddenItem, game.Cell{}, hiddenOpts...)
	for id := range game.MaxPlayers {
		s.ready[id] = replica.MustRegister(store, protocol.ReadyVar(id), false)
		s.colors[id] = replica.MustRegister(store, protocol.ColorVar(id), game.ColorFor(id))
	}

	store.SetReplicator(s.replicate)
	return s
}

func (s *Session) replicate(name string, value any) {
	u, ok := protocol.NewVarUpdate(name, value)
	if !ok {
		s.log.Printf("var %s: unsupported type %T", name, value)
		return
	}
	s.out.Deliver(protocol.All(), protocol.MsgVar, u)
}

func (s *Session) Phase() Phase { return s.phase }

// Winner is the identity that won the last finished round.
func (s *Session) Winner() int { return s.winner }

func (s *Session) Store() *replica.Store { return s.store }

func (s *Session) Grid() game.Grid { return s.cfg.Grid }

// Ready reports the readiness flag of id.
func (s *Session) Ready(id int) bool {
	if !validID(id) {
		return false
	}
	return s.ready[id].Get()
}

// ReadyVar exposes the readiness variable of id for observers.
func (s *Session) ReadyVar(id int) *replica.Var[bool] {
	if !validID(id) {
		return nil
	}
	return s.ready[id]
}

// Position is the authority's view of a participant's body.
func (s *Session) Position(id int) (game.Vec3, bool) {
	p := s.get(id)
	if p == nil {
		return game.Vec3{}, false
	}
	return p.pos, true
}

// Welcome describes the session to a newly joined participant.
func (s *Session) Welcome(id int) protocol.Welcome {
	w := protocol.Welcome{
		PlayerID: id,
		Color:    game.ColorFor(id),
		Spawn:    game.SpawnFor(id),
		Grid:     protocol.GridInfo{Width: s.cfg.Grid.Width, Length: s.cfg.Grid.Length},
	}
	for _, v := range s.store.Snapshot() {
		if u, ok := protocol.NewVarUpdate(v.Name, v.Value); ok {
			w.Vars = append(w.Vars, u)
		}
	}
	return w
}

// Snapshot is the periodic roster view.
func (s *Session) Snapshot(tick int) protocol.State {
	st := protocol.State{
		Tick:    tick,
		Phase:   s.phase.String(),
		Waiting: s.Size() < game.MaxPlayers,
		Players: make([]protocol.PlayerSnapshot, 0, game.MaxPlayers),
	}
	for _, p := range s.participants() {
		st.Players = append(st.Players, protocol.PlayerSnapshot{
			ID:    p.id,
			Name:  p.name,
			Color: s.colors[p.id].Get(),
			Ready: s.ready[p.id].Get(),
			Pos:   p.pos,
		})
	}
	sort.Slice(st.Players, func(i, j int) bool { return st.Players[i].ID < st.Players[j].ID })
	return st
}

func (s *Session) get(id int) *participant {
	if !validID(id) {
		return nil
	}
	return s.roster[id]
}

func (s *Session) participants() []*participant {
	out := make([]*participant, 0, game.MaxPlayers)
	for _, p := range s.roster {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func validID(id int) bool {
	return id >= 0 && id < game.MaxPlayers
}

// set writes a session-owned variable. Writes with the session's own
// authority only fail on a type mismatch, which is a programming error.
func set[T comparable](s *Session, v *replica.Var[T], val T) {
	if err := v.Set(s.auth, val); err != nil {
		s.log.Printf("set %s: %v", v.Name(), err)
	}
}
