package room

import (
	"log"
	"math/rand/v2"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Droledami/kubblin/effects"
	"github.com/Droledami/kubblin/game"
	"github.com/Droledami/kubblin/protocol"
	"github.com/Droledami/kubblin/session"
)

type Config struct {
	Session    session.Config
	SnapshotHz int
	// Clock drives session timers; nil means the wall clock.
	Clock  effects.Clock
	Rand   *rand.Rand
	Logger *log.Logger
}

func DefaultConfig() Config {
	return Config{
		Session:    session.DefaultConfig(),
		SnapshotHz: protocol.SnapshotHz,
	}
}

type client struct {
	conn  Conn
	codec protocol.Codec
}

// Room owns one session. Every session call happens on the Run goroutine;
// connections talk to it through Inbox.
type Room struct {
	Inbox chan any
	ID    string

	Code    string            // room code (e.g. "ABC123")
	OnEmpty func(code string) // called when last player leaves

	log        *log.Logger
	session    *session.Session
	clients    map[int]*client
	failed     []int
	snapshotHz int
	tick       int
	seq        uint64
	info       atomic.Pointer[RoomInfo]
	quit       chan struct{}
	stopOnce   sync.Once
}

func New(code string, cfg Config) *Room {
	if cfg.SnapshotHz <= 0 {
		cfg.SnapshotHz = protocol.SnapshotHz
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[room "+code+"] ", log.LstdFlags)
	}
	r := &Room{
		Inbox:      make(chan any, 256),
		ID:         uuid.NewString(),
		Code:       code,
		log:        logger,
		clients:    make(map[int]*client),
		snapshotHz: cfg.SnapshotHz,
		quit:       make(chan struct{}),
	}
	sched := effects.New(cfg.Clock, r.post)
	r.session = session.New(cfg.Session, r, sched, cfg.Rand, logger)
	r.publishInfo()
	return r
}

// post hands a due timer action to the room goroutine.
func (r *Room) post(fn func()) {
	select {
	case r.Inbox <- task(fn):
	case <-r.quit:
	}
}

func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Done is closed once the room is stopped.
func (r *Room) Done() <-chan struct{} {
	return r.quit
}

// Submit queues a command. It returns false if the room has stopped.
func (r *Room) Submit(cmd any) bool {
	select {
	case <-r.quit:
		return false
	default:
	}
	select {
	case r.Inbox <- cmd:
		return true
	case <-r.quit:
		return false
	}
}

// NumPlayers returns the current number of connected clients.
func (r *Room) NumPlayers() int {
	return r.Info().Players
}

// Info is safe to call from any goroutine.
func (r *Room) Info() RoomInfo {
	return *r.info.Load()
}

func (r *Room) Run() {
	ticker := time.NewTicker(time.Second / time.Duration(r.snapshotHz))
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		case <-ticker.C:
			r.tick++
			if len(r.clients) > 0 {
				r.broadcastState()
			}
		}
		r.dropFailed()
		r.publishInfo()
	}
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		r.handleJoin(c)
	case Inbound:
		if _, ok := r.clients[c.PlayerID]; !ok {
			return
		}
		r.dispatch(c.PlayerID, c.Env)
	case Leave:
		r.handleLeave(c.PlayerID)
	case task:
		c()
	}
}

func (r *Room) handleJoin(c Join) {
	codec := c.Codec
	if codec == nil {
		codec = protocol.JSON
	}
	id, err := r.session.Join(c.Name)
	if err != nil {
		r.log.Printf("join %q rejected: %v", c.Name, err)
		if b, encErr := protocol.EncodeWith(codec, protocol.Message{
			T:       protocol.MsgError,
			Payload: protocol.Error{Code: protocol.ErrCodeRoomFull, Message: err.Error()},
		}); encErr == nil {
			_ = c.Conn.Send(b)
		}
		c.Reply <- JoinResult{Err: err}
		return
	}
	r.clients[id] = &client{conn: c.Conn, codec: codec}

	w := r.session.Welcome(id)
	w.SessionID = r.ID
	w.Room = r.Code
	w.SnapshotHz = r.snapshotHz
	r.Deliver(protocol.To(id), protocol.MsgWelcome, w)
	c.Reply <- JoinResult{PlayerID: id}
}

func (r *Room) dispatch(id int, env protocol.Envelope) {
	codec := r.clients[id].codec
	switch env.T {
	case protocol.MsgReady:
		if p, ok := decode[protocol.Ready](r, codec, env); ok {
			r.session.SetReady(id, p.Ready)
		}
	case protocol.MsgClick:
		if p, ok := decode[protocol.Click](r, codec, env); ok {
			r.session.SubmitClick(id, p.Cell)
		}
	case protocol.MsgReplay:
		r.session.RequestReplay(id)
	case protocol.MsgPosition:
		if p, ok := decode[protocol.Position](r, codec, env); ok {
			r.session.UpdatePosition(id, env.Seq, p.Pos)
		}
	case protocol.MsgOutOfBounds:
		r.session.DeclareOutOfBounds(id)
	case protocol.MsgCollision:
		if p, ok := decode[protocol.Collision](r, codec, env); ok {
			r.session.ReportCollision(id, p)
		}
	case protocol.MsgHello:
	default:
		r.log.Printf("player %d sent unknown type %q", id, env.T)
		r.Deliver(protocol.To(id), protocol.MsgError, protocol.Error{Code: protocol.ErrCodeBadMessage, Message: env.T})
	}
}

func decode[T any](r *Room, c protocol.Codec, env protocol.Envelope) (T, bool) {
	p, err := protocol.DecodePayloadWith[T](c, env)
	if err != nil {
		r.log.Printf("decode %s: %v", env.T, err)
		return p, false
	}
	return p, true
}

// Deliver sends a directive to the addressed players. Each frame is
// encoded at most once per codec.
func (r *Room) Deliver(to protocol.Address, t string, payload any) {
	r.seq++
	msg := protocol.Message{T: t, To: to, Seq: r.seq, Payload: payload}
	frames := make(map[protocol.Codec][]byte, 2)
	send := func(id int, c *client) {
		b, ok := frames[c.codec]
		if !ok {
			var err error
			b, err = protocol.EncodeWith(c.codec, msg)
			if err != nil {
				r.log.Printf("encode %s: %v", t, err)
				return
			}
			frames[c.codec] = b
		}
		if err := c.conn.Send(b); err != nil {
			r.failed = append(r.failed, id)
		}
	}

	switch to.Mode {
	case protocol.Broadcast:
		for _, id := range r.ids() {
			send(id, r.clients[id])
		}
	case protocol.Unicast:
		if c, ok := r.clients[to.Participant]; ok {
			send(to.Participant, c)
		}
	default:
		r.log.Printf("cannot deliver %s to %v", t, to.Mode)
	}
}

func (r *Room) ids() []int {
	ids := make([]int, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (r *Room) handleLeave(playerID int) {
	c, ok := r.clients[playerID]
	if !ok {
		return
	}
	delete(r.clients, playerID)
	_ = c.conn.Close()
	r.session.Leave(playerID)
	if len(r.clients) == 0 && r.OnEmpty != nil && r.Code != "" {
		r.OnEmpty(r.Code)
	}
}

// dropFailed removes players whose connection refused a frame. Removing
// one can produce more sends, so it loops until nothing new fails.
func (r *Room) dropFailed() {
	for len(r.failed) > 0 {
		failed := r.failed
		r.failed = nil
		for _, id := range failed {
			if _, ok := r.clients[id]; ok {
				r.log.Printf("dropping player %d after failed send", id)
				r.handleLeave(id)
			}
		}
	}
}

func (r *Room) broadcastState() {
	r.Deliver(protocol.All(), protocol.MsgState, r.session.Snapshot(r.tick))
}

func (r *Room) publishInfo() {
	phase := r.session.Phase()
	n := len(r.clients)
	r.info.Store(&RoomInfo{
		Code:    r.Code,
		Players: n,
		Phase:   phase.String(),
		Open:    n < game.MaxPlayers && phase != session.PhasePlaying,
	})
}
