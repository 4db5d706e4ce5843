package room

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/Droledami/kubblin/effects"
	"github.com/Droledami/kubblin/game"
	"github.com/Droledami/kubblin/protocol"
	"github.com/Droledami/kubblin/session"
)

type fakeConn struct {
	sendCh chan []byte
	closed chan struct{}
}

func newFakeConn(n int) *fakeConn {
	return &fakeConn{sendCh: make(chan []byte, n), closed: make(chan struct{}, 1)}
}

func (f *fakeConn) Send(b []byte) error {
	cp := make([]byte, len(b))
	copy(cp, b)
	f.sendCh <- cp
	return nil
}

func (f *fakeConn) Close() error {
	select {
	case f.closed <- struct{}{}:
	default:
	}
	return nil
}

func testConfig(clock effects.Clock) Config {
	cfg := DefaultConfig()
	cfg.SnapshotHz = 20
	cfg.Clock = clock
	cfg.Logger = log.New(io.Discard, "", 0)
	return cfg
}

func startRoom(t *testing.T, cfg Config) *Room {
	t.Helper()
	r := New("TEST01", cfg)
	go r.Run()
	t.Cleanup(r.Stop)
	return r
}

func join(t *testing.T, r *Room, c Conn, codec protocol.Codec, name string) JoinResult {
	t.Helper()
	reply := make(chan JoinResult, 1)
	r.Inbox <- Join{Conn: c, Codec: codec, Name: name, Reply: reply}
	select {
	case res := <-reply:
		return res
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for join reply")
	}
	return JoinResult{}
}

// frame builds an inbound envelope the way the network layer decodes one.
func frame(t *testing.T, typ string, payload any) protocol.Envelope {
	t.Helper()
	b, err := protocol.Encode(typ, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := protocol.DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env
}

// expect reads frames from fc until one of type typ arrives.
func expect(t *testing.T, fc *fakeConn, codec protocol.Codec, typ string) protocol.Envelope {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case b := <-fc.sendCh:
			env, err := protocol.DecodeEnvelopeWith(codec, b)
			if err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if env.T == typ {
				return env
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func TestRoomJoinSendsWelcome(t *testing.T) {
	r := startRoom(t, testConfig(nil))
	fc := newFakeConn(64)
	res := join(t, r, fc, protocol.JSON, "test")
	if res.Err != nil || res.PlayerID != 0 {
		t.Fatalf("join = %+v", res)
	}

	env := expect(t, fc, protocol.JSON, protocol.MsgWelcome)
	w, err := protocol.DecodePayload[protocol.Welcome](env)
	if err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if w.PlayerID != 0 || w.SessionID != r.ID || w.Room != "TEST01" || w.Color != game.Player1Color {
		t.Fatalf("welcome = %+v", w)
	}
	if env.To != protocol.To(0) {
		t.Fatalf("welcome addressed to %+v", env.To)
	}
}

func TestRoomTwoClientsSeeBothPlayers(t *testing.T) {
	r := startRoom(t, testConfig(nil))
	fc1 := newFakeConn(64)
	fc2 := newFakeConn(64)
	res1 := join(t, r, fc1, protocol.JSON, "a")
	res2 := join(t, r, fc2, protocol.JSON, "b")
	if res1.PlayerID == res2.PlayerID {
		t.Fatalf("expected unique player ids, got same: %d", res1.PlayerID)
	}

	assertSnapshotHas := func(t *testing.T, fc *fakeConn) {
		t.Helper()
		timeout := time.After(time.Second)
		for {
			select {
			case <-timeout:
				t.Fatalf("timed out waiting for snapshot containing both players")
			default:
			}
			env := expect(t, fc, protocol.JSON, protocol.MsgState)
			st, err := protocol.DecodePayload[protocol.State](env)
			if err != nil {
				t.Fatalf("decode state: %v", err)
			}
			if len(st.Players) == 2 && !st.Waiting {
				if st.Players[0].Name != "a" || st.Players[1].Name != "b" {
					t.Fatalf("players = %+v", st.Players)
				}
				return
			}
		}
	}
	assertSnapshotHas(t, fc1)
	assertSnapshotHas(t, fc2)
}

func TestRoomThirdJoinIsRejected(t *testing.T) {
	r := startRoom(t, testConfig(nil))
	join(t, r, newFakeConn(64), protocol.JSON, "a")
	join(t, r, newFakeConn(64), protocol.JSON, "b")

	fc := newFakeConn(64)
	res := join(t, r, fc, protocol.JSON, "c")
	if !errors.Is(res.Err, session.ErrRosterFull) {
		t.Fatalf("err = %v, want ErrRosterFull", res.Err)
	}
	env := expect(t, fc, protocol.JSON, protocol.MsgError)
	e, _ := protocol.DecodePayload[protocol.Error](env)
	if e.Code != protocol.ErrCodeRoomFull {
		t.Fatalf("error code = %q", e.Code)
	}
}

func TestRoomLeaveRemovesPlayerFromSnapshots(t *testing.T) {
	r := startRoom(t, testConfig(nil))
	fc1 := newFakeConn(256)
	fc2 := newFakeConn(256)
	join(t, r, fc1, protocol.JSON, "stay")
	res := join(t, r, fc2, protocol.JSON, "go")

	r.Inbox <- Leave{PlayerID: res.PlayerID}
	select {
	case <-fc2.closed:
	case <-time.After(time.Second):
		t.Fatalf("leaving conn not closed")
	}

	timeout := time.After(time.Second)
	for {
		select {
		case <-timeout:
			t.Fatalf("timed out waiting for snapshot without player")
		default:
		}
		st, _ := protocol.DecodePayload[protocol.State](expect(t, fc1, protocol.JSON, protocol.MsgState))
		if len(st.Players) == 1 && st.Waiting {
			return
		}
	}
}

type slowConn struct {
	sendCh chan []byte
	block  chan struct{}
}

func (s *slowConn) Send(b []byte) error {
	cp := append([]byte(nil), b...)
	s.sendCh <- cp
	<-s.block // block until released
	return nil
}
func (s *slowConn) Close() error { return nil }

func TestRoomBroadcastDoesNotDeadlockOnSlowConn(t *testing.T) {
	r := startRoom(t, testConfig(nil))

	sc := &slowConn{
		sendCh: make(chan []byte, 1),
		block:  make(chan struct{}),
	}
	reply := make(chan JoinResult, 1)
	r.Inbox <- Join{Conn: sc, Name: "slow", Reply: reply}

	select {
	case <-sc.sendCh:
		close(sc.block)
	case <-time.After(time.Second):
		t.Fatalf("expected at least one send; possible deadlock")
	}
	<-reply
}

type failingConn struct{}

func (failingConn) Send([]byte) error { return errors.New("broken pipe") }
func (failingConn) Close() error      { return nil }

func TestRoomDropsPlayerOnFailedSend(t *testing.T) {
	r := startRoom(t, testConfig(nil))
	join(t, r, newFakeConn(256), protocol.JSON, "ok")
	join(t, r, failingConn{}, protocol.JSON, "broken")

	seated := make(chan int, 1)
	r.Inbox <- task(func() { seated <- r.session.Size() })
	select {
	case n := <-seated:
		if n != 1 {
			t.Fatalf("seated = %d, want 1", n)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out")
	}
	if r.NumPlayers() != 1 {
		t.Fatalf("NumPlayers = %d", r.NumPlayers())
	}
}

func TestRoomSnapshotRateRoughlyConfigured(t *testing.T) {
	r := startRoom(t, testConfig(nil))
	fc := newFakeConn(256)
	join(t, r, fc, protocol.JSON, "rate")

	deadline := time.After(300 * time.Millisecond)
	count := 0
	for {
		select {
		case b := <-fc.sendCh:
			env, err := protocol.DecodeEnvelope(b)
			if err == nil && env.T == protocol.MsgState {
				count++
			}
		case <-deadline:
			// 20Hz for 0.3s => ~6 msgs.
			if count < 2 || count > 12 {
				t.Fatalf("unexpected state broadcast count in 300ms: %d", count)
			}
			return
		}
	}
}

func TestRoomRunsRoundThroughInbox(t *testing.T) {
	clock := effects.NewManualClock()
	r := startRoom(t, testConfig(clock))
	fc1 := newFakeConn(512)
	fc2 := newFakeConn(512)
	join(t, r, fc1, protocol.JSON, "a")
	join(t, r, fc2, protocol.Msgpack, "b")

	r.Inbox <- Inbound{PlayerID: 0, Env: frame(t, protocol.MsgReady, protocol.Ready{Ready: true})}
	r.Inbox <- Inbound{PlayerID: 1, Env: frame(t, protocol.MsgReady, protocol.Ready{Ready: true})}

	first, err := protocol.DecodePayloadWith[protocol.Countdown](protocol.Msgpack, expect(t, fc2, protocol.Msgpack, protocol.MsgCountdown))
	if err != nil || first.N != 3 {
		t.Fatalf("first countdown = %+v, %v", first, err)
	}

	for n := 2; n >= 0; n-- {
		clock.Advance(time.Second)
		c, _ := protocol.DecodePayload[protocol.Countdown](expect(t, fc1, protocol.JSON, protocol.MsgCountdown))
		if c.N != n {
			t.Fatalf("countdown = %d, want %d", c.N, n)
		}
	}

	// Player 1 does not hold the turn: only its own connection hears about it.
	r.Inbox <- Inbound{PlayerID: 1, Env: frame(t, protocol.MsgClick, protocol.Click{Cell: game.Cell{X: 5, Z: 5}})}
	expect(t, fc2, protocol.Msgpack, protocol.MsgNotYourTurn)

	r.Inbox <- Inbound{PlayerID: 0, Env: frame(t, protocol.MsgClick, protocol.Click{Cell: game.Cell{X: 5, Z: 5}})}
	timeout := time.After(time.Second)
	for {
		select {
		case b := <-fc1.sendCh:
			env, _ := protocol.DecodeEnvelope(b)
			switch env.T {
			case protocol.MsgNotYourTurn:
				t.Fatalf("not_your_turn leaked to player 0")
			case protocol.MsgHint:
				h, _ := protocol.DecodePayload[protocol.Hint](env)
				if h.Bucket != game.BucketFar.String() {
					t.Fatalf("bucket = %q", h.Bucket)
				}
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for hint")
		}
	}
}

func TestRoomRelaysCollisionToEveryone(t *testing.T) {
	r := startRoom(t, testConfig(nil))
	fc1 := newFakeConn(256)
	fc2 := newFakeConn(256)
	join(t, r, fc1, protocol.JSON, "a")
	join(t, r, fc2, protocol.JSON, "b")

	c := protocol.Collision{Self: 0, Other: 1, Dir: game.Vec3{X: 1}}
	r.Inbox <- Inbound{PlayerID: 0, Env: frame(t, protocol.MsgCollision, c)}
	for _, fc := range []*fakeConn{fc1, fc2} {
		got, _ := protocol.DecodePayload[protocol.Collision](expect(t, fc, protocol.JSON, protocol.MsgCollision))
		if got != c {
			t.Fatalf("collision = %+v, want %+v", got, c)
		}
	}
}

func TestRoomUnknownMessageGetsError(t *testing.T) {
	r := startRoom(t, testConfig(nil))
	fc := newFakeConn(64)
	join(t, r, fc, protocol.JSON, "a")
	r.Inbox <- Inbound{PlayerID: 0, Env: frame(t, "dance", protocol.Replay{})}
	e, _ := protocol.DecodePayload[protocol.Error](expect(t, fc, protocol.JSON, protocol.MsgError))
	if e.Code != protocol.ErrCodeBadMessage {
		t.Fatalf("code = %q", e.Code)
	}
}
