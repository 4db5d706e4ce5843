package room

import (
	"testing"
	"time"

	"github.com/Droledami/kubblin/protocol"
)

func TestManagerCreateAndList(t *testing.T) {
	m := NewManager(testConfig(nil))
	defer m.Close()

	code := m.CreateRoom()
	if len(code) != 6 {
		t.Fatalf("code = %q", code)
	}
	if r := m.GetOrCreateRoom(code); r == nil || r.Code != code {
		t.Fatalf("GetOrCreateRoom returned %+v", r)
	}
	if m.GetOrCreateRoom("") != nil {
		t.Fatalf("empty code created a room")
	}
	list := m.ListRooms()
	if len(list) != 1 || list[0].Code != code || list[0].Phase != "lobby" || !list[0].Open {
		t.Fatalf("list = %+v", list)
	}
}

func TestManagerRemovesEmptyRoom(t *testing.T) {
	m := NewManager(testConfig(nil))
	defer m.Close()

	r := m.GetOrCreateRoom("ABCDEF")
	fc := newFakeConn(64)
	res := join(t, r, fc, protocol.JSON, "solo")
	r.Inbox <- Leave{PlayerID: res.PlayerID}

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatalf("room not stopped after last leave")
	}
	if _, ok := m.Get("ABCDEF"); ok {
		t.Fatalf("room still listed")
	}
	if r.Submit(Leave{}) {
		t.Fatalf("stopped room accepted a command")
	}
}
