package client

import (
	"context"
	"io"
	"log"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Droledami/kubblin/game"
	"github.com/Droledami/kubblin/network"
	"github.com/Droledami/kubblin/protocol"
	"github.com/Droledami/kubblin/room"
)

type signals struct {
	NopPresenter
	joined    chan int
	countdown chan int
}

func newSignals() *signals {
	return &signals{joined: make(chan int, 1), countdown: make(chan int, 8)}
}

func (s *signals) Joined(id int, _ game.Grid) { s.joined <- id }
func (s *signals) Countdown(n int, _ bool) { s.countdown <- n }

func TestClientsReachCountdownOverWebsocket(t *testing.T) {
	cfg := room.DefaultConfig()
	cfg.Logger = log.New(io.Discard, "", 0)
	m := room.NewManager(cfg)
	srv := httptest.NewServer(network.NewServer(m, network.Options{Logger: cfg.Logger}).Handler())
	defer srv.Close()
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var views []*signals
	var clients []*Client
	for i, codec := range []protocol.Codec{protocol.JSON, protocol.Msgpack} {
		v := newSignals()
		c, err := Dial(ctx, srv.URL, "NET", Options{Name: "p", Codec: codec, Presenter: v, Logger: cfg.Logger})
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		defer c.Close()
		go c.Run(ctx)

		select {
		case id := <-v.joined:
			if id != i {
				t.Fatalf("client %d joined as %d", i, id)
			}
		case <-ctx.Done():
			t.Fatalf("client %d never joined", i)
		}
		views = append(views, v)
		clients = append(clients, c)
	}

	for _, c := range clients {
		if err := c.SetReady(true); err != nil {
			t.Fatalf("ready: %v", err)
		}
	}
	for i, v := range views {
		select {
		case n := <-v.countdown:
			if n != game.CountdownFrom {
				t.Fatalf("client %d first countdown = %d", i, n)
			}
		case <-ctx.Done():
			t.Fatalf("client %d saw no countdown", i)
		}
	}
}
