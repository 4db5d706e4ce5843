package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Droledami/kubblin/config"
	"github.com/Droledami/kubblin/discovery"
	"github.com/Droledami/kubblin/game"
	"github.com/Droledami/kubblin/network"
	"github.com/Droledami/kubblin/protocol"
	"github.com/Droledami/kubblin/room"
	"github.com/Droledami/kubblin/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	codec, err := protocol.CodecByName(cfg.Codec)
	if err != nil {
		log.Fatal(err)
	}

	rooms := room.NewManager(room.Config{
		Session: session.Config{
			Grid:          game.NewGrid(cfg.GridWidth, cfg.GridLength),
			CountdownFrom: cfg.CountdownFrom,
			CountdownStep: cfg.CountdownStep,
			HiddenPublic:  cfg.HiddenCellPublic,
			Strict:        cfg.Strict,
		},
		SnapshotHz: cfg.SnapshotHz,
	})
	defer rooms.Close()

	srv := network.NewServer(rooms, network.Options{
		OriginAllowlist: cfg.OriginAllowlist,
		DefaultCodec:    codec,
	})
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Announce {
		a, err := discovery.NewAnnouncer(cfg.AnnounceAddr, nil, cfg.AnnounceEvery, announcement(cfg, rooms), nil)
		if err != nil {
			log.Printf("discovery disabled: %v", err)
		} else {
			go a.Run(ctx)
			log.Printf("announcing on %s every %s", cfg.AnnounceAddr, cfg.AnnounceEvery)
		}
	}

	go func() {
		log.Printf("server listening on %s (ws endpoint: /ws)", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func announcement(cfg config.Config, rooms *room.Manager) func() discovery.Announcement {
	addr := cfg.Addr
	if host, port, err := net.SplitHostPort(addr); err == nil && host == "" {
		addr = net.JoinHostPort(localIP(), port)
	}
	return func() discovery.Announcement {
		a := discovery.Announcement{Server: cfg.ServerName, Addr: addr}
		for _, r := range rooms.ListRooms() {
			a.Rooms = append(a.Rooms, discovery.Room{Code: r.Code, Players: r.Players, Open: r.Open})
		}
		return a
	}
}

// localIP picks the address other LAN hosts most likely reach us on.
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String()
		}
	}
	return "127.0.0.1"
}
