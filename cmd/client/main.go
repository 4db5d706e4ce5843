package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Droledami/kubblin/client"
	"github.com/Droledami/kubblin/discovery"
	"github.com/Droledami/kubblin/protocol"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	roomCode := flag.String("room", "", "room code to join")
	name := flag.String("name", "", "display name")
	codecName := flag.String("codec", "json", "wire codec: json or msgpack")
	auto := flag.Bool("auto", false, "ready up and play automatically")
	browse := flag.Duration("browse", 0, "listen for LAN servers for this long and exit")
	group := flag.String("group", discovery.DefaultGroup, "LAN announcement group")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.Ltime)

	if *browse > 0 {
		if err := browseLAN(*group, *browse, logger); err != nil {
			log.Fatal(err)
		}
		return
	}
	if *roomCode == "" {
		log.Fatal("-room is required")
	}
	codec, err := protocol.CodecByName(*codecName)
	if err != nil {
		log.Fatal(err)
	}

	var view client.Presenter = client.LogPresenter{Log: logger}
	if *auto {
		view = client.NewBot(view, nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, *server, *roomCode, client.Options{
		Name:      *name,
		Codec:     codec,
		Presenter: view,
		Logger:    logger,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}

func browseLAN(group string, d time.Duration, logger *log.Logger) error {
	b, err := discovery.Listen(group, nil, logger)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	if err := b.Run(ctx); err != nil {
		return err
	}
	servers := b.Servers()
	if len(servers) == 0 {
		fmt.Println("no servers found")
		return nil
	}
	for _, s := range servers {
		fmt.Printf("%s  http://%s\n", s.Server, s.Addr)
		for _, r := range s.Joinable() {
			fmt.Printf("  %s  %d/2\n", r.Code, r.Players)
		}
	}
	return nil
}
