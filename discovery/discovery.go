// Package discovery announces running rooms on the LAN over IPv4
// multicast and collects the announcements of other servers.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sort"
	"sync"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/Droledami/kubblin/protocol"
)

const (
	DefaultGroup  = "239.192.0.4:9193"
	maxPacketSize = 8192
	// Lifetime is how long a server stays listed without a fresh announcement.
	Lifetime = 5 * time.Second
)

type Room struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
	Open    bool   `json:"open"`
}

// Announcement is what one server multicasts every period.
type Announcement struct {
	Server string `json:"server"`
	// Addr is the HTTP address clients dial, host:port.
	Addr  string `json:"addr"`
	Rooms []Room `json:"rooms"`
}

func encode(a Announcement) ([]byte, error) {
	return protocol.Encode(protocol.MsgAnnounce, a)
}

func decode(b []byte) (Announcement, error) {
	env, err := protocol.DecodeEnvelope(b)
	if err != nil {
		return Announcement{}, err
	}
	if env.T != protocol.MsgAnnounce {
		return Announcement{}, fmt.Errorf("discovery: unexpected %q", env.T)
	}
	return protocol.DecodePayload[Announcement](env)
}

// Announcer multicasts the announcement returned by its source.
type Announcer struct {
	conn   *net.UDPConn
	group  *net.UDPAddr
	every  time.Duration
	source func() Announcement
	log    *log.Logger
}

func NewAnnouncer(group string, iface *net.Interface, every time.Duration, source func() Announcement, logger *log.Logger) (*Announcer, error) {
	addr, err := net.ResolveUDPAddr("udp4", group)
	if err != nil {
		return nil, fmt.Errorf("discovery: group %s: %w", group, err)
	}
	if !addr.IP.IsMulticast() {
		return nil, fmt.Errorf("discovery: %s is not a multicast address", group)
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	if err != nil {
		return nil, fmt.Errorf("discovery: listen: %w", err)
	}
	p := ipv4.NewPacketConn(conn)
	if err := p.SetMulticastTTL(1); err != nil {
		conn.Close()
		return nil, fmt.Errorf("discovery: ttl: %w", err)
	}
	if err := p.SetMulticastLoopback(true); err != nil {
		conn.Close()
		return nil, fmt.Errorf("discovery: loopback: %w", err)
	}
	if iface != nil {
		if err := p.SetMulticastInterface(iface); err != nil {
			conn.Close()
			return nil, fmt.Errorf("discovery: interface %s: %w", iface.Name, err)
		}
	}
	if every <= 0 {
		every = 2 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Announcer{conn: conn, group: addr, every: every, source: source, log: logger}, nil
}

// Announce sends one announcement now.
func (a *Announcer) Announce() error {
	b, err := encode(a.source())
	if err != nil {
		return err
	}
	_, err = a.conn.WriteToUDP(b, a.group)
	return err
}

// Run announces immediately and then every period until ctx ends.
func (a *Announcer) Run(ctx context.Context) error {
	defer a.conn.Close()
	ticker := time.NewTicker(a.every)
	defer ticker.Stop()
	for {
		if err := a.Announce(); err != nil {
			a.log.Printf("announce: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Entry is a server seen on the LAN.
type Entry struct {
	Announcement
	From     string
	LastSeen time.Time
}

// Joinable lists the rooms of the entry that accept another player.
func (e Entry) Joinable() []Room {
	var out []Room
	for _, r := range e.Rooms {
		if r.Open {
			out = append(out, r)
		}
	}
	return out
}

// Browser tracks announcements. Servers silent for longer than Lifetime
// are dropped by Cleanup.
type Browser struct {
	mu       sync.Mutex
	servers  map[string]Entry
	lifetime time.Duration
	now      func() time.Time

	conn *net.UDPConn
	log  *log.Logger
}

func NewBrowser(lifetime time.Duration) *Browser {
	if lifetime <= 0 {
		lifetime = Lifetime
	}
	return &Browser{
		servers:  make(map[string]Entry),
		lifetime: lifetime,
		now:      time.Now,
		log:      log.Default(),
	}
}

// Listen joins the multicast group and returns a browser fed by it.
func Listen(group string, iface *net.Interface, logger *log.Logger) (*Browser, error) {
	addr, err := net.ResolveUDPAddr("udp4", group)
	if err != nil {
		return nil, fmt.Errorf("discovery: group %s: %w", group, err)
	}
	conn, err := net.ListenMulticastUDP("udp4", iface, addr)
	if err != nil {
		return nil, fmt.Errorf("discovery: join %s: %w", group, err)
	}
	if err := ipv4.NewPacketConn(conn).SetMulticastLoopback(true); err != nil {
		conn.Close()
		return nil, fmt.Errorf("discovery: loopback: %w", err)
	}
	b := NewBrowser(Lifetime)
	b.conn = conn
	if logger != nil {
		b.log = logger
	}
	return b, nil
}

// Run reads announcements until ctx ends.
func (b *Browser) Run(ctx context.Context) error {
	if b.conn == nil {
		return errors.New("discovery: browser has no connection")
	}
	go func() {
		<-ctx.Done()
		b.conn.Close()
	}()
	buf := make([]byte, maxPacketSize)
	for {
		n, src, err := b.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		a, err := decode(buf[:n])
		if err != nil {
			b.log.Printf("discovery: from %s: %v", src, err)
			continue
		}
		if b.Observe(a, src.IP.String()) {
			b.log.Printf("discovery: found %s at %s", a.Server, a.Addr)
		}
	}
}

// Observe records an announcement and reports whether its server is new.
func (b *Browser) Observe(a Announcement, from string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := from + "#" + a.Addr
	_, exists := b.servers[key]
	b.servers[key] = Entry{Announcement: a, From: from, LastSeen: b.now()}
	return !exists
}

// Cleanup drops silent servers and reports whether any were dropped.
func (b *Browser) Cleanup() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	changed := false
	for k, e := range b.servers {
		if now.Sub(e.LastSeen) > b.lifetime {
			delete(b.servers, k)
			changed = true
		}
	}
	return changed
}

// Servers returns the live servers ordered by name.
func (b *Browser) Servers() []Entry {
	b.Cleanup()
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, 0, len(b.servers))
	for _, e := range b.servers {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Server != out[j].Server {
			return out[i].Server < out[j].Server
		}
		return out[i].Addr < out[j].Addr
	})
	return out
}
