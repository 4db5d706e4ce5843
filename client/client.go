package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"github.com/Droledami/kubblin/effects"
	"github.com/Droledami/kubblin/game"
	"github.com/Droledami/kubblin/protocol"
)

const writeTimeout = 5 * time.Second

var ErrClosed = errors.New("client: closed")

type Options struct {
	Name      string
	Codec     protocol.Codec
	Presenter Presenter
	Logger    *log.Logger
}

// Client is a Local driven by a websocket connection. Frames, timed
// effects and calls made through Do all run on the Run goroutine.
type Client struct {
	conn  *websocket.Conn
	codec protocol.Codec
	log   *log.Logger
	inbox chan func()
	done  chan struct{}
	local *Local
}

// Dial connects to the server at base (http, https, ws or wss), asks for
// room and sends hello.
func Dial(ctx context.Context, base, room string, opts Options) (*Client, error) {
	if opts.Codec == nil {
		opts.Codec = protocol.JSON
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	u, err := roomURL(base, room, opts.Codec)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.Dial(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", u, err)
	}
	conn.SetReadLimit(1 << 20)

	c := &Client{
		conn:  conn,
		codec: opts.Codec,
		log:   opts.Logger,
		inbox: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	c.local = NewLocal(c, opts.Presenter, effects.New(effects.Real(), c.post), opts.Logger)
	if b, ok := opts.Presenter.(*Bot); ok {
		b.Attach(c.local)
	}

	err = c.Send(protocol.Message{
		T:       protocol.MsgHello,
		To:      protocol.Authority(),
		Payload: protocol.Hello{V: protocol.Version, Name: opts.Name},
	})
	if err != nil {
		_ = conn.Close(websocket.StatusInternalError, "hello failed")
		return nil, err
	}
	return c, nil
}

func roomURL(base, room string, codec protocol.Codec) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("client: server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("client: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	q := u.Query()
	q.Set("room", room)
	q.Set("codec", codec.Name())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Send implements Sender.
func (c *Client) Send(m protocol.Message) error {
	b, err := protocol.EncodeWith(c.codec, m)
	if err != nil {
		return err
	}
	typ := websocket.MessageText
	if c.codec.Binary() {
		typ = websocket.MessageBinary
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, typ, b)
}

func (c *Client) post(fn func()) {
	select {
	case c.inbox <- fn:
	case <-c.done:
	}
}

// Do runs fn on the client goroutine. It returns ErrClosed once Run has
// returned.
func (c *Client) Do(fn func(*Local)) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	c.post(func() { fn(c.local) })
	return nil
}

func (c *Client) SetReady(ready bool) error {
	return c.Do(func(l *Local) { l.SetReady(ready) })
}

func (c *Client) Click(cell game.Cell) error {
	return c.Do(func(l *Local) { l.Click(cell) })
}

func (c *Client) Replay() error {
	return c.Do(func(l *Local) { l.Replay() })
}

func (c *Client) ReportPosition(pos game.Vec3) error {
	return c.Do(func(l *Local) { l.ReportPosition(pos) })
}

func (c *Client) Collide(other int) error {
	return c.Do(func(l *Local) { l.Collide(other) })
}

// Run reads frames until the connection or ctx ends. A normal close by the
// server returns nil.
func (c *Client) Run(ctx context.Context) error {
	defer func() {
		close(c.done)
		c.local.Close()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan protocol.Envelope)
	errc := make(chan error, 1)
	go func() {
		for {
			_, b, err := c.conn.Read(ctx)
			if err != nil {
				errc <- err
				return
			}
			env, err := protocol.DecodeEnvelopeWith(c.codec, b)
			if err != nil {
				c.log.Printf("%v", err)
				continue
			}
			select {
			case frames <- env:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case env := <-frames:
			if err := c.local.Handle(c.codec, env); err != nil {
				c.log.Printf("handle %s: %v", env.T, err)
			}
		case fn := <-c.inbox:
			fn()
		case err := <-errc:
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
