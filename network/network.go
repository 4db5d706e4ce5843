package network

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Droledami/kubblin/protocol"
	"github.com/Droledami/kubblin/room"
)

const (
	readLimit    = 1 << 20 // 1MB
	pongWait     = 60 * time.Second
	pingEvery    = 25 * time.Second
	writeWait    = 10 * time.Second
	helloWait    = 10 * time.Second
	sendBuffered = 64
)

var (
	errClosed = errors.New("network: connection closed")
	errSlow   = errors.New("network: send buffer full")
)

type Options struct {
	// OriginAllowlist limits websocket and CORS origins. Empty allows all.
	OriginAllowlist []string
	DefaultCodec    protocol.Codec
	Logger          *log.Logger
}

type Server struct {
	rooms    *room.Manager
	upgrader websocket.Upgrader
	codec    protocol.Codec
	allow    map[string]struct{}
	log      *log.Logger
}

func NewServer(rooms *room.Manager, opts Options) *Server {
	s := &Server{
		rooms: rooms,
		codec: opts.DefaultCodec,
		allow: make(map[string]struct{}),
		log:   opts.Logger,
	}
	if s.codec == nil {
		s.codec = protocol.JSON
	}
	if s.log == nil {
		s.log = log.New(log.Writer(), "[net] ", log.LstdFlags)
	}
	for _, o := range opts.OriginAllowlist {
		if o != "" {
			s.allow[o] = struct{}{}
		}
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.originAllowed}
	return s
}

func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.allow) == 0 {
		return true
	}
	_, ok := s.allow[origin]
	return ok
}

// Handler serves /ws, /rooms and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.ServeWS)
	mux.HandleFunc("/rooms", s.serveRooms)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return s.cors(mux)
}

func (s *Server) serveRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(s.rooms.ListRooms())
	case http.MethodPost:
		code := s.rooms.CreateRoom()
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": code})
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.originAllowed(r) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServeWS upgrades the request, waits for hello, seats the player in the
// room named by ?room= and pumps frames into the room until disconnect.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("room")
	if code == "" {
		http.Error(w, "missing room", http.StatusBadRequest)
		return
	}
	codec := s.codec
	if name := r.URL.Query().Get("codec"); name != "" {
		c, err := protocol.CodecByName(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		codec = c
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("upgrade:", err)
		return
	}
	c := newConn(ws, codec)
	go c.writeLoop()
	defer c.Close()

	ws.SetReadLimit(readLimit)
	hello, ok := s.readHello(c)
	if !ok {
		return
	}

	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	rm := s.rooms.GetOrCreateRoom(code)
	reply := make(chan room.JoinResult, 1)
	if !rm.Submit(room.Join{Conn: c, Codec: codec, Name: hello.Name, Reply: reply}) {
		c.sendError(protocol.ErrCodeNoRoom, "room closed")
		return
	}
	var res room.JoinResult
	select {
	case res = <-reply:
	case <-rm.Done():
		return
	}
	if res.Err != nil {
		s.log.Printf("conn %s: join %s: %v", c.id, code, res.Err)
		return
	}
	s.log.Printf("conn %s: player %d (%s) in room %s via %s", c.id, res.PlayerID, hello.Name, code, codec.Name())

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Printf("conn %s: read: %v", c.id, err)
			}
			break
		}
		env, err := protocol.DecodeEnvelopeWith(codec, msg)
		if err != nil {
			s.log.Printf("conn %s: %v", c.id, err)
			c.sendError(protocol.ErrCodeBadMessage, err.Error())
			continue
		}
		if !rm.Submit(room.Inbound{PlayerID: res.PlayerID, Env: env}) {
			break
		}
	}
	rm.Submit(room.Leave{PlayerID: res.PlayerID})
}

func (s *Server) readHello(c *conn) (protocol.Hello, bool) {
	_ = c.ws.SetReadDeadline(time.Now().Add(helloWait))
	_, msg, err := c.ws.ReadMessage()
	if err != nil {
		s.log.Printf("conn %s: no hello: %v", c.id, err)
		return protocol.Hello{}, false
	}
	env, err := protocol.DecodeEnvelopeWith(c.codec, msg)
	if err != nil || env.T != protocol.MsgHello {
		c.sendError(protocol.ErrCodeBadHello, "first frame must be hello")
		return protocol.Hello{}, false
	}
	hello, err := protocol.DecodePayloadWith[protocol.Hello](c.codec, env)
	if err != nil {
		c.sendError(protocol.ErrCodeBadHello, err.Error())
		return protocol.Hello{}, false
	}
	if hello.V != protocol.Version {
		c.sendError(protocol.ErrCodeVersion, "unsupported protocol version")
		return protocol.Hello{}, false
	}
	return hello, true
}

// conn is a room.Conn over a websocket. Sends are queued and written by
// one goroutine; a full queue fails the send and the room drops the player.
type conn struct {
	id    string
	ws    *websocket.Conn
	codec protocol.Codec
	out   chan []byte
	done  chan struct{}
	once  sync.Once
}

func newConn(ws *websocket.Conn, codec protocol.Codec) *conn {
	return &conn{
		id:    uuid.NewString(),
		ws:    ws,
		codec: codec,
		out:   make(chan []byte, sendBuffered),
		done:  make(chan struct{}),
	}
}

func (c *conn) Send(b []byte) error {
	select {
	case <-c.done:
		return errClosed
	default:
	}
	select {
	case c.out <- b:
		return nil
	default:
		return errSlow
	}
}

func (c *conn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *conn) sendError(code, message string) {
	b, err := protocol.EncodeWith(c.codec, protocol.Message{
		T:       protocol.MsgError,
		Payload: protocol.Error{Code: code, Message: message},
	})
	if err == nil {
		_ = c.Send(b)
	}
}

func (c *conn) messageType() int {
	if c.codec.Binary() {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

func (c *conn) writeLoop() {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case b := <-c.out:
			if err := c.write(c.messageType(), b); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			// flush what the room queued before closing, e.g. a ROOM_FULL error
			for {
				select {
				case b := <-c.out:
					if err := c.write(c.messageType(), b); err != nil {
						return
					}
				default:
					_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

func (c *conn) write(mt int, b []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(mt, b)
}
