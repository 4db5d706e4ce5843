package room

import (
	"crypto/rand"
	"log"
	"math/big"
	"sort"
	"sync"
)

// RoomInfo is returned by the API for the server list.
type RoomInfo struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
	Phase   string `json:"phase"`
	Open    bool   `json:"open"`
}

// Manager holds multiple rooms by code. Rooms are created on first join or via CreateRoom,
// and removed when the last player leaves.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	cfg   Config
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
		cfg:   cfg,
	}
}

// GetOrCreateRoom returns the room for the given code, creating it if needed.
func (m *Manager) GetOrCreateRoom(code string) *Room {
	if code == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[code]; ok {
		return r
	}
	return m.startLocked(code)
}

// Get returns an existing room.
func (m *Manager) Get(code string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[code]
	return r, ok
}

func (m *Manager) startLocked(code string) *Room {
	cfg := m.cfg
	cfg.Rand = nil
	if cfg.Logger != nil {
		cfg.Logger = log.New(cfg.Logger.Writer(), "[room "+code+"] ", cfg.Logger.Flags())
	}
	r := New(code, cfg)
	r.OnEmpty = func(c string) {
		m.removeRoom(c)
	}
	m.rooms[code] = r
	go r.Run()
	return r
}

func (m *Manager) removeRoom(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[code]; ok {
		r.Stop()
		delete(m.rooms, code)
	}
}

const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CreateRoom generates a unique 6-char code, creates the room, and returns the code.
func (m *Manager) CreateRoom() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		code := generateCode(6)
		if _, exists := m.rooms[code]; exists {
			continue
		}
		m.startLocked(code)
		return code
	}
}

// ListRooms returns all active rooms sorted by code.
func (m *Manager) ListRooms() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Close stops every room.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, r := range m.rooms {
		r.Stop()
		delete(m.rooms, code)
	}
}

func generateCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, max)
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}
