// Package room holds the server-side, ephemeral, authoritative record
// each pair of clients synchronizes through. Rooms are created lazily
// on first write and live until process restart.
package room

import (
	"errors"
	"sync"
	"time"

	"comaze/pkg/types"
)

var (
	ErrNoPosition = errors.New("no position recorded for room")
	ErrNoRoles    = errors.New("no roles assigned in room")
	ErrBadSlot    = errors.New("unknown player slot")
	ErrBadRole    = errors.New("unknown role")
	ErrBadPhase   = errors.New("unknown game phase")
)

// Position is the last reported grid coordinate of the navigator's
// token, stamped with the server's arrival time in unix milliseconds.
type Position struct {
	X         int
	Y         int
	Timestamp int64
}

// GameState is the shared phase/level pair. Initialized distinguishes
// an explicit write (or ready auto-start) from the read-side default.
type GameState struct {
	Phase        string
	CurrentLevel int
	Initialized  bool
}

// room is one mutual-exclusion domain: every operation on it runs
// under its own mutex, so concurrent handlers for the same code are
// linearized while different rooms never contend.
type room struct {
	mu      sync.Mutex
	pos     Position
	hasPos  bool
	roles   map[string]string
	state   GameState
	players map[string]int64
	ready   map[string]int64
}

func newRoom() *room {
	return &room{
		roles:   make(map[string]string),
		players: make(map[string]int64),
		ready:   make(map[string]int64),
	}
}

// Store maps room codes to rooms. The outer lock only guards the map;
// per-room state is guarded by the room's own mutex.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*room
	now   func() time.Time
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*room),
		now:   time.Now,
	}
}

// NewStoreWithClock is for tests that need deterministic timestamps.
func NewStoreWithClock(now func() time.Time) *Store {
	s := NewStore()
	s.now = now
	return s
}

// ensure returns the room for code, creating it on first use.
func (s *Store) ensure(code string) *room {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		r = newRoom()
		s.rooms[code] = r
	}
	return r
}

// get returns the room for code without creating it. Reads on a room
// nobody has written to must not leak an empty room into the map.
func (s *Store) get(code string) (*room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[code]
	return r, ok
}

func (s *Store) stamp() int64 {
	return s.now().UnixMilli()
}

// SetPosition unconditionally overwrites the shared position. Last
// write wins by arrival order; only the navigator slot is expected to
// write, so no cross-writer ordering is attempted.
func (s *Store) SetPosition(code string, x, y int) Position {
	r := s.ensure(code)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos = Position{X: x, Y: y, Timestamp: s.stamp()}
	r.hasPos = true
	return r.pos
}

// Position returns the latest stored position, or ErrNoPosition if no
// write has ever occurred for the room.
func (s *Store) Position(code string) (Position, error) {
	r, ok := s.get(code)
	if !ok {
		return Position{}, ErrNoPosition
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasPos {
		return Position{}, ErrNoPosition
	}
	return r.pos, nil
}

// SetRole records the requested role for slot and unconditionally
// forces the other slot to the complementary role, discarding whatever
// it held. The last role-setting call is authoritative for both slots;
// the protocol relies on only the creator calling this.
func (s *Store) SetRole(code, slot, role string) (map[string]string, error) {
	if !types.ValidSlot(slot) {
		return nil, ErrBadSlot
	}
	if !types.ValidRole(role) {
		return nil, ErrBadRole
	}
	r := s.ensure(code)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[slot] = role
	r.roles[types.OtherSlot(slot)] = types.OtherRole(role)
	return copyRoles(r.roles), nil
}

// Roles returns the current role mapping, possibly empty.
func (s *Store) Roles(code string) map[string]string {
	r, ok := s.get(code)
	if !ok {
		return map[string]string{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyRoles(r.roles)
}

// SwitchRoles swaps the two slots' roles. Fails if no roles exist yet.
func (s *Store) SwitchRoles(code string) (map[string]string, error) {
	r, ok := s.get(code)
	if !ok {
		return nil, ErrNoRoles
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.roles) == 0 {
		return nil, ErrNoRoles
	}
	r.roles[types.PlayerOne], r.roles[types.PlayerTwo] =
		r.roles[types.PlayerTwo], r.roles[types.PlayerOne]
	return copyRoles(r.roles), nil
}

// SetGameState unconditionally overwrites the shared phase and level.
func (s *Store) SetGameState(code, phase string, level int) (GameState, error) {
	switch phase {
	case types.PhasePlaying, types.PhaseLevelComplete, types.PhaseEnded:
	default:
		return GameState{}, ErrBadPhase
	}
	r := s.ensure(code)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = GameState{Phase: phase, CurrentLevel: level, Initialized: true}
	return r.state, nil
}

// GameState returns the last written state, or the {playing,1} default
// with Initialized false when nothing has been written yet. Readers
// must treat the default as "not yet initialized", not as a live game.
func (s *Store) GameState(code string) GameState {
	def := GameState{Phase: types.PhasePlaying, CurrentLevel: 1}
	r, ok := s.get(code)
	if !ok {
		return def
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.Initialized {
		return def
	}
	return r.state
}

// Join marks the slot present. Repeated joins refresh the timestamp.
func (s *Store) Join(code, slot string) (bool, map[string]int64, error) {
	if !types.ValidSlot(slot) {
		return false, nil, ErrBadSlot
	}
	r := s.ensure(code)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[slot] = s.stamp()
	return bothMarked(r.players), copyStamps(r.players), nil
}

// Status reports presence. Exists is false until someone has written
// under the code; that is the common steady state before a room forms.
func (s *Store) Status(code string) (exists, bothJoined bool, players map[string]int64) {
	r, ok := s.get(code)
	if !ok {
		return false, false, map[string]int64{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return true, bothMarked(r.players), copyStamps(r.players)
}

// Ready marks the slot ready. When both slots are ready, the game
// state auto-transitions to {playing, 1}: this is what starts a level
// on both clients "simultaneously" without any peer-to-peer channel.
func (s *Store) Ready(code, slot string) (bool, map[string]int64, error) {
	if !types.ValidSlot(slot) {
		return false, nil, ErrBadSlot
	}
	r := s.ensure(code)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready[slot] = s.stamp()
	both := bothMarked(r.ready)
	if both {
		r.state = GameState{Phase: types.PhasePlaying, CurrentLevel: 1, Initialized: true}
	}
	return both, copyStamps(r.ready), nil
}

// ReadyStatus reports readiness without side effects.
func (s *Store) ReadyStatus(code string) (bool, map[string]int64) {
	r, ok := s.get(code)
	if !ok {
		return false, map[string]int64{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return bothMarked(r.ready), copyStamps(r.ready)
}

func bothMarked(m map[string]int64) bool {
	_, p1 := m[types.PlayerOne]
	_, p2 := m[types.PlayerTwo]
	return p1 && p2
}

func copyRoles(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyStamps(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
