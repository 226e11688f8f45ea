package client

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"comaze/internal/config"
	"comaze/internal/maze"
	"comaze/internal/session"
	"comaze/pkg/types"
)

// Syncer reconciles the local session state machine against the room
// server. The UI pushes intents (create, join, role choice, moves) and
// receives events; everything partner-driven arrives through the
// phase-scoped polling loops.
//
// OnEvent and OnPosition are invoked from poller goroutines as well as
// from intent calls; set them before Start and make them fast.
type Syncer struct {
	id  uuid.UUID
	api *API
	cfg config.Client
	log *zap.Logger

	OnEvent    func(evt session.Event, st session.State)
	OnPosition func(p maze.Point)

	mu            sync.Mutex
	state         session.State
	partnerPos    maze.Point
	hasPartnerPos bool

	ctx context.Context

	pollMu  sync.Mutex
	pollers []*Poller
}

func NewSyncer(api *API, cfg config.Client, log *zap.Logger) *Syncer {
	id := uuid.New()
	return &Syncer{
		id:    id,
		api:   api,
		cfg:   cfg,
		log:   log.With(zap.String("client", id.String())),
		state: session.NewState(),
	}
}

// Start binds the syncer to a context; all pollers inherit it.
func (s *Syncer) Start(ctx context.Context) {
	s.ctx = ctx
}

// Close stops all polling.
func (s *Syncer) Close() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	s.stopPollersLocked()
}

// State returns a snapshot of the session state.
func (s *Syncer) State() session.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PartnerPosition returns the last observed shared token position.
func (s *Syncer) PartnerPosition() (maze.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partnerPos, s.hasPartnerPos
}

// GenerateRoomCode draws a 4-digit numeric room code, carried in the
// shared link so the second browser can address the same room.
func GenerateRoomCode() (string, error) {
	const digits = "0123456789"
	code := make([]byte, 4)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		code[i] = digits[n.Int64()]
	}
	return string(code), nil
}

// dispatch runs a command through the state machine and, on a phase
// change, swaps the poller set to the new phase's. Poller swapping is
// asynchronous so a tick may dispatch without waiting on its own stop.
func (s *Syncer) dispatch(cmd session.Command) error {
	s.mu.Lock()
	before := s.state.Phase
	evts, next, err := session.Apply(s.state, cmd)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = next
	if before != next.Phase {
		// Forget the partner token between phases.
		s.hasPartnerPos = false
	}
	s.mu.Unlock()

	for _, e := range evts {
		s.log.Debug("session event", zap.String("event", string(e.Type)))
		if s.OnEvent != nil {
			s.OnEvent(e, next)
		}
	}
	if before != next.Phase {
		go s.syncPollers()
	}
	return nil
}

// dispatchFromPoll swallows wrong-phase errors: a tick that lost the
// race against a phase change must not escalate.
func (s *Syncer) dispatchFromPoll(cmd session.Command) {
	if err := s.dispatch(cmd); err != nil && !errors.Is(err, session.ErrWrongPhase) {
		s.log.Warn("poll command rejected", zap.String("command", string(cmd.Type)), zap.Error(err))
	}
}

// syncPollers stops every running poller, then starts the set for the
// current phase. Always stop-then-start: a poller belonging to a phase
// the session has left may never fire again.
func (s *Syncer) syncPollers() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	s.stopPollersLocked()

	st := s.State()
	switch st.Phase {
	case session.PhaseRoomSetup:
		s.startPollerLocked(NewPoller("presence", s.cfg.StatusPollInterval, s.pollPresence))
	case session.PhaseRoleSelect:
		s.startPollerLocked(NewPoller("role-ready", s.cfg.StatusPollInterval, s.pollRoleReady))
	case session.PhasePlaying:
		// Only the guide polls position; the navigator is the sole writer.
		if st.Role == types.RoleGuide && !st.Solo() {
			s.startPollerLocked(NewPoller("position", s.cfg.PositionPollInterval, s.pollPosition))
		}
	case session.PhaseLevelComplete:
		if !st.Creator() {
			s.startPollerLocked(NewPoller("level", s.cfg.StatusPollInterval, s.pollLevel))
		}
	}
}

func (s *Syncer) startPollerLocked(p *Poller) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	p.Start(ctx)
	s.pollers = append(s.pollers, p)
	s.log.Debug("poller started", zap.String("poller", p.Name()))
}

func (s *Syncer) stopPollersLocked() {
	for _, p := range s.pollers {
		p.Stop()
		s.log.Debug("poller stopped", zap.String("poller", p.Name()))
	}
	s.pollers = nil
}

// Intents, pushed by the UI.

// CreateRoom generates a room code, marks the creator slot present and
// moves the session into room setup. Returns the shareable code.
func (s *Syncer) CreateRoom(ctx context.Context) (string, error) {
	code, err := GenerateRoomCode()
	if err != nil {
		return "", err
	}
	if _, err := s.api.Join(ctx, code, types.PlayerOne); err != nil {
		return "", err
	}
	if err := s.dispatch(session.Command{Type: session.CmdCreateRoom, RoomCode: code}); err != nil {
		return "", err
	}
	s.log.Info("room created", zap.String("room", code))
	return code, nil
}

// JoinRoom marks the joiner slot present in an existing room.
func (s *Syncer) JoinRoom(ctx context.Context, code string) error {
	if _, err := s.api.Join(ctx, code, types.PlayerTwo); err != nil {
		return err
	}
	if err := s.dispatch(session.Command{Type: session.CmdJoinRoom, RoomCode: code}); err != nil {
		return err
	}
	s.log.Info("room joined", zap.String("room", code))
	return nil
}

// StartSolo begins the single-player legacy mode with a local seed.
func (s *Syncer) StartSolo(seed int64) error {
	return s.dispatch(session.Command{Type: session.CmdStartSolo, Seed: seed})
}

// ChooseRole is the creator's role pick. The server assigns the
// complementary role to the other slot; the joiner adopts it through
// its role poll. The ready write may trail the role write: partial
// application is a normal transient state, healed by the role poll.
func (s *Syncer) ChooseRole(ctx context.Context, role string) error {
	st := s.State()
	if _, err := s.api.SetRole(ctx, st.RoomCode, st.Slot, role); err != nil {
		return err
	}
	if err := s.dispatch(session.Command{Type: session.CmdAdoptRole, Role: role}); err != nil {
		return err
	}
	if _, err := s.api.Ready(ctx, st.RoomCode, st.Slot); err != nil {
		s.log.Warn("ready write failed, will retry on next poll", zap.Error(err))
	}
	return nil
}

// SwitchRoles swaps both slots' roles on the server, then adopts the
// local side of the swap.
func (s *Syncer) SwitchRoles(ctx context.Context) error {
	st := s.State()
	roles, err := s.api.SwitchRoles(ctx, st.RoomCode)
	if err != nil {
		return err
	}
	if role := roles[st.Slot]; role != "" && role != st.Role {
		return s.dispatch(session.Command{Type: session.CmdAdoptRole, Role: role})
	}
	return nil
}

// MoveTo pushes the navigator's token position to the room. Transient
// failures are the caller's to ignore; the next move rewrites anyway.
func (s *Syncer) MoveTo(ctx context.Context, p maze.Point) error {
	st := s.State()
	if st.Solo() {
		return nil
	}
	return s.api.PostPosition(ctx, st.RoomCode, p.X, p.Y)
}

// ReachExit reports the token on the end cell. In a room the shared
// phase is advanced so the partner observes the completion; solo mode
// just ends.
func (s *Syncer) ReachExit(ctx context.Context) error {
	st := s.State()
	if err := s.dispatch(session.Command{Type: session.CmdReachExit}); err != nil {
		return err
	}
	if !st.Solo() {
		if err := s.api.SetGameState(ctx, st.RoomCode, types.PhaseLevelComplete, st.Level); err != nil {
			s.log.Warn("level-complete write failed", zap.Error(err))
		}
	}
	return nil
}

// NextLevel is the creator's advance intent: bump the shared level and
// start playing locally. The joiner follows through its level poll.
func (s *Syncer) NextLevel(ctx context.Context) error {
	st := s.State()
	level := st.Level + 1
	if !st.Solo() {
		if err := s.api.SetGameState(ctx, st.RoomCode, types.PhasePlaying, level); err != nil {
			return err
		}
	}
	return s.dispatch(session.Command{Type: session.CmdBeginLevel, Level: level})
}

// Restart resets the session to the pre-room state and stops polling.
func (s *Syncer) Restart() error {
	return s.dispatch(session.Command{Type: session.CmdRestart})
}

// Polling loops. Each tick works on a state snapshot taken up front,
// does its network reads without holding any lock, and funnels every
// observation through dispatch, which re-validates against the phase
// current at apply time.

func (s *Syncer) pollPresence(ctx context.Context) {
	st := s.State()
	status, err := s.api.RoomStatus(ctx, st.RoomCode)
	if err != nil {
		s.log.Debug("room-status poll failed", zap.Error(err))
		return
	}
	if status.BothPlayersJoined && !st.PartnerJoined {
		s.dispatchFromPoll(session.Command{Type: session.CmdPartnerJoined})
	}
	if st.Creator() {
		if status.BothPlayersJoined {
			s.dispatchFromPoll(session.Command{Type: session.CmdEnterRoleSelect})
		}
		return
	}
	// A joiner moves on as soon as any role assignment is visible.
	roles, err := s.api.Roles(ctx, st.RoomCode)
	if err != nil {
		s.log.Debug("role poll failed", zap.Error(err))
		return
	}
	if len(roles) > 0 {
		s.dispatchFromPoll(session.Command{Type: session.CmdEnterRoleSelect})
	}
}

func (s *Syncer) pollRoleReady(ctx context.Context) {
	st := s.State()
	roles, err := s.api.Roles(ctx, st.RoomCode)
	if err != nil {
		s.log.Debug("role poll failed", zap.Error(err))
		return
	}
	if role := roles[st.Slot]; role != "" && role != st.Role {
		s.dispatchFromPoll(session.Command{Type: session.CmdAdoptRole, Role: role})
		st = s.State()
	}

	// With a role adopted, make sure our ready mark is on the server.
	// This also retries a ready write that failed during ChooseRole.
	if st.Role != "" {
		ready, err := s.api.ReadyStatus(ctx, st.RoomCode)
		if err == nil {
			if _, ok := ready.PlayersReady[st.Slot]; !ok {
				if _, err := s.api.Ready(ctx, st.RoomCode, st.Slot); err != nil {
					s.log.Debug("ready write failed", zap.Error(err))
				}
			}
		}
	}

	gs, err := s.api.GameState(ctx, st.RoomCode)
	if err != nil {
		s.log.Debug("game-state poll failed", zap.Error(err))
		return
	}
	// The uninitialized default also reads {playing,1}; only a genuine
	// write may start the level.
	if gs.Initialized && gs.Phase == types.PhasePlaying && st.Role != "" {
		s.dispatchFromPoll(session.Command{Type: session.CmdBeginLevel, Level: gs.CurrentLevel})
	}
}

func (s *Syncer) pollPosition(ctx context.Context) {
	st := s.State()
	pos, err := s.api.Position(ctx, st.RoomCode)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Debug("position poll failed", zap.Error(err))
		}
		return
	}
	p := maze.Point{X: pos.X, Y: pos.Y}

	s.mu.Lock()
	changed := !s.hasPartnerPos || s.partnerPos != p
	if changed {
		s.partnerPos = p
		s.hasPartnerPos = true
	}
	s.mu.Unlock()
	if !changed {
		return
	}

	if s.OnPosition != nil {
		s.OnPosition(p)
	}
	// The guide sees the whole maze, so it detects the win locally the
	// moment the token lands on the end cell.
	size := maze.SizeFor(st.Level)
	if p.X == size-1 && p.Y == size-1 {
		s.dispatchFromPoll(session.Command{Type: session.CmdObserveComplete})
	}
}

func (s *Syncer) pollLevel(ctx context.Context) {
	st := s.State()
	roles, err := s.api.Roles(ctx, st.RoomCode)
	if err == nil {
		// Roles may have been switched between levels.
		if role := roles[st.Slot]; role != "" && role != st.Role {
			s.dispatchFromPoll(session.Command{Type: session.CmdAdoptRole, Role: role})
			st = s.State()
		}
	}
	gs, err := s.api.GameState(ctx, st.RoomCode)
	if err != nil {
		s.log.Debug("game-state poll failed", zap.Error(err))
		return
	}
	if gs.Initialized && gs.Phase == types.PhasePlaying && gs.CurrentLevel > st.Level {
		s.dispatchFromPoll(session.Command{Type: session.CmdBeginLevel, Level: gs.CurrentLevel})
	}
}
