// Package session models one client's progress through the cooperative
// game as a pure state machine. Apply never mutates its input; the
// syncer and the UI feed it commands and react to the emitted events.
package session

import (
	"errors"

	"comaze/internal/maze"
	"comaze/pkg/types"
)

var (
	ErrWrongPhase         = errors.New("command not valid in this phase")
	ErrNoRole             = errors.New("cannot start playing without a role")
	ErrBadRole            = errors.New("unknown role")
	ErrLevelRegression    = errors.New("level may not decrease")
	ErrUnsupportedCommand = errors.New("unsupported command")
)

type Phase string

const (
	PhaseReady         Phase = "ready"
	PhaseRoomSetup     Phase = "room-setup"
	PhaseRoleSelect    Phase = "role-select"
	PhasePlaying       Phase = "playing"
	PhaseLevelComplete Phase = "level-complete"
	PhaseEnded         Phase = "ended"
)

// State is one browser-tab's view of the game. The room is
// authoritative for role and phase; the state machine only tracks what
// this client has confirmed so far.
type State struct {
	Phase         Phase
	Slot          string // player1 for the creator, player2 for the joiner
	Role          string
	RoomCode      string
	Level         int
	Seed          int64
	PartnerJoined bool
}

// NewState returns the initial pre-room state.
func NewState() State {
	return State{Phase: PhaseReady}
}

// Creator reports whether this session created the room.
func (s State) Creator() bool { return s.Slot == types.PlayerOne }

// Solo reports whether the session runs the single-player legacy mode.
func (s State) Solo() bool { return s.RoomCode == "" }

type CommandType string

const (
	CmdCreateRoom      CommandType = "CreateRoom"
	CmdJoinRoom        CommandType = "JoinRoom"
	CmdStartSolo       CommandType = "StartSolo"
	CmdPartnerJoined   CommandType = "PartnerJoined"
	CmdEnterRoleSelect CommandType = "EnterRoleSelect"
	CmdAdoptRole       CommandType = "AdoptRole"
	CmdBeginLevel      CommandType = "BeginLevel"
	CmdReachExit       CommandType = "ReachExit"
	CmdObserveComplete CommandType = "ObserveComplete"
	CmdRestart         CommandType = "Restart"
)

type Command struct {
	Type     CommandType
	RoomCode string
	Role     string
	Level    int
	Seed     int64
}

type EventType string

const (
	EvtRoomSetup      EventType = "RoomSetup"
	EvtPartnerJoined  EventType = "PartnerJoined"
	EvtRoleSelect     EventType = "RoleSelect"
	EvtRoleAdopted    EventType = "RoleAdopted"
	EvtLevelStarted   EventType = "LevelStarted"
	EvtLevelCompleted EventType = "LevelCompleted"
	EvtGameEnded      EventType = "GameEnded"
	EvtReset          EventType = "Reset"
)

type Event struct {
	Type  EventType
	Role  string
	Level int
}

// Apply runs one command against the state, returning the events it
// produced and the successor state. On error the input state is
// returned unchanged.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdCreateRoom:
		if s.Phase != PhaseReady {
			return nil, s, ErrWrongPhase
		}
		next := s
		next.Phase = PhaseRoomSetup
		next.Slot = types.PlayerOne
		next.RoomCode = cmd.RoomCode
		return []Event{{Type: EvtRoomSetup}}, next, nil

	case CmdJoinRoom:
		if s.Phase != PhaseReady {
			return nil, s, ErrWrongPhase
		}
		next := s
		next.Phase = PhaseRoomSetup
		next.Slot = types.PlayerTwo
		next.RoomCode = cmd.RoomCode
		return []Event{{Type: EvtRoomSetup}}, next, nil

	case CmdStartSolo:
		if s.Phase != PhaseReady {
			return nil, s, ErrWrongPhase
		}
		next := s
		next.Phase = PhasePlaying
		next.Level = 1
		next.Seed = cmd.Seed
		return []Event{{Type: EvtLevelStarted, Level: 1}}, next, nil

	case CmdPartnerJoined:
		if s.Phase != PhaseRoomSetup {
			return nil, s, ErrWrongPhase
		}
		if s.PartnerJoined {
			// Polling may deliver the observation more than once.
			return nil, s, nil
		}
		next := s
		next.PartnerJoined = true
		return []Event{{Type: EvtPartnerJoined}}, next, nil

	case CmdEnterRoleSelect:
		if s.Phase != PhaseRoomSetup {
			return nil, s, ErrWrongPhase
		}
		next := s
		next.Phase = PhaseRoleSelect
		return []Event{{Type: EvtRoleSelect}}, next, nil

	case CmdAdoptRole:
		// Also legal between levels: the creator may switch roles while
		// the room sits at level-complete.
		if s.Phase != PhaseRoleSelect && s.Phase != PhaseLevelComplete {
			return nil, s, ErrWrongPhase
		}
		if !types.ValidRole(cmd.Role) {
			return nil, s, ErrBadRole
		}
		next := s
		next.Role = cmd.Role
		return []Event{{Type: EvtRoleAdopted, Role: cmd.Role}}, next, nil

	case CmdBeginLevel:
		if s.Phase != PhaseRoleSelect && s.Phase != PhaseLevelComplete {
			return nil, s, ErrWrongPhase
		}
		if s.Role == "" {
			return nil, s, ErrNoRole
		}
		if cmd.Level < s.Level {
			return nil, s, ErrLevelRegression
		}
		next := s
		next.Phase = PhasePlaying
		next.Level = cmd.Level
		next.Seed = maze.SeedFor(s.RoomCode, cmd.Level)
		return []Event{{Type: EvtLevelStarted, Level: cmd.Level}}, next, nil

	case CmdReachExit:
		if s.Phase != PhasePlaying {
			return nil, s, ErrWrongPhase
		}
		next := s
		if s.Solo() {
			next.Phase = PhaseEnded
			return []Event{{Type: EvtGameEnded}}, next, nil
		}
		next.Phase = PhaseLevelComplete
		return []Event{{Type: EvtLevelCompleted, Level: s.Level}}, next, nil

	case CmdObserveComplete:
		if s.Phase != PhasePlaying {
			return nil, s, ErrWrongPhase
		}
		next := s
		next.Phase = PhaseLevelComplete
		return []Event{{Type: EvtLevelCompleted, Level: s.Level}}, next, nil

	case CmdRestart:
		next := NewState()
		return []Event{{Type: EvtReset}}, next, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}
