package types

// Participant slots. A room holds exactly two: the creator takes
// PlayerOne, the joiner PlayerTwo, fixed for the session's lifetime.
const (
	PlayerOne = "player1"
	PlayerTwo = "player2"
)

// Roles. The navigator moves the token with restricted visibility; the
// guide sees the whole maze and talks.
const (
	RoleNavigator = "navigator"
	RoleGuide     = "guide"
)

// Game phases stored in a room's game state.
const (
	PhasePlaying       = "playing"
	PhaseLevelComplete = "level-complete"
	PhaseEnded         = "ended"
)

// ValidSlot reports whether s names a participant slot.
func ValidSlot(s string) bool {
	return s == PlayerOne || s == PlayerTwo
}

// ValidRole reports whether r names a playable role.
func ValidRole(r string) bool {
	return r == RoleNavigator || r == RoleGuide
}

// OtherSlot returns the complementary participant slot.
func OtherSlot(s string) string {
	if s == PlayerOne {
		return PlayerTwo
	}
	return PlayerOne
}

// OtherRole returns the complementary role.
func OtherRole(r string) string {
	if r == RoleNavigator {
		return RoleGuide
	}
	return RoleNavigator
}

// Client -> Server

// PositionRequest uses pointers so a missing field is distinguishable
// from an explicit zero coordinate.
type PositionRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

type RoleRequest struct {
	Role     string `json:"role"`
	PlayerID string `json:"playerId"`
}

type GameStateRequest struct {
	Phase        string `json:"phase"`
	CurrentLevel int    `json:"currentLevel"`
}

type JoinRequest struct {
	PlayerID string `json:"playerId"`
}

type ReadyRequest struct {
	PlayerID string `json:"playerId"`
}

// Server -> Client

type SuccessResponse struct {
	Success bool `json:"success"`
}

type PositionResponse struct {
	X         int   `json:"x"`
	Y         int   `json:"y"`
	Timestamp int64 `json:"timestamp"`
}

type RolesResponse struct {
	Roles map[string]string `json:"roles"`
}

// GameStateResponse carries Initialized so a poller can tell the
// default {playing,1} apart from a genuine first write.
type GameStateResponse struct {
	Phase        string `json:"phase"`
	CurrentLevel int    `json:"currentLevel"`
	Initialized  bool   `json:"initialized"`
}

type JoinResponse struct {
	Success           bool             `json:"success"`
	BothPlayersJoined bool             `json:"bothPlayersJoined"`
	Players           map[string]int64 `json:"players"`
}

type RoomStatusResponse struct {
	Exists            bool             `json:"exists"`
	BothPlayersJoined bool             `json:"bothPlayersJoined"`
	Players           map[string]int64 `json:"players"`
}

type ReadyResponse struct {
	Success          bool             `json:"success"`
	BothPlayersReady bool             `json:"bothPlayersReady"`
	PlayersReady     map[string]int64 `json:"playersReady"`
}

type ReadyStatusResponse struct {
	BothPlayersReady bool             `json:"bothPlayersReady"`
	PlayersReady     map[string]int64 `json:"playersReady"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
