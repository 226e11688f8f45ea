package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"comaze/internal/config"
	"comaze/internal/httpapi"
	"comaze/internal/maze"
	"comaze/internal/room"
	"comaze/internal/session"
	"comaze/pkg/types"
)

func testConfig() config.Client {
	return config.Client{
		StatusPollInterval:   20 * time.Millisecond,
		PositionPollInterval: 10 * time.Millisecond,
		RequestTimeout:       500 * time.Millisecond,
	}
}

func newPair(t *testing.T) (*Syncer, *Syncer, context.Context) {
	t.Helper()
	srv := httptest.NewServer(httpapi.SetupRoutes(room.NewStore(), zap.NewNop()))
	t.Cleanup(srv.Close)

	cfg := testConfig()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	creator := NewSyncer(NewAPI(srv.URL, cfg.RequestTimeout), cfg, zap.NewNop())
	joiner := NewSyncer(NewAPI(srv.URL, cfg.RequestTimeout), cfg, zap.NewNop())
	creator.Start(ctx)
	joiner.Start(ctx)
	t.Cleanup(creator.Close)
	t.Cleanup(joiner.Close)
	return creator, joiner, ctx
}

func phaseIs(s *Syncer, p session.Phase) func() bool {
	return func() bool { return s.State().Phase == p }
}

const waitFor = 3 * time.Second
const checkEvery = 5 * time.Millisecond

func TestSyncerFullGameFlow(t *testing.T) {
	creator, joiner, ctx := newPair(t)

	code, err := creator.CreateRoom(ctx)
	require.NoError(t, err)
	require.Len(t, code, 4)
	assert.Equal(t, session.PhaseRoomSetup, creator.State().Phase)
	assert.True(t, creator.State().Creator())

	require.NoError(t, joiner.JoinRoom(ctx, code))
	assert.False(t, joiner.State().Creator())

	// The creator observes the partner and moves to role selection.
	require.Eventually(t, phaseIs(creator, session.PhaseRoleSelect), waitFor, checkEvery)
	require.Eventually(t, func() bool { return creator.State().PartnerJoined }, waitFor, checkEvery)

	// The joiner stays in room setup until a role assignment is visible.
	assert.Equal(t, session.PhaseRoomSetup, joiner.State().Phase)

	require.NoError(t, creator.ChooseRole(ctx, types.RoleNavigator))

	// Role complement propagates, both ready up, the room auto-starts
	// and both sessions begin level one with the same maze seed.
	require.Eventually(t, phaseIs(creator, session.PhasePlaying), waitFor, checkEvery)
	require.Eventually(t, phaseIs(joiner, session.PhasePlaying), waitFor, checkEvery)

	cs, js := creator.State(), joiner.State()
	assert.Equal(t, types.RoleNavigator, cs.Role)
	assert.Equal(t, types.RoleGuide, js.Role)
	assert.Equal(t, 1, cs.Level)
	assert.Equal(t, 1, js.Level)
	assert.Equal(t, cs.Seed, js.Seed, "both clients must derive the identical maze")

	// Navigator moves; the guide's polled token snaps to it.
	require.NoError(t, creator.MoveTo(ctx, maze.Point{X: 3, Y: 4}))
	require.Eventually(t, func() bool {
		p, ok := joiner.PartnerPosition()
		return ok && p == (maze.Point{X: 3, Y: 4})
	}, waitFor, checkEvery)

	// Navigator lands on the end cell of the 15x15 level-one maze. The
	// guide spots the win through the position poll; the navigator
	// reports it explicitly.
	require.NoError(t, creator.MoveTo(ctx, maze.Point{X: 14, Y: 14}))
	require.NoError(t, creator.ReachExit(ctx))
	require.Eventually(t, phaseIs(creator, session.PhaseLevelComplete), waitFor, checkEvery)
	require.Eventually(t, phaseIs(joiner, session.PhaseLevelComplete), waitFor, checkEvery)

	// Creator advances; joiner follows through the level poll.
	require.NoError(t, creator.NextLevel(ctx))
	require.Eventually(t, func() bool {
		st := joiner.State()
		return st.Phase == session.PhasePlaying && st.Level == 2
	}, waitFor, checkEvery)
	assert.Equal(t, creator.State().Seed, joiner.State().Seed)
	assert.Equal(t, 2, creator.State().Level)
}

func TestSyncerRestartClearsSession(t *testing.T) {
	creator, joiner, ctx := newPair(t)

	code, err := creator.CreateRoom(ctx)
	require.NoError(t, err)
	require.NoError(t, joiner.JoinRoom(ctx, code))
	require.Eventually(t, phaseIs(creator, session.PhaseRoleSelect), waitFor, checkEvery)

	require.NoError(t, creator.Restart())
	st := creator.State()
	assert.Equal(t, session.PhaseReady, st.Phase)
	assert.Empty(t, st.RoomCode)
	assert.Empty(t, st.Role)
	assert.Zero(t, st.Level)
}

func TestSyncerSwitchRolesBetweenLevels(t *testing.T) {
	creator, joiner, ctx := newPair(t)

	code, err := creator.CreateRoom(ctx)
	require.NoError(t, err)
	require.NoError(t, joiner.JoinRoom(ctx, code))
	require.Eventually(t, phaseIs(creator, session.PhaseRoleSelect), waitFor, checkEvery)
	require.NoError(t, creator.ChooseRole(ctx, types.RoleNavigator))
	require.Eventually(t, phaseIs(creator, session.PhasePlaying), waitFor, checkEvery)
	require.Eventually(t, phaseIs(joiner, session.PhasePlaying), waitFor, checkEvery)

	require.NoError(t, creator.MoveTo(ctx, maze.Point{X: 14, Y: 14}))
	require.NoError(t, creator.ReachExit(ctx))
	require.Eventually(t, phaseIs(joiner, session.PhaseLevelComplete), waitFor, checkEvery)

	// Swap roles while the room sits between levels; the joiner adopts
	// the navigator side through its level/role poll.
	require.NoError(t, creator.SwitchRoles(ctx))
	assert.Equal(t, types.RoleGuide, creator.State().Role)
	require.Eventually(t, func() bool {
		return joiner.State().Role == types.RoleNavigator
	}, waitFor, checkEvery)
}

func TestSyncerSoloMode(t *testing.T) {
	creator, _, _ := newPair(t)

	require.NoError(t, creator.StartSolo(99))
	st := creator.State()
	assert.Equal(t, session.PhasePlaying, st.Phase)
	assert.True(t, st.Solo())
	assert.Equal(t, int64(99), st.Seed)

	require.NoError(t, creator.ReachExit(context.Background()))
	assert.Equal(t, session.PhaseEnded, creator.State().Phase)
}

func TestGenerateRoomCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := GenerateRoomCode()
		require.NoError(t, err)
		require.Len(t, code, 4)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9')
		}
	}
}
