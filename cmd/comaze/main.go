package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"comaze/internal/client"
	"comaze/internal/config"
	"comaze/internal/maze"
	"comaze/internal/session"
	"comaze/internal/tui"
	"comaze/pkg/types"
)

const visibilityRadius = 2

// app owns the client-side view state. The syncer's callbacks fire on
// poller goroutines, so everything they touch is behind the mutex and
// drawing happens only on the main loop.
type app struct {
	sync *client.Syncer

	mu         sync.Mutex
	grid       maze.Grid
	start, end maze.Point
	pos        maze.Point

	redraw chan struct{}
}

func main() {
	joinCode := flag.String("join", "", "room code to join (empty: create a room)")
	solo := flag.Bool("solo", false, "single-player mode, no room")
	flag.Parse()

	log := newLogger()
	defer func() { _ = log.Sync() }()

	cfg := config.LoadClient()
	api := client.NewAPI(cfg.ServerURL, cfg.RequestTimeout)
	s := client.NewSyncer(api, cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	s.Start(ctx)
	defer s.Close()

	a := &app{sync: s, redraw: make(chan struct{}, 1)}
	s.OnEvent = a.onEvent
	s.OnPosition = a.onPosition

	var startupErr error
	switch {
	case *solo:
		startupErr = s.StartSolo(rand.Int63n(1 << 31))
	case *joinCode != "":
		startupErr = s.JoinRoom(ctx, *joinCode)
	default:
		_, startupErr = s.CreateRoom(ctx)
	}
	if startupErr != nil {
		fmt.Fprintln(os.Stderr, "startup failed:", startupErr)
		os.Exit(1)
	}

	if err := tui.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "terminal init failed:", err)
		os.Exit(1)
	}
	defer tui.Close()

	keys := make(chan tui.Key)
	go func() {
		for {
			keys <- tui.PollKey()
		}
	}()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	a.draw()
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.redraw:
			a.draw()
		case <-ticker.C:
			a.draw()
		case k := <-keys:
			if !a.handleKey(ctx, k) {
				return
			}
			a.draw()
		}
	}
}

// onEvent reacts to session transitions; level starts regenerate the
// maze from the shared seed so both ends see the identical layout.
func (a *app) onEvent(evt session.Event, st session.State) {
	switch evt.Type {
	case session.EvtLevelStarted:
		size := maze.SizeFor(evt.Level)
		g, start, end, err := maze.Generate(size, size, st.Seed)
		if err != nil {
			return
		}
		a.mu.Lock()
		a.grid, a.start, a.end = g, start, end
		a.pos = start
		a.mu.Unlock()
	case session.EvtReset:
		a.mu.Lock()
		a.grid = nil
		a.mu.Unlock()
	}
	a.requestRedraw()
}

// onPosition snaps the guide's rendered token to the polled position.
func (a *app) onPosition(p maze.Point) {
	a.mu.Lock()
	a.pos = p
	a.mu.Unlock()
	a.requestRedraw()
}

func (a *app) requestRedraw() {
	select {
	case a.redraw <- struct{}{}:
	default:
	}
}

func (a *app) handleKey(ctx context.Context, k tui.Key) bool {
	st := a.sync.State()

	switch k {
	case tui.KeyQuit:
		return false
	case tui.KeyRestart:
		_ = a.sync.Restart()
		return true
	}

	switch st.Phase {
	case session.PhaseReady:
		if k == tui.KeyEnter {
			_, _ = a.sync.CreateRoom(ctx)
		}
	case session.PhaseRoleSelect:
		// Only the creator picks; the joiner's role arrives by poll.
		if st.Creator() {
			switch k {
			case tui.KeyNavigator:
				_ = a.sync.ChooseRole(ctx, types.RoleNavigator)
			case tui.KeyGuide:
				_ = a.sync.ChooseRole(ctx, types.RoleGuide)
			}
		}
	case session.PhasePlaying:
		if st.Role == types.RoleNavigator || st.Solo() {
			a.move(ctx, k)
		}
	case session.PhaseLevelComplete:
		if st.Creator() {
			switch k {
			case tui.KeyEnter:
				_ = a.sync.NextLevel(ctx)
			case tui.KeySwitch:
				_ = a.sync.SwitchRoles(ctx)
			}
		}
	}
	return true
}

func (a *app) move(ctx context.Context, k tui.Key) {
	var dir maze.Direction
	switch k {
	case tui.KeyUp:
		dir = maze.Up
	case tui.KeyDown:
		dir = maze.Down
	case tui.KeyLeft:
		dir = maze.Left
	case tui.KeyRight:
		dir = maze.Right
	default:
		return
	}

	a.mu.Lock()
	if a.grid == nil || !a.grid.CanMove(a.pos, dir) {
		a.mu.Unlock()
		return
	}
	a.pos = a.pos.Step(dir)
	pos, end := a.pos, a.end
	a.mu.Unlock()

	_ = a.sync.MoveTo(ctx, pos)
	if pos == end {
		_ = a.sync.ReachExit(ctx)
	}
}

func (a *app) draw() {
	st := a.sync.State()

	a.mu.Lock()
	grid, start, end, pos := a.grid, a.start, a.end, a.pos
	a.mu.Unlock()

	switch st.Phase {
	case session.PhasePlaying:
		if grid == nil {
			tui.DrawText([]string{"generating maze..."})
			return
		}
		tui.Draw(tui.View{
			Grid: grid, Start: start, End: end,
			Player:     pos,
			Restricted: st.Role == types.RoleNavigator && !st.Solo(),
			Radius:     visibilityRadius,
			Status:     statusLines(st),
		})
	default:
		tui.DrawText(statusLines(st))
	}
}

func statusLines(st session.State) []string {
	switch st.Phase {
	case session.PhaseReady:
		return []string{
			"comaze - cooperative maze",
			"",
			"enter: create a room    q: quit",
			"(join an existing room with -join CODE)",
		}
	case session.PhaseRoomSetup:
		lines := []string{"room " + st.RoomCode, ""}
		if st.PartnerJoined {
			lines = append(lines, "partner joined!")
		} else if st.Creator() {
			lines = append(lines, "waiting for partner... share the room code")
		} else {
			lines = append(lines, "waiting for the creator to assign roles...")
		}
		return lines
	case session.PhaseRoleSelect:
		if st.Creator() {
			return []string{
				"room " + st.RoomCode,
				"",
				"choose your role:",
				"  n: navigator (move, limited view)",
				"  g: guide (see all, give directions)",
			}
		}
		return []string{"room " + st.RoomCode, "", "waiting for role assignment..."}
	case session.PhasePlaying:
		return []string{
			fmt.Sprintf("room %s  level %d  role %s", st.RoomCode, st.Level, st.Role),
			"arrows: move  r: restart  q: quit",
		}
	case session.PhaseLevelComplete:
		lines := []string{fmt.Sprintf("level %d complete!", st.Level), ""}
		if st.Creator() {
			lines = append(lines, "enter: next level   s: switch roles   r: restart")
		} else {
			lines = append(lines, "waiting for the next level...")
		}
		return lines
	case session.PhaseEnded:
		return []string{"you escaped the maze!", "", "r: play again   q: quit"}
	}
	return nil
}

// newLogger writes to a file when COMAZE_LOG is set; the terminal
// belongs to termbox.
func newLogger() *zap.Logger {
	path := os.Getenv("COMAZE_LOG")
	if path == "" {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
