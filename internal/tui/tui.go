// Package tui is the terminal shell around the game core. It consumes
// the core's outputs (maze grid, token positions, role, phase, level)
// and produces move/role/restart intents from key presses. Rendering
// details here carry no game semantics.
package tui

import (
	"github.com/nsf/termbox-go"

	"comaze/internal/maze"
)

// View is everything one frame needs.
type View struct {
	Grid       maze.Grid
	Start, End maze.Point
	Player     maze.Point
	Partner    maze.Point
	HasPartner bool
	Restricted bool // navigator sees only a radius around the token
	Radius     int
	Status     []string // lines drawn under the maze
}

// Canvas is a rendered character frame, rows by columns.
type Canvas [][]rune

const (
	runeWall    = '#'
	runeFloor   = ' '
	runePlayer  = '@'
	runePartner = 'o'
	runeStart   = 'S'
	runeExit    = 'E'
	runeFog     = '.'
)

// BuildCanvas rasterizes the maze into a (2w+1)x(2h+1) frame: odd
// coordinates are cell interiors, even ones are wall positions.
func BuildCanvas(v View) Canvas {
	w, h := v.Grid.Width(), v.Grid.Height()
	rows, cols := 2*h+1, 2*w+1
	c := make(Canvas, rows)
	for y := range c {
		c[y] = make([]rune, cols)
		for x := range c[y] {
			c[y][x] = runeWall
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cell := v.Grid[y][x]
			cy, cx := 2*y+1, 2*x+1
			c[cy][cx] = runeFloor
			if !cell.Top {
				c[cy-1][cx] = runeFloor
			}
			if !cell.Bottom {
				c[cy+1][cx] = runeFloor
			}
			if !cell.Left {
				c[cy][cx-1] = runeFloor
			}
			if !cell.Right {
				c[cy][cx+1] = runeFloor
			}
		}
	}

	mark := func(p maze.Point, r rune) {
		if v.Grid.In(p) {
			c[2*p.Y+1][2*p.X+1] = r
		}
	}
	mark(v.Start, runeStart)
	mark(v.End, runeExit)
	if v.HasPartner {
		mark(v.Partner, runePartner)
	}
	mark(v.Player, runePlayer)

	if v.Restricted {
		fogCanvas(c, v)
	}
	return c
}

// fogCanvas blanks everything outside the visibility radius around the
// player, in cell distance.
func fogCanvas(c Canvas, v View) {
	for y := range c {
		for x := range c[y] {
			// Canvas coordinate back to nearest cell.
			cellX, cellY := (x-1)/2, (y-1)/2
			dx, dy := cellX-v.Player.X, cellY-v.Player.Y
			if dx < 0 {
				dx = -dx
			}
			if dy < 0 {
				dy = -dy
			}
			if dx > v.Radius || dy > v.Radius {
				c[y][x] = runeFog
			}
		}
	}
}

// Key is a decoded input intent.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyNavigator // choose navigator role
	KeyGuide     // choose guide role
	KeyEnter     // confirm / next level
	KeyRestart
	KeySwitch
	KeyQuit
)

// Init starts the terminal screen.
func Init() error {
	return termbox.Init()
}

// Close restores the terminal.
func Close() {
	termbox.Close()
}

// PollKey blocks for the next decoded key press.
func PollKey() Key {
	for {
		ev := termbox.PollEvent()
		if ev.Type != termbox.EventKey {
			continue
		}
		switch ev.Key {
		case termbox.KeyArrowUp:
			return KeyUp
		case termbox.KeyArrowDown:
			return KeyDown
		case termbox.KeyArrowLeft:
			return KeyLeft
		case termbox.KeyArrowRight:
			return KeyRight
		case termbox.KeyEnter:
			return KeyEnter
		case termbox.KeyEsc, termbox.KeyCtrlC:
			return KeyQuit
		}
		switch ev.Ch {
		case 'n':
			return KeyNavigator
		case 'g':
			return KeyGuide
		case 'r':
			return KeyRestart
		case 's':
			return KeySwitch
		case 'q':
			return KeyQuit
		case 'w':
			return KeyUp
		case 'a':
			return KeyLeft
		case 'd':
			return KeyRight
		}
		if ev.Ch == 0 && ev.Key == termbox.KeySpace {
			return KeyEnter
		}
	}
}

// Draw paints a frame.
func Draw(v View) {
	_ = termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	c := BuildCanvas(v)
	for y, row := range c {
		for x, r := range row {
			termbox.SetCell(x, y, r, colorFor(r), termbox.ColorDefault)
		}
	}
	for i, line := range v.Status {
		drawText(0, len(c)+1+i, line)
	}
	_ = termbox.Flush()
}

// DrawText paints status lines only, for phases with no maze.
func DrawText(lines []string) {
	_ = termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	for i, line := range lines {
		drawText(0, i, line)
	}
	_ = termbox.Flush()
}

func drawText(x, y int, s string) {
	for i, r := range s {
		termbox.SetCell(x+i, y, r, termbox.ColorDefault, termbox.ColorDefault)
	}
}

func colorFor(r rune) termbox.Attribute {
	switch r {
	case runePlayer:
		return termbox.ColorBlue
	case runePartner:
		return termbox.ColorCyan
	case runeStart:
		return termbox.ColorGreen
	case runeExit:
		return termbox.ColorRed
	case runeWall:
		return termbox.ColorWhite
	default:
		return termbox.ColorDefault
	}
}
