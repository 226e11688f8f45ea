package maze

import (
	"errors"
	"hash/fnv"
)

var ErrBadDimension = errors.New("maze dimensions must be positive")

type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

// Point is a cell coordinate, x growing right and y growing down.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Step returns the neighboring point in the given direction.
func (p Point) Step(d Direction) Point {
	switch d {
	case Up:
		return Point{p.X, p.Y - 1}
	case Right:
		return Point{p.X + 1, p.Y}
	case Down:
		return Point{p.X, p.Y + 1}
	case Left:
		return Point{p.X - 1, p.Y}
	}
	return p
}

// Cell holds the four wall flags of one grid cell. A freshly
// initialized cell has all walls up; Generate carves passages by
// clearing pairs of facing walls.
type Cell struct {
	Top    bool
	Right  bool
	Bottom bool
	Left   bool
}

// Grid is a maze indexed [y][x].
type Grid [][]Cell

func (g Grid) Height() int { return len(g) }

func (g Grid) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// In reports whether p lies inside the grid.
func (g Grid) In(p Point) bool {
	return p.X >= 0 && p.X < g.Width() && p.Y >= 0 && p.Y < g.Height()
}

// CanMove reports whether a token at from may step one cell in the
// given direction: the destination must be in bounds and the wall on
// that side of the current cell must have been carved away.
func (g Grid) CanMove(from Point, d Direction) bool {
	if !g.In(from) || !g.In(from.Step(d)) {
		return false
	}
	c := g[from.Y][from.X]
	switch d {
	case Up:
		return !c.Top
	case Right:
		return !c.Right
	case Down:
		return !c.Bottom
	case Left:
		return !c.Left
	}
	return false
}

// lcg is the shared pseudo-random sequence both clients replay. The
// constants must never change: a divergent draw order on one end would
// silently desynchronize the two mazes.
type lcg struct {
	state int64
}

const (
	lcgMod  int64 = 1 << 31
	lcgMulA int64 = 1103515245
	lcgIncC int64 = 12345
)

func newLCG(seed int64) *lcg {
	return &lcg{state: ((seed % lcgMod) + lcgMod) % lcgMod}
}

// next returns a draw in [0,1].
func (r *lcg) next() float64 {
	r.state = (lcgMulA*r.state + lcgIncC) % lcgMod
	return float64(r.state) / float64(lcgMod-1)
}

// Generate builds a perfect maze over a width x height grid using
// randomized depth-first backtracking, deterministically from seed.
// Returns the grid plus start (0,0) and end (width-1,height-1) cells.
func Generate(width, height int, seed int64) (Grid, Point, Point, error) {
	if width < 1 || height < 1 {
		return nil, Point{}, Point{}, ErrBadDimension
	}

	g := make(Grid, height)
	for y := range g {
		g[y] = make([]Cell, width)
		for x := range g[y] {
			g[y][x] = Cell{Top: true, Right: true, Bottom: true, Left: true}
		}
	}

	visited := make([][]bool, height)
	for y := range visited {
		visited[y] = make([]bool, width)
	}

	r := newLCG(seed)
	stack := []Point{{0, 0}}
	visited[0][0] = true

	for len(stack) > 0 {
		cur := stack[len(stack)-1]

		var neighbors []Point
		for _, d := range []Direction{Up, Right, Down, Left} {
			n := cur.Step(d)
			if g.In(n) && !visited[n.Y][n.X] {
				neighbors = append(neighbors, n)
			}
		}

		if len(neighbors) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		i := int(r.next() * float64(len(neighbors)))
		if i >= len(neighbors) {
			i = len(neighbors) - 1
		}
		next := neighbors[i]
		visited[next.Y][next.X] = true
		carve(g, cur, next)
		stack = append(stack, next)
	}

	return g, Point{0, 0}, Point{width - 1, height - 1}, nil
}

// carve removes the pair of facing walls between two adjacent cells.
func carve(g Grid, a, b Point) {
	switch {
	case b.X == a.X-1:
		g[a.Y][a.X].Left = false
		g[b.Y][b.X].Right = false
	case b.X == a.X+1:
		g[a.Y][a.X].Right = false
		g[b.Y][b.X].Left = false
	case b.Y == a.Y-1:
		g[a.Y][a.X].Top = false
		g[b.Y][b.X].Bottom = false
	case b.Y == a.Y+1:
		g[a.Y][a.X].Bottom = false
		g[b.Y][b.X].Top = false
	}
}

// SeedFor derives the per-level maze seed from the shared room code.
// Both clients call this with identical inputs, so no maze data ever
// crosses the wire.
func SeedFor(roomCode string, level int) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(roomCode))
	seed := int64(h.Sum32())*31 + int64(level)
	return ((seed % lcgMod) + lcgMod) % lcgMod
}

// SizeFor returns the square maze dimension for a level: 15 on the
// first level, growing by two cells per level up to 25.
func SizeFor(level int) int {
	if level <= 1 {
		return 15
	}
	size := 15 + 2*level
	if size > 25 {
		size = 25
	}
	return size
}
