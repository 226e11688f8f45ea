package maze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeterministic(t *testing.T) {
	for _, seed := range []int64{0, 1, 42, 999983, 1<<31 - 1} {
		a, _, _, err := Generate(12, 9, seed)
		require.NoError(t, err)
		b, _, _, err := Generate(12, 9, seed)
		require.NoError(t, err)
		assert.Equal(t, a, b, "seed %d", seed)
	}
}

func TestGenerateDifferentSeedsDiffer(t *testing.T) {
	a, _, _, err := Generate(15, 15, 7)
	require.NoError(t, err)
	b, _, _, err := Generate(15, 15, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

// carvedPassages counts cleared wall pairs; a perfect maze over n cells
// has exactly n-1.
func carvedPassages(g Grid) int {
	n := 0
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if !g[y][x].Right && x+1 < g.Width() {
				n++
			}
			if !g[y][x].Bottom && y+1 < g.Height() {
				n++
			}
		}
	}
	return n
}

func reachable(g Grid) map[Point]bool {
	seen := map[Point]bool{{0, 0}: true}
	stack := []Point{{0, 0}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range []Direction{Up, Right, Down, Left} {
			if g.CanMove(cur, d) && !seen[cur.Step(d)] {
				seen[cur.Step(d)] = true
				stack = append(stack, cur.Step(d))
			}
		}
	}
	return seen
}

func TestGenerateSpanningTree(t *testing.T) {
	cases := []struct{ w, h int }{
		{15, 15}, {25, 25}, {2, 2}, {5, 17}, {17, 5},
	}
	for _, tc := range cases {
		g, start, end, err := Generate(tc.w, tc.h, 1234)
		require.NoError(t, err)

		assert.Equal(t, Point{0, 0}, start)
		assert.Equal(t, Point{tc.w - 1, tc.h - 1}, end)
		assert.Equal(t, tc.w*tc.h-1, carvedPassages(g), "%dx%d", tc.w, tc.h)

		seen := reachable(g)
		assert.Len(t, seen, tc.w*tc.h, "%dx%d: every cell reachable", tc.w, tc.h)
		assert.True(t, seen[end], "end reachable")
	}
}

func TestGenerateSingleRowAndColumn(t *testing.T) {
	g, _, end, err := Generate(8, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, Point{7, 0}, end)
	assert.Len(t, reachable(g), 8)

	g, _, end, err = Generate(1, 8, 5)
	require.NoError(t, err)
	assert.Equal(t, Point{0, 7}, end)
	assert.Len(t, reachable(g), 8)
}

func TestGenerateTrivial(t *testing.T) {
	g, start, end, err := Generate(1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, start, end)
	// No neighbor ever existed, so all four walls stay up.
	assert.Equal(t, Cell{Top: true, Right: true, Bottom: true, Left: true}, g[0][0])
}

func TestGenerateRejectsBadDimensions(t *testing.T) {
	_, _, _, err := Generate(0, 5, 1)
	assert.ErrorIs(t, err, ErrBadDimension)
	_, _, _, err = Generate(5, -1, 1)
	assert.ErrorIs(t, err, ErrBadDimension)
}

func TestCanMoveRespectsWallsAndBounds(t *testing.T) {
	g, start, _, err := Generate(4, 4, 99)
	require.NoError(t, err)

	assert.False(t, g.CanMove(start, Up), "out of bounds")
	assert.False(t, g.CanMove(start, Left), "out of bounds")
	assert.False(t, g.CanMove(Point{-1, 0}, Right), "from outside the grid")

	// The spanning tree guarantees (0,0) has at least one open side.
	open := 0
	for _, d := range []Direction{Right, Down} {
		if g.CanMove(start, d) {
			open++
		}
	}
	assert.Greater(t, open, 0)
}

func TestSeedForStableAndLevelSensitive(t *testing.T) {
	assert.Equal(t, SeedFor("4821", 1), SeedFor("4821", 1))
	assert.NotEqual(t, SeedFor("4821", 1), SeedFor("4821", 2))
	assert.NotEqual(t, SeedFor("4821", 1), SeedFor("4822", 1))

	s := SeedFor("0000", 3)
	assert.GreaterOrEqual(t, s, int64(0))
	assert.Less(t, s, int64(1)<<31)
}

func TestSizeFor(t *testing.T) {
	assert.Equal(t, 15, SizeFor(1))
	assert.Equal(t, 19, SizeFor(2))
	assert.Equal(t, 21, SizeFor(3))
	assert.Equal(t, 25, SizeFor(5))
	assert.Equal(t, 25, SizeFor(12))
}
