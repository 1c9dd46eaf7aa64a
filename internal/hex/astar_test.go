package hex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adjacent(t *testing.T, path []Coord) {
	t.Helper()
	for i := 1; i < len(path); i++ {
		assert.Equal(t, 1, Distance(path[i-1], path[i]), "step %d", i)
	}
}

func TestFindPathIsMinimal(t *testing.T) {
	g := NewGrid(Layout{Size: 10}, 0, 1)
	g.ExpandLevel(4)

	start := Coord{}
	for _, tile := range g.Tiles {
		path := FindPath(g, start, tile.Coord)
		require.NotEmpty(t, path, tile.Coord.String())
		assert.Equal(t, start, path[0])
		assert.Equal(t, tile.Coord, path[len(path)-1])
		assert.Len(t, path, Distance(start, tile.Coord)+1)
		adjacent(t, path)
	}
}

func TestFindPathUnreachable(t *testing.T) {
	g := NewGrid(Layout{Size: 10}, 0, 1)
	g.ExpandLevel(2)

	assert.Nil(t, FindPath(g, Coord{}, Coord{Q: 9, R: 0}))

	g.SetCanMove(Coord{Q: 2, R: 0}, false)
	assert.Nil(t, FindPath(g, Coord{}, Coord{Q: 2, R: 0}))

	// Wall off the origin completely.
	for _, n := range (Coord{}).Neighbors() {
		g.SetCanMove(n, false)
	}
	assert.Nil(t, FindPath(g, Coord{}, Coord{Q: -2, R: 0}))
}

func TestFindPathAroundObstacle(t *testing.T) {
	g := NewGrid(Layout{Size: 10}, 0, 1)
	g.ExpandLevel(3)
	g.SetCanMove(Coord{Q: 1, R: 0}, false)

	path := FindPath(g, Coord{}, Coord{Q: 2, R: 0})
	require.NotEmpty(t, path)
	assert.Len(t, path, 4)
	adjacent(t, path)
	for _, c := range path {
		assert.NotEqual(t, Coord{Q: 1, R: 0}, c)
	}
}

func TestFindPathSameTile(t *testing.T) {
	g := NewGrid(Layout{Size: 10}, 0, 1)
	assert.Equal(t, []Coord{{}}, FindPath(g, Coord{}, Coord{}))
}
