package hex

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetSeedsOrigin(t *testing.T) {
	g := NewGrid(Layout{Size: 10}, 0, 1)
	assert.Equal(t, 1, g.Len())
	assert.True(t, g.CanMove(Coord{}))
	assert.Len(t, g.Frontier, 6)
	for _, n := range (Coord{}).Neighbors() {
		assert.True(t, g.InFrontier(n))
	}
	require.NoError(t, g.Check())
}

func TestExpandLevelGrowsRings(t *testing.T) {
	g := NewGrid(Layout{Size: 10}, 0, 1)
	assert.Equal(t, 6, g.ExpandLevel(1))
	assert.Equal(t, 7, g.Len())
	assert.Equal(t, 12, g.ExpandLevel(1))
	assert.Equal(t, 19, g.Len())
	assert.Len(t, g.Frontier, 18)
	require.NoError(t, g.Check())

	for key, tile := range g.Tiles {
		assert.LessOrEqual(t, Distance(Coord{}, tile.Coord), 2, key)
	}
}

func TestExpandExplicitAndRandom(t *testing.T) {
	g := NewGrid(Layout{Size: 10}, 0, 7)

	_, ok := g.Expand("5,5")
	assert.False(t, ok)

	tile, ok := g.Expand(Coord{Q: 1, R: 0}.Key())
	require.True(t, ok)
	assert.Equal(t, Coord{Q: 1, R: 0}, tile.Coord)
	assert.True(t, g.InFrontier(Coord{Q: 2, R: 0}))
	assert.False(t, g.InFrontier(Coord{Q: 1, R: 0}))

	for i := 0; i < 20; i++ {
		_, ok := g.Expand("")
		require.True(t, ok)
		require.NoError(t, g.Check())
	}
	assert.Equal(t, 22, g.Len())
}

func TestCanMove(t *testing.T) {
	g := NewGrid(Layout{Size: 10}, 0, 1)
	g.ExpandLevel(1)

	assert.False(t, g.CanMove(Coord{Q: 5, R: 5}))
	require.True(t, g.SetCanMove(Coord{Q: 1, R: 0}, false))
	assert.False(t, g.CanMove(Coord{Q: 1, R: 0}))
	assert.False(t, g.SetCanMove(Coord{Q: 9, R: 9}, false))

	require.True(t, g.SetOccupant(Coord{}, 4))
	assert.EqualValues(t, 4, g.Occupant(Coord{}))
}

func TestObstaclesNeverBlockOrigin(t *testing.T) {
	g := NewGrid(Layout{Size: 10}, 1, 3)
	g.ExpandLevel(2)
	assert.True(t, g.CanMove(Coord{}))
	for _, tile := range g.Tiles {
		if tile.Coord != (Coord{}) {
			assert.False(t, tile.CanMove)
		}
	}
}

func TestGridJSONRoundTrip(t *testing.T) {
	g := NewGrid(Layout{Size: 16}, 0, 9)
	g.ExpandLevel(2)
	g.SetOccupant(Coord{Q: 1, R: -1}, 12)

	raw, err := json.Marshal(g)
	require.NoError(t, err)
	var back Grid
	require.NoError(t, json.Unmarshal(raw, &back))

	assert.Equal(t, g.Len(), back.Len())
	assert.Equal(t, g.FrontierKeys(), back.FrontierKeys())
	assert.EqualValues(t, 12, back.Occupant(Coord{Q: 1, R: -1}))
	require.NoError(t, back.Check())
	_, ok := back.Expand("")
	assert.True(t, ok)
}

func TestKeyParse(t *testing.T) {
	c, err := ParseKey(Coord{Q: -3, R: 12}.Key())
	require.NoError(t, err)
	assert.Equal(t, Coord{Q: -3, R: 12}, c)

	_, err = ParseKey("nope")
	assert.Error(t, err)
	_, err = ParseKey("1,x")
	assert.Error(t, err)
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 0, Distance(Coord{}, Coord{}))
	assert.Equal(t, 1, Distance(Coord{}, Coord{Q: 1, R: -1}))
	assert.Equal(t, 3, Distance(Coord{Q: -1, R: -1}, Coord{Q: 1, R: 0}))
	for _, d := range Directions {
		assert.Equal(t, 1, Distance(Coord{}, d))
	}
}
