package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexcolony/server/internal/component"
	"github.com/hexcolony/server/internal/hex"
)

func newMover(grid *hex.Grid, at hex.Coord) (*component.Navigation, *component.Movement, *component.Transform) {
	tr := &component.Transform{}
	tr.Place(at, grid.Layout)
	return &component.Navigation{}, &component.Movement{}, tr
}

func TestStepWithoutRequestStaysIdle(t *testing.T) {
	grid := hex.NewGrid(hex.Layout{Size: 20}, 0, 1)
	n, mv, tr := newMover(grid, hex.Coord{})

	assert.Equal(t, component.NavIdle, Step(n, mv, tr, grid))
	assert.Zero(t, n.Version)
}

func TestUnreachableTargetFailsInOneStep(t *testing.T) {
	grid := hex.NewGrid(hex.Layout{Size: 20}, 0, 1)
	n, mv, tr := newMover(grid, hex.Coord{})

	v := Start(n, tr, hex.Coord{Q: 9, R: 9})
	assert.Equal(t, uint64(1), v)
	assert.Equal(t, component.NavFailed, Step(n, mv, tr, grid))
	assert.True(t, mv.Direction.IsZero())
	assert.Empty(t, n.Path)
}

func TestBlockedTargetFails(t *testing.T) {
	grid := hex.NewGrid(hex.Layout{Size: 20}, 0, 1)
	grid.ExpandLevel(1)
	target := hex.Coord{Q: 1}
	require.True(t, grid.SetCanMove(target, false))
	n, mv, tr := newMover(grid, hex.Coord{})

	Start(n, tr, target)
	assert.Equal(t, component.NavFailed, Step(n, mv, tr, grid))
}

func TestWalksPathToArrival(t *testing.T) {
	grid := hex.NewGrid(hex.Layout{Size: 20}, 0, 1)
	grid.ExpandLevel(3)
	n, mv, tr := newMover(grid, hex.Coord{})
	target := hex.Coord{Q: 2, R: 0}

	Start(n, tr, target)
	require.Equal(t, component.NavMoving, Step(n, mv, tr, grid))
	require.Len(t, n.Path, 3)
	assert.InDelta(t, 1.0, mv.Direction.Len(), 1e-9)
	assert.Equal(t, 1, n.Index)

	// Teleport along the path the way the movement system would.
	for i := 0; i < 10 && n.State == component.NavMoving; i++ {
		step := mv.Direction.Scale(mv.Limit)
		tr.MoveTo(tr.Position.Add(step), tr.Coord)
		Step(n, mv, tr, grid)
	}
	assert.Equal(t, component.NavArrived, n.State)
	assert.Equal(t, target, n.Current)
	assert.Equal(t, target, tr.Coord)
	assert.True(t, mv.Direction.IsZero())
}

func TestStartOnTargetArrivesImmediately(t *testing.T) {
	grid := hex.NewGrid(hex.Layout{Size: 20}, 0, 1)
	n, mv, tr := newMover(grid, hex.Coord{})

	Start(n, tr, hex.Coord{})
	assert.Equal(t, component.NavArrived, Step(n, mv, tr, grid))
}

func TestResetBumpsVersion(t *testing.T) {
	grid := hex.NewGrid(hex.Layout{Size: 20}, 0, 1)
	grid.ExpandLevel(2)
	n, mv, tr := newMover(grid, hex.Coord{})

	v1 := Start(n, tr, hex.Coord{Q: 2})
	Step(n, mv, tr, grid)
	v2 := Start(n, tr, hex.Coord{R: 2})
	assert.Greater(t, v2, v1)
	assert.Equal(t, component.NavIdle, n.State)
	assert.Nil(t, n.Path)

	Stop(n, mv)
	assert.Greater(t, n.Version, v2)
	assert.False(t, n.Active())
	assert.True(t, mv.Direction.IsZero())
}
