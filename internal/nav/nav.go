// Package nav drives the per-entity navigation state machine: path search on
// start, then waypoint following until the target is reached.
package nav

import (
	"github.com/hexcolony/server/internal/component"
	"github.com/hexcolony/server/internal/hex"
)

// ArriveDistance is how close, in pixels, an entity must be to a waypoint
// center to count as standing on it.
const ArriveDistance = 5.0

// Start begins navigation from the entity's current cell to target and
// returns the new version.
func Start(n *component.Navigation, tr *component.Transform, target hex.Coord) uint64 {
	return n.Reset(tr.Coord, target)
}

// Stop cancels navigation and zeroes the movement request.
func Stop(n *component.Navigation, mv *component.Movement) {
	n.Cancel()
	mv.Stop()
}

// Step advances the state machine by one tick and returns the resulting
// state. An Idle request resolves to Moving or Failed within the same call.
func Step(n *component.Navigation, mv *component.Movement, tr *component.Transform, grid *hex.Grid) component.NavState {
	if n.State == component.NavIdle {
		if !n.Requested {
			return n.State
		}
		n.Requested = false
		if grid == nil || !grid.CanMove(n.Target) {
			return fail(n, mv)
		}
		n.State = component.NavCalculating
		n.MarkDirty()
	}

	if n.State == component.NavCalculating {
		path := hex.FindPath(grid, n.Current, n.Target)
		if len(path) == 0 {
			return fail(n, mv)
		}
		n.Path = path
		n.Index = 0
		n.State = component.NavMoving
		n.MarkDirty()
	}

	if n.State != component.NavMoving {
		return n.State
	}
	if grid == nil {
		return fail(n, mv)
	}

	for {
		wp, ok := n.Waypoint()
		if !ok {
			n.State = component.NavArrived
			n.MarkDirty()
			mv.Stop()
			return n.State
		}
		center := grid.Layout.ToPixel(wp)
		d := tr.Position.Dist(center)
		if d >= ArriveDistance {
			mv.Set(center.Sub(tr.Position).Normalize(), d)
			return n.State
		}
		// Reached this waypoint; aim at the next one.
		n.Current = wp
		n.Index++
		n.MarkDirty()
		tr.MoveTo(tr.Position, wp)
	}
}

func fail(n *component.Navigation, mv *component.Movement) component.NavState {
	n.State = component.NavFailed
	n.Path = nil
	n.Index = 0
	n.MarkDirty()
	mv.Stop()
	return n.State
}
