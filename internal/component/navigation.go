package component

import (
	"fmt"

	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/hex"
)

type NavState int

const (
	NavIdle NavState = iota
	NavCalculating
	NavMoving
	NavArrived
	NavFailed
)

func (s NavState) String() string {
	switch s {
	case NavIdle:
		return "Idle"
	case NavCalculating:
		return "Calculating"
	case NavMoving:
		return "Moving"
	case NavArrived:
		return "Arrived"
	case NavFailed:
		return "Failed"
	default:
		return fmt.Sprintf("NavState(%d)", int(s))
	}
}

// Terminal reports whether the attempt is over.
func (s NavState) Terminal() bool { return s == NavArrived || s == NavFailed }

// Navigation is the per-entity path state. Version grows on every Reset so
// holders of an older version know their request was superseded.
type Navigation struct {
	ecs.Base
	State     NavState    `json:"state"`
	Start     hex.Coord   `json:"start"`
	Current   hex.Coord   `json:"current"`
	Target    hex.Coord   `json:"target"`
	Path      []hex.Coord `json:"path"`
	Index     int         `json:"index"`
	Version   uint64      `json:"version"`
	Requested bool        `json:"requested"` // set by Reset, cleared once the attempt leaves Idle
}

// Reset begins a new attempt from start to target and returns its version.
func (n *Navigation) Reset(start, target hex.Coord) uint64 {
	n.State = NavIdle
	n.Start = start
	n.Current = start
	n.Target = target
	n.Path = nil
	n.Index = 0
	n.Version++
	n.Requested = true
	n.MarkDirty()
	return n.Version
}

// Cancel abandons the current attempt and invalidates its version.
func (n *Navigation) Cancel() {
	n.State = NavIdle
	n.Start = n.Current
	n.Target = n.Current
	n.Path = nil
	n.Index = 0
	n.Version++
	n.Requested = false
	n.MarkDirty()
}

// Active reports whether an attempt is pending or in progress.
func (n *Navigation) Active() bool {
	return n.State == NavCalculating || n.State == NavMoving || (n.State == NavIdle && n.Requested)
}

// Waypoint returns the path cell being walked towards.
func (n *Navigation) Waypoint() (hex.Coord, bool) {
	if n.Index < 0 || n.Index >= len(n.Path) {
		return hex.Coord{}, false
	}
	return n.Path[n.Index], true
}
