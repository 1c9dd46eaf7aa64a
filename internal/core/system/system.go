package system

import (
	"fmt"
	"time"

	"github.com/hexcolony/server/internal/core/ecs"
)

// Phase is the role a system plays in the tick.
type Phase int

const (
	PhaseInitialize Phase = iota // run once when the world starts
	PhaseInput                   // drain external events into components
	PhaseExecute                 // main simulation step
	PhaseClean                   // post-tick bookkeeping, deferred destruction
	PhaseReactive                // run only when triggered
)

func (p Phase) String() string {
	switch p {
	case PhaseInitialize:
		return "Initialize"
	case PhaseInput:
		return "Input"
	case PhaseExecute:
		return "Execute"
	case PhaseClean:
		return "Clean"
	case PhaseReactive:
		return "Reactive"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// System is the interface every system implements.
type System interface {
	Name() string
	Phase() Phase
	Update(dt time.Duration)
}

// Dependent is implemented by systems that must run after other systems of
// the same phase.
type Dependent interface {
	After() []string
}

// Focus is embedded by systems that work on the entities holding a fixed set
// of component kinds. Entities always reflects the live registry.
type Focus struct {
	world *ecs.World
	kinds []ecs.Kind
}

func NewFocus(world *ecs.World, kinds ...ecs.Kind) Focus {
	return Focus{world: world, kinds: kinds}
}

func (f Focus) FocusKinds() []ecs.Kind  { return f.kinds }
func (f Focus) World() *ecs.World       { return f.world }
func (f Focus) Entities() []*ecs.Entity { return f.world.Query(f.kinds...) }
