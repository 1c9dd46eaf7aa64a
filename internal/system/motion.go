package system

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/hexcolony/server/internal/component"
	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/core/event"
	coresys "github.com/hexcolony/server/internal/core/system"
	"github.com/hexcolony/server/internal/hex"
	"github.com/hexcolony/server/internal/nav"
	"github.com/hexcolony/server/internal/work"
)

// NavigationSystem steps the navigation state machine of every monster.
type NavigationSystem struct {
	coresys.Focus
	coord *work.Coordinator
	bus   *event.Bus
	log   *zap.Logger
}

func NewNavigationSystem(coord *work.Coordinator, bus *event.Bus, log *zap.Logger) *NavigationSystem {
	return &NavigationSystem{
		Focus: coresys.NewFocus(coord.World(), component.KindMonster, component.KindNavigation,
			component.KindMovement, component.KindTransform),
		coord: coord,
		bus:   bus,
		log:   log,
	}
}

func (s *NavigationSystem) Name() string         { return NameNavigation }
func (s *NavigationSystem) Phase() coresys.Phase { return coresys.PhaseExecute }
func (s *NavigationSystem) After() []string      { return []string{NameWorkRequest} }

func (s *NavigationSystem) Update(_ time.Duration) {
	grids := make(map[ecs.EntityID]*hex.Grid)
	for _, e := range s.Entities() {
		mon, _ := ecs.Get[*component.Monster](e, component.KindMonster)
		n, _ := ecs.Get[*component.Navigation](e, component.KindNavigation)
		mv, _ := ecs.Get[*component.Movement](e, component.KindMovement)
		tr, _ := ecs.Get[*component.Transform](e, component.KindTransform)

		grid, seen := grids[mon.SpaceID]
		if !seen {
			grid = s.grid(mon.SpaceID)
			grids[mon.SpaceID] = grid
		}

		prev := n.State
		state := nav.Step(n, mv, tr, grid)
		if state == prev || !state.Terminal() {
			continue
		}
		s.log.Debug("navigation ended",
			zap.Uint64("monster", uint64(e.ID())),
			zap.Stringer("state", state),
			zap.Stringer("target", n.Target))
		event.Emit(s.bus, event.NavigationEnded{EntityID: e.ID(), Arrived: state == component.NavArrived})
		if mon.Status == component.MonsterMoving && !s.coord.HasFlow(mon.SpaceID, e.ID()) {
			mon.SetStatus(component.MonsterIdle)
		}
	}
}

func (s *NavigationSystem) grid(spaceID ecs.EntityID) *hex.Grid {
	e, ok := s.World().Entity(spaceID)
	if !ok {
		return nil
	}
	sp, ok := ecs.Get[*component.Space](e, component.KindSpace)
	if !ok {
		return nil
	}
	return sp.Grid
}

// MovementSystem integrates pixel positions along the movement direction.
// A step never goes past the current waypoint.
type MovementSystem struct {
	world *ecs.World
}

func NewMovementSystem(world *ecs.World) *MovementSystem {
	return &MovementSystem{world: world}
}

func (s *MovementSystem) Name() string         { return NameMovement }
func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseExecute }
func (s *MovementSystem) After() []string      { return []string{NameNavigation} }

func (s *MovementSystem) Update(dt time.Duration) {
	ecs.Each3(s.world, component.KindMonster, component.KindMovement, component.KindTransform,
		func(_ *ecs.Entity, mon *component.Monster, mv *component.Movement, tr *component.Transform) {
			if !mv.Moving() {
				return
			}
			step := math.Min(mon.Speed*dt.Seconds(), mv.Limit)
			if step <= 0 {
				return
			}
			tr.MoveTo(tr.Position.Add(mv.Direction.Scale(step)), tr.Coord)
			mv.Set(mv.Direction, mv.Limit-step)
		})
}
