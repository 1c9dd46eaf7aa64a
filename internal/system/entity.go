package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/hexcolony/server/internal/component"
	"github.com/hexcolony/server/internal/core/ecs"
	coresys "github.com/hexcolony/server/internal/core/system"
	"github.com/hexcolony/server/internal/message"
	"github.com/hexcolony/server/internal/nav"
	"github.com/hexcolony/server/internal/work"
)

// DefaultMonsterSpeed is used when a species does not define one, in pixels
// per second.
const DefaultMonsterSpeed = 60.0

// MovementRequestSystem handles MOVE_MONSTER for monsters that are not
// driven by a work flow.
type MovementRequestSystem struct {
	coord *work.Coordinator
	log   *zap.Logger
}

func NewMovementRequestSystem(coord *work.Coordinator, log *zap.Logger) *MovementRequestSystem {
	return &MovementRequestSystem{coord: coord, log: log}
}

func (s *MovementRequestSystem) Name() string         { return NameMovementRequest }
func (s *MovementRequestSystem) Phase() coresys.Phase { return coresys.PhaseExecute }
func (s *MovementRequestSystem) After() []string      { return []string{NameSpace} }

func (s *MovementRequestSystem) Update(_ time.Duration) {
	eachMessage(s.coord.World(), message.TypeMoveMonster, func(avatar *ecs.Entity, m message.Message) {
		a := m.Args
		fields := []zap.Field{
			zap.Uint64("avatar", uint64(avatar.ID())),
			zap.Uint64("monster", uint64(a.MonsterID)),
			zap.Stringer("target", a.Coord()),
		}
		e, mon, ok := s.coord.Monster(avatar.ID(), a.MonsterID)
		if !ok || mon.SpaceID != a.SpaceID {
			s.log.Warn("move monster: unknown monster", fields...)
			return
		}
		if mon.Status != component.MonsterIdle && mon.Status != component.MonsterMoving {
			s.log.Debug("move monster: monster busy", append(fields, zap.Stringer("status", mon.Status))...)
			return
		}
		if s.coord.HasFlow(a.SpaceID, a.MonsterID) {
			s.log.Debug("move monster: monster has a work flow", fields...)
			return
		}
		n, _ := ecs.Get[*component.Navigation](e, component.KindNavigation)
		tr, _ := ecs.Get[*component.Transform](e, component.KindTransform)
		if n == nil || tr == nil {
			return
		}
		nav.Start(n, tr, a.Coord())
		mon.SetStatus(component.MonsterMoving)
	})
}

// BuildingSystem handles ADD_BUILDING and REMOVE_BUILDING.
type BuildingSystem struct {
	coord *work.Coordinator
	log   *zap.Logger
}

func NewBuildingSystem(coord *work.Coordinator, log *zap.Logger) *BuildingSystem {
	return &BuildingSystem{coord: coord, log: log}
}

func (s *BuildingSystem) Name() string         { return NameBuilding }
func (s *BuildingSystem) Phase() coresys.Phase { return coresys.PhaseExecute }
func (s *BuildingSystem) After() []string      { return []string{NameMovementRequest} }

func (s *BuildingSystem) Update(_ time.Duration) {
	w := s.coord.World()
	eachMessage(w, message.TypeAddBuilding, func(avatar *ecs.Entity, m message.Message) {
		a := m.Args
		if e, ok := s.coord.PlaceBuilding(avatar.ID(), a.SpaceID, a.BuildingType, a.Coord()); ok {
			s.log.Info("building placed",
				zap.Uint64("building", uint64(e.ID())),
				zap.String("type", a.BuildingType),
				zap.Stringer("coord", a.Coord()))
		}
	})
	eachMessage(w, message.TypeRemoveBuilding, func(avatar *ecs.Entity, m message.Message) {
		if !s.coord.RemoveBuilding(avatar.ID(), m.Args.BuildingID) {
			s.log.Warn("remove building: rejected",
				zap.Uint64("avatar", uint64(avatar.ID())),
				zap.Uint64("building", uint64(m.Args.BuildingID)))
		}
	})
}

// MonsterSystem handles ADD_MONSTER and REMOVE_MONSTER.
type MonsterSystem struct {
	coord *work.Coordinator
	log   *zap.Logger
}

func NewMonsterSystem(coord *work.Coordinator, log *zap.Logger) *MonsterSystem {
	return &MonsterSystem{coord: coord, log: log}
}

func (s *MonsterSystem) Name() string         { return NameMonster }
func (s *MonsterSystem) Phase() coresys.Phase { return coresys.PhaseExecute }
func (s *MonsterSystem) After() []string      { return []string{NameBuilding} }

func (s *MonsterSystem) Update(_ time.Duration) {
	w := s.coord.World()
	eachMessage(w, message.TypeAddMonster, func(avatar *ecs.Entity, m message.Message) {
		s.add(avatar.ID(), m.Args)
	})
	eachMessage(w, message.TypeRemoveMonster, func(avatar *ecs.Entity, m message.Message) {
		s.remove(avatar.ID(), m.Args)
	})
}

func (s *MonsterSystem) add(avatarID ecs.EntityID, a message.Args) {
	fields := []zap.Field{
		zap.Uint64("avatar", uint64(avatarID)),
		zap.String("species", a.MonsterType),
		zap.Stringer("coord", a.Coord()),
	}
	species := s.coord.Tables().Species.Get(a.MonsterType)
	if species == nil {
		s.log.Warn("add monster: unknown species", fields...)
		return
	}
	_, sp, ok := s.coord.Space(avatarID, a.SpaceID)
	if !ok {
		s.log.Warn("add monster: space not owned", append(fields, zap.Uint64("space", uint64(a.SpaceID)))...)
		return
	}
	if !sp.CanMove(a.Coord()) {
		s.log.Warn("add monster: hex not walkable", fields...)
		return
	}

	e := s.coord.World().CreateEntity(component.EntityMonster)
	if e == nil {
		return
	}
	mon, _ := ecs.Get[*component.Monster](e, component.KindMonster)
	mon.Species = species.Type
	mon.Name = normalizeName(a.Name)
	if mon.Name == "" {
		mon.Name = species.Name
	}
	mon.Level = max(a.Level, 1)
	mon.MaxStamina = species.MaxStamina
	mon.Stamina = species.MaxStamina
	mon.Speed = species.Speed
	if mon.Speed <= 0 {
		mon.Speed = DefaultMonsterSpeed
	}
	mon.AvatarID = avatarID
	mon.SpaceID = a.SpaceID
	mon.MarkDirty()

	tr, _ := ecs.Get[*component.Transform](e, component.KindTransform)
	tr.Place(a.Coord(), sp.Grid.Layout)

	s.log.Info("monster added", append(fields, zap.Uint64("monster", uint64(e.ID())), zap.String("name", mon.Name))...)
}

func (s *MonsterSystem) remove(avatarID ecs.EntityID, a message.Args) {
	e, mon, ok := s.coord.Monster(avatarID, a.MonsterID)
	if !ok {
		s.log.Warn("remove monster: unknown monster",
			zap.Uint64("avatar", uint64(avatarID)),
			zap.Uint64("monster", uint64(a.MonsterID)))
		return
	}
	s.coord.ReleaseMonster(mon.SpaceID, e.ID())
	s.coord.World().MarkForDestruction(e.ID())
}

// WorkRequestSystem handles START_WORK and STOP_WORK by registering or
// canceling work flows.
type WorkRequestSystem struct {
	coord *work.Coordinator
	log   *zap.Logger
}

func NewWorkRequestSystem(coord *work.Coordinator, log *zap.Logger) *WorkRequestSystem {
	return &WorkRequestSystem{coord: coord, log: log}
}

func (s *WorkRequestSystem) Name() string         { return NameWorkRequest }
func (s *WorkRequestSystem) Phase() coresys.Phase { return coresys.PhaseExecute }
func (s *WorkRequestSystem) After() []string      { return []string{NameMonster} }

func (s *WorkRequestSystem) Update(_ time.Duration) {
	w := s.coord.World()
	eachMessage(w, message.TypeStartWork, func(avatar *ecs.Entity, m message.Message) {
		a := m.Args
		s.coord.RequestFlow(work.Request{
			AvatarID:   avatar.ID(),
			SpaceID:    a.SpaceID,
			MonsterID:  a.MonsterID,
			BuildingID: a.BuildingID,
			WorkType:   a.WorkType,
			Coord:      a.Coord(),
		})
	})
	eachMessage(w, message.TypeStopWork, func(avatar *ecs.Entity, m message.Message) {
		a := m.Args
		if _, _, ok := s.coord.Monster(avatar.ID(), a.MonsterID); !ok {
			s.log.Warn("stop work: unknown monster",
				zap.Uint64("avatar", uint64(avatar.ID())),
				zap.Uint64("monster", uint64(a.MonsterID)))
			return
		}
		s.coord.CancelFlow(a.SpaceID, a.MonsterID)
	})
}
