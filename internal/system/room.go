package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/hexcolony/server/internal/component"
	"github.com/hexcolony/server/internal/core/ecs"
	coresys "github.com/hexcolony/server/internal/core/system"
	"github.com/hexcolony/server/internal/data"
	"github.com/hexcolony/server/internal/hex"
	"github.com/hexcolony/server/internal/message"
	"github.com/hexcolony/server/internal/snapshot"
)

// SpaceSettings shapes the space every new avatar receives.
type SpaceSettings struct {
	HexSize        float64
	InitialRadius  int
	ObstacleChance float64
	Seed           int64
	StarterItems   map[data.ItemType]int
}

// WorldInitSystem creates the room entity when the world starts empty.
type WorldInitSystem struct {
	world *ecs.World
	name  string
	log   *zap.Logger
}

func NewWorldInitSystem(world *ecs.World, name string, log *zap.Logger) *WorldInitSystem {
	return &WorldInitSystem{world: world, name: name, log: log}
}

func (s *WorldInitSystem) Name() string         { return NameWorldInit }
func (s *WorldInitSystem) Phase() coresys.Phase { return coresys.PhaseInitialize }

func (s *WorldInitSystem) Update(_ time.Duration) {
	if len(s.world.Query(component.KindRoom)) > 0 {
		return
	}
	e := s.world.CreateEntity(component.EntityRoom)
	if e == nil {
		return
	}
	if r, ok := ecs.Get[*component.Room](e, component.KindRoom); ok {
		r.Name = s.name
		r.MarkDirty()
	}
	s.log.Info("room created", zap.Uint64("entity", uint64(e.ID())), zap.String("name", s.name))
}

// RoomSystem handles ENTER_ROOM: it creates an avatar with a seeded backpack
// and its own space.
type RoomSystem struct {
	coresys.Focus
	settings SpaceSettings
	now      func() time.Time
	log      *zap.Logger
}

func NewRoomSystem(world *ecs.World, settings SpaceSettings, log *zap.Logger) *RoomSystem {
	return &RoomSystem{
		Focus:    coresys.NewFocus(world, component.KindRoom, component.KindInbox),
		settings: settings,
		now:      time.Now,
		log:      log,
	}
}

func (s *RoomSystem) Name() string         { return NameRoom }
func (s *RoomSystem) Phase() coresys.Phase { return coresys.PhaseExecute }

func (s *RoomSystem) Update(_ time.Duration) {
	for _, e := range s.Entities() {
		in, _ := ecs.Get[*component.Inbox](e, component.KindInbox)
		for _, m := range in.Take(message.TypeEnterRoom) {
			s.enter(m)
		}
	}
}

func (s *RoomSystem) enter(m message.Message) {
	name := normalizeName(m.Args.Name)
	if name == "" {
		s.log.Warn("enter room: empty name")
		return
	}
	w := s.World()

	av := w.CreateEntity(component.EntityAvatar)
	if av == nil {
		return
	}
	se := w.CreateEntity(component.EntitySpace)
	if se == nil {
		w.DestroyEntity(av.ID())
		return
	}

	a, _ := ecs.Get[*component.Avatar](av, component.KindAvatar)
	a.Name = name
	a.JoinedAt = snapshot.Time{Time: s.now().UTC()}
	a.SpaceID = se.ID()
	a.MarkDirty()
	if bp, ok := ecs.Get[*component.Backpack](av, component.KindBackpack); ok {
		bp.Add(s.settings.StarterItems)
	}

	sp, _ := ecs.Get[*component.Space](se, component.KindSpace)
	sp.AvatarID = av.ID()
	sp.ResetMap(hex.Layout{Size: s.settings.HexSize}, s.settings.ObstacleChance, s.settings.Seed+int64(se.ID()))
	sp.ExpandMapLevel(s.settings.InitialRadius)

	s.log.Info("avatar entered",
		zap.String("name", name),
		zap.Uint64("avatar", uint64(av.ID())),
		zap.Uint64("space", uint64(se.ID())),
		zap.Int("tiles", sp.Grid.Len()))
}

// SpaceSystem handles EXPAND_MAP.
type SpaceSystem struct {
	world *ecs.World
	log   *zap.Logger
}

func NewSpaceSystem(world *ecs.World, log *zap.Logger) *SpaceSystem {
	return &SpaceSystem{world: world, log: log}
}

func (s *SpaceSystem) Name() string         { return NameSpace }
func (s *SpaceSystem) Phase() coresys.Phase { return coresys.PhaseExecute }
func (s *SpaceSystem) After() []string      { return []string{NameRoom} }

func (s *SpaceSystem) Update(_ time.Duration) {
	eachMessage(s.world, message.TypeExpandMap, func(avatar *ecs.Entity, m message.Message) {
		se, ok := s.world.Entity(m.Args.SpaceID)
		if !ok {
			s.log.Warn("expand map: unknown space", zap.Uint64("space", uint64(m.Args.SpaceID)))
			return
		}
		sp, ok := ecs.Get[*component.Space](se, component.KindSpace)
		if !ok || sp.AvatarID != avatar.ID() || sp.Grid == nil {
			s.log.Warn("expand map: space not owned", zap.Uint64("space", uint64(m.Args.SpaceID)),
				zap.Uint64("avatar", uint64(avatar.ID())))
			return
		}
		key := m.Args.Coord().Key()
		if !sp.Grid.InFrontier(m.Args.Coord()) {
			if !m.Args.Random {
				s.log.Debug("expand map: not a frontier cell", zap.String("key", key))
				return
			}
			key = ""
		}
		if t, ok := sp.ExpandMap(key); ok {
			s.log.Debug("map expanded", zap.Uint64("space", uint64(se.ID())), zap.Stringer("coord", t.Coord))
		}
	})
}
