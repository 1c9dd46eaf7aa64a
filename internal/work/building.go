package work

import (
	"go.uber.org/zap"

	"github.com/hexcolony/server/internal/component"
	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/core/event"
	"github.com/hexcolony/server/internal/hex"
)

// PlaceBuilding creates a building of typ on a free walkable hex of an owned
// space, paying the template cost from the avatar's backpack. The building
// starts Constructing.
func (c *Coordinator) PlaceBuilding(avatarID, spaceID ecs.EntityID, typ string, at hex.Coord) (*ecs.Entity, bool) {
	log := c.log.With(zap.Uint64("avatar", uint64(avatarID)), zap.Uint64("space", uint64(spaceID)),
		zap.String("building", typ), zap.Stringer("coord", at))

	spaceEnt, sp, ok := c.Space(avatarID, spaceID)
	if !ok || sp.Grid == nil {
		log.Warn("space not found or not owned")
		return nil, false
	}
	t := c.tables.Buildings.Get(typ)
	if t == nil {
		log.Warn("unknown building type")
		return nil, false
	}
	bp, ok := c.Backpack(avatarID)
	if !ok {
		log.Warn("avatar has no backpack")
		return nil, false
	}
	if !sp.CanMove(at) || sp.Occupant(at) != 0 {
		log.Debug("hex is not free")
		return nil, false
	}
	if !bp.CanAfford(t.Cost) {
		log.Debug("building cost not affordable")
		return nil, false
	}
	e, ok := c.placeBuilding(spaceEnt, sp, avatarID, typ, at)
	if !ok {
		return nil, false
	}
	bp.Deduct(t.Cost)
	return e, true
}

func (c *Coordinator) placeBuilding(spaceEnt *ecs.Entity, sp *component.Space, avatarID ecs.EntityID, typ string, at hex.Coord) (*ecs.Entity, bool) {
	t := c.tables.Buildings.Get(typ)
	if t == nil || !sp.CanMove(at) || sp.Occupant(at) != 0 {
		return nil, false
	}
	e := c.world.CreateEntity(component.EntityBuilding)
	if e == nil {
		return nil, false
	}
	b, _ := ecs.Get[*component.Building](e, component.KindBuilding)
	b.Apply(t)
	b.AvatarID = avatarID
	b.SpaceID = spaceEnt.ID()
	b.Coord = at
	b.SetState(component.BuildingConstructing)
	if tr, ok := ecs.Get[*component.Transform](e, component.KindTransform); ok {
		tr.Place(at, sp.Grid.Layout)
	}
	sp.Occupy(at, e.ID())
	c.log.Debug("building placed", zap.Uint64("building", uint64(e.ID())), zap.String("type", typ), zap.Stringer("coord", at))
	return e, true
}

// RemoveBuilding cancels every session and flow bound to an owned building
// and destroys it at the end of the tick.
func (c *Coordinator) RemoveBuilding(avatarID, buildingID ecs.EntityID) bool {
	e, b, ok := c.Building(avatarID, buildingID)
	if !ok {
		c.log.Warn("remove building: not found or not owned",
			zap.Uint64("avatar", uint64(avatarID)), zap.Uint64("building", uint64(buildingID)))
		return false
	}
	if spaceEnt, ok := c.world.Entity(b.SpaceID); ok {
		if flows, ok := ecs.Get[*component.WorkFlows](spaceEnt, component.KindWorkFlows); ok {
			for _, id := range flows.Monsters() {
				rec, _ := flows.Get(id)
				if rec.BuildingID == buildingID || rec.Target == b.Coord {
					c.cancelNow(flows, rec)
				}
			}
		}
	}
	for _, w := range append([]ecs.EntityID(nil), b.Workers...) {
		c.StopWork(b.SpaceID, w, false)
	}
	c.destroyBuilding(e, b)
	return true
}

func (c *Coordinator) destroyBuilding(e *ecs.Entity, b *component.Building) {
	if spaceEnt, ok := c.world.Entity(b.SpaceID); ok {
		if sp, ok := ecs.Get[*component.Space](spaceEnt, component.KindSpace); ok && sp.Occupant(b.Coord) == e.ID() {
			sp.Occupy(b.Coord, 0)
		}
	}
	b.SetState(component.BuildingDestroyed)
	c.world.MarkForDestruction(e.ID())
	c.log.Debug("building destroyed", zap.Uint64("building", uint64(e.ID())))
}

func (c *Coordinator) emitConstructed(id ecs.EntityID, typ string) {
	event.Emit(c.bus, event.BuildingConstructed{BuildingID: id, Type: typ})
}
