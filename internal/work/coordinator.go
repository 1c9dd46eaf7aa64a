// Package work validates, starts, advances and stops work sessions of the four
// work variants, and drives the move-then-work flow of each monster.
package work

import (
	"go.uber.org/zap"

	"github.com/hexcolony/server/internal/component"
	"github.com/hexcolony/server/internal/core/clock"
	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/core/event"
	"github.com/hexcolony/server/internal/data"
	"github.com/hexcolony/server/internal/hex"
)

// Request names a monster, the work it should perform and where.
type Request struct {
	AvatarID   ecs.EntityID
	SpaceID    ecs.EntityID
	MonsterID  ecs.EntityID
	BuildingID ecs.EntityID // optional, otherwise the building on Coord
	WorkType   string
	Coord      hex.Coord
}

func (r Request) fields() []zap.Field {
	return []zap.Field{
		zap.Uint64("avatar", uint64(r.AvatarID)),
		zap.Uint64("space", uint64(r.SpaceID)),
		zap.Uint64("monster", uint64(r.MonsterID)),
		zap.String("work", r.WorkType),
		zap.Stringer("coord", r.Coord),
	}
}

// Coordinator owns the work rules of one world.
type Coordinator struct {
	world    *ecs.World
	tables   *data.Tables
	clock    *clock.Virtual
	bus      *event.Bus
	formulas Formulas
	rules    map[data.Variant]rules
	log      *zap.Logger
}

func NewCoordinator(world *ecs.World, tables *data.Tables, clk *clock.Virtual, bus *event.Bus, formulas Formulas, log *zap.Logger) *Coordinator {
	if formulas == nil {
		formulas = StandardFormulas{}
	}
	return &Coordinator{
		world:    world,
		tables:   tables,
		clock:    clk,
		bus:      bus,
		formulas: formulas,
		rules: map[data.Variant]rules{
			data.VariantProduction: productionRules{},
			data.VariantBuilding:   buildingRules{},
			data.VariantRest:       restRules{},
			data.VariantSynthetic:  syntheticRules{},
		},
		log: log,
	}
}

func (c *Coordinator) World() *ecs.World     { return c.world }
func (c *Coordinator) Tables() *data.Tables  { return c.tables }
func (c *Coordinator) Clock() *clock.Virtual { return c.clock }

// session is a request resolved against the world.
type session struct {
	req      Request
	def      *data.WorkTemplate
	rules    rules
	species  *data.SpeciesTemplate
	backpack *component.Backpack
	spaceEnt *ecs.Entity
	space    *component.Space
	monEnt   *ecs.Entity
	monster  *component.Monster
	bldEnt   *ecs.Entity // nil when a building session will place it
	building *component.Building
	progress *component.WorkProgress
}

// Space resolves a space owned by avatar.
func (c *Coordinator) Space(avatarID, spaceID ecs.EntityID) (*ecs.Entity, *component.Space, bool) {
	e, ok := c.world.Entity(spaceID)
	if !ok {
		return nil, nil, false
	}
	sp, ok := ecs.Get[*component.Space](e, component.KindSpace)
	if !ok || sp.AvatarID != avatarID {
		return nil, nil, false
	}
	return e, sp, true
}

// Backpack resolves an avatar's backpack.
func (c *Coordinator) Backpack(avatarID ecs.EntityID) (*component.Backpack, bool) {
	e, ok := c.world.Entity(avatarID)
	if !ok {
		return nil, false
	}
	return ecs.Get[*component.Backpack](e, component.KindBackpack)
}

// Monster resolves a monster owned by avatar.
func (c *Coordinator) Monster(avatarID, monsterID ecs.EntityID) (*ecs.Entity, *component.Monster, bool) {
	e, ok := c.world.Entity(monsterID)
	if !ok {
		return nil, nil, false
	}
	m, ok := ecs.Get[*component.Monster](e, component.KindMonster)
	if !ok || m.AvatarID != avatarID {
		return nil, nil, false
	}
	return e, m, true
}

// Building resolves a building owned by avatar.
func (c *Coordinator) Building(avatarID, buildingID ecs.EntityID) (*ecs.Entity, *component.Building, bool) {
	e, ok := c.world.Entity(buildingID)
	if !ok {
		return nil, nil, false
	}
	b, ok := ecs.Get[*component.Building](e, component.KindBuilding)
	if !ok || b.AvatarID != avatarID {
		return nil, nil, false
	}
	return e, b, true
}

func (c *Coordinator) resolve(req Request) (*session, bool) {
	log := c.log.With(req.fields()...)

	def := c.tables.Works.Get(req.WorkType)
	if def == nil {
		log.Warn("unknown work type")
		return nil, false
	}
	r, ok := c.rules[def.Variant]
	if !ok {
		log.Warn("work type has no variant rules", zap.Stringer("variant", def.Variant))
		return nil, false
	}
	s := &session{req: req, def: def, rules: r}

	if s.spaceEnt, s.space, ok = c.Space(req.AvatarID, req.SpaceID); !ok || s.space.Grid == nil {
		log.Warn("space not found or not owned")
		return nil, false
	}
	if s.backpack, ok = c.Backpack(req.AvatarID); !ok {
		log.Warn("avatar has no backpack")
		return nil, false
	}
	if s.monEnt, s.monster, ok = c.Monster(req.AvatarID, req.MonsterID); !ok || s.monster.SpaceID != req.SpaceID {
		log.Warn("monster not found or not owned")
		return nil, false
	}
	s.species = c.tables.Species.Get(s.monster.Species)
	if s.species == nil {
		log.Warn("monster has unknown species", zap.String("species", s.monster.Species))
		return nil, false
	}
	if s.progress, ok = ecs.Get[*component.WorkProgress](s.spaceEnt, component.WorkKind(def.Variant)); !ok {
		log.Warn("space has no progress component", zap.Stringer("variant", def.Variant))
		return nil, false
	}

	id := req.BuildingID
	if id == 0 {
		id = s.space.Occupant(req.Coord)
	}
	if id != 0 {
		if s.bldEnt, s.building, ok = c.Building(req.AvatarID, id); !ok || s.building.SpaceID != req.SpaceID {
			log.Warn("building not found or not owned", zap.Uint64("building", uint64(id)))
			return nil, false
		}
	}
	return s, true
}

// CheckCanStartWork runs every start precondition without changing state.
func (c *Coordinator) CheckCanStartWork(req Request) bool {
	s, ok := c.resolve(req)
	return ok && c.check(s)
}

func (c *Coordinator) check(s *session) bool {
	log := c.log.With(s.req.fields()...)
	m := s.monster
	switch {
	case m.Status != component.MonsterIdle:
		log.Debug("monster is not idle", zap.Stringer("status", m.Status))
		return false
	case m.Level < s.def.RequiredLevel:
		log.Debug("monster level too low", zap.Int("level", m.Level), zap.Int("required", s.def.RequiredLevel))
		return false
	case m.Stamina < s.def.StaminaCost:
		log.Debug("not enough stamina", zap.Float64("stamina", m.Stamina))
		return false
	case s.species.WorkEfficiency(s.def.Type) <= 0:
		log.Debug("species cannot perform work", zap.String("species", s.species.Type))
		return false
	}
	if c.activeRecord(s.spaceEnt, s.monEnt.ID()) != nil {
		log.Debug("monster already has a work session")
		return false
	}
	if !s.rules.acceptsBuilding(c, s) {
		return false
	}
	if s.building != nil && !s.building.HasFreeSlot() {
		log.Debug("building has no free worker slot")
		return false
	}
	if s.rules.chargesInputs() && s.needsPayment() && !s.backpack.CanAfford(s.def.Inputs) {
		log.Debug("inputs not affordable")
		return false
	}
	return true
}

// needsPayment is false for a building session on a building that already
// exists: placing it paid the construction cost.
func (s *session) needsPayment() bool {
	return s.def.Variant != data.VariantBuilding || s.building == nil
}

// StartWork validates the request and opens a progress record. On success
// the monster is Working and holds a worker slot of the building.
func (c *Coordinator) StartWork(req Request) bool {
	s, ok := c.resolve(req)
	if !ok || !c.check(s) {
		return false
	}

	var paid map[data.ItemType]int
	if s.rules.chargesInputs() && s.needsPayment() && len(s.def.Inputs) > 0 {
		if !s.backpack.Deduct(s.def.Inputs) {
			return false
		}
		paid = make(map[data.ItemType]int, len(s.def.Inputs))
		for it, n := range s.def.Inputs {
			paid[it] = n
		}
	}
	refund := func() {
		if paid != nil {
			s.backpack.Add(paid)
		}
	}

	created := false
	if s.building == nil {
		e, ok := c.placeBuilding(s.spaceEnt, s.space, req.AvatarID, s.def.BuildingType, req.Coord)
		if !ok {
			refund()
			return false
		}
		s.bldEnt = e
		s.building, _ = ecs.Get[*component.Building](e, component.KindBuilding)
		created = true
	}
	if !s.building.AddWorker(s.monEnt.ID()) {
		c.log.Debug("building refused worker", req.fields()...)
		if created {
			c.destroyBuilding(s.bldEnt, s.building)
		}
		refund()
		return false
	}
	s.monster.SpendStamina(s.def.StaminaCost)
	s.monster.SetStatus(component.MonsterWorking)

	speciesEff := s.species.WorkEfficiency(s.def.Type)
	now := c.clock.Now()
	rec := &component.ProgressRecord{
		MonsterID:  s.monEnt.ID(),
		AvatarID:   req.AvatarID,
		SpaceID:    req.SpaceID,
		BuildingID: s.bldEnt.ID(),
		WorkType:   s.def.Type,
		Coord:      s.building.Coord,
		StartTime:  now,
		EndTime:    now + c.formulas.WorkDuration(s.def, speciesEff, s.building.Efficiency),
		LastTime:   now,
		Efficiency: Efficiency(speciesEff, s.building.Efficiency),
		Paid:       paid,
		Created:    created,
		Def:        s.def,
	}
	s.progress.Put(rec)
	c.log.Debug("work started", append(req.fields(),
		zap.Uint64("building", uint64(rec.BuildingID)),
		zap.Int64("duration_ms", rec.EndTime-rec.StartTime))...)
	return true
}

// activeRecord finds a monster's session in any variant of the space.
func (c *Coordinator) activeRecord(spaceEnt *ecs.Entity, monster ecs.EntityID) *component.ProgressRecord {
	for _, v := range data.Variants {
		p, ok := ecs.Get[*component.WorkProgress](spaceEnt, component.WorkKind(v))
		if !ok {
			continue
		}
		if rec, ok := p.Get(monster); ok {
			return rec
		}
	}
	return nil
}

// Record returns the running session of a monster on a space.
func (c *Coordinator) Record(spaceID, monster ecs.EntityID) (*component.ProgressRecord, data.Variant, bool) {
	e, ok := c.world.Entity(spaceID)
	if !ok {
		return nil, 0, false
	}
	for _, v := range data.Variants {
		p, ok := ecs.Get[*component.WorkProgress](e, component.WorkKind(v))
		if !ok {
			continue
		}
		if rec, ok := p.Get(monster); ok {
			return rec, v, true
		}
	}
	return nil, 0, false
}

// StopWork ends a monster's session. complete applies the variant's outputs;
// otherwise prepaid inputs are refunded. The worker slot is freed, the
// monster returns to Idle and the record is deleted either way.
func (c *Coordinator) StopWork(spaceID, monster ecs.EntityID, complete bool) bool {
	spaceEnt, ok := c.world.Entity(spaceID)
	if !ok {
		return false
	}
	for _, v := range data.Variants {
		p, ok := ecs.Get[*component.WorkProgress](spaceEnt, component.WorkKind(v))
		if !ok {
			continue
		}
		if rec, ok := p.Get(monster); ok {
			c.stop(p, rec, complete)
			return true
		}
	}
	return false
}

func (c *Coordinator) stop(p *component.WorkProgress, rec *component.ProgressRecord, complete bool) {
	r := c.rules[p.Variant]
	bp, _ := c.Backpack(rec.AvatarID)
	bldEnt, b, hasBuilding := c.Building(rec.AvatarID, rec.BuildingID)

	if complete {
		if r != nil {
			r.complete(c, rec, bp, b)
		}
	} else if bp != nil && len(rec.Paid) > 0 {
		bp.Add(rec.Paid)
	}

	if hasBuilding {
		b.RemoveWorker(rec.MonsterID)
		if !complete && rec.Created && len(b.Workers) == 0 && b.State != component.BuildingConstructed {
			c.destroyBuilding(bldEnt, b)
		}
	}
	if _, m, ok := c.Monster(rec.AvatarID, rec.MonsterID); ok {
		m.SetStatus(component.MonsterIdle)
	}
	p.Delete(rec.MonsterID)

	if complete {
		event.Emit(c.bus, event.WorkFinished{MonsterID: rec.MonsterID, BuildingID: rec.BuildingID, WorkType: rec.WorkType})
	} else {
		event.Emit(c.bus, event.WorkCanceled{MonsterID: rec.MonsterID, BuildingID: rec.BuildingID, WorkType: rec.WorkType})
	}
	c.log.Debug("work stopped",
		zap.Uint64("monster", uint64(rec.MonsterID)),
		zap.String("work", rec.WorkType),
		zap.Bool("complete", complete))
}
