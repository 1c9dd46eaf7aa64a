package work

import (
	"time"

	"go.uber.org/zap"

	"github.com/hexcolony/server/internal/component"
	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/data"
)

// rules is what differs between the four work variants.
type rules interface {
	// acceptsBuilding checks the variant's building precondition. The
	// session's building is nil when nothing stands on the target hex.
	acceptsBuilding(c *Coordinator, s *session) bool
	// chargesInputs reports whether inputs are paid at start and refunded
	// on cancellation.
	chargesInputs() bool
	// tick runs once per update before progress is recomputed.
	tick(c *Coordinator, rec *component.ProgressRecord, dt time.Duration)
	// complete applies the variant's outputs.
	complete(c *Coordinator, rec *component.ProgressRecord, bp *component.Backpack, b *component.Building)
}

// constructedBuilding is the shared precondition of every variant that works
// inside a finished building.
func constructedBuilding(c *Coordinator, s *session) bool {
	log := c.log.With(s.req.fields()...)
	switch {
	case s.building == nil:
		log.Debug("no building on target hex")
		return false
	case s.building.State != component.BuildingConstructed:
		log.Debug("building is not constructed", zap.Stringer("state", s.building.State))
		return false
	case !s.building.Supports(s.def.Type):
		log.Debug("building does not support work", zap.String("building", s.building.Type))
		return false
	}
	return true
}

func grantOutputs(rec *component.ProgressRecord, bp *component.Backpack) {
	if bp == nil || rec.Def == nil {
		return
	}
	bp.Add(rec.Def.Outputs)
}

type productionRules struct{}

func (productionRules) acceptsBuilding(c *Coordinator, s *session) bool {
	return constructedBuilding(c, s)
}
func (productionRules) chargesInputs() bool {
	return false
}
func (productionRules) tick(*Coordinator, *component.ProgressRecord, time.Duration) {}
func (productionRules) complete(_ *Coordinator, rec *component.ProgressRecord, bp *component.Backpack, _ *component.Building) {
	grantOutputs(rec, bp)
}

// buildingRules constructs def.BuildingType on the target hex, placing it
// first when the hex is empty. Working on a finished building is allowed and
// leaves it as is.
type buildingRules struct{}

func (buildingRules) acceptsBuilding(c *Coordinator, s *session) bool {
	log := c.log.With(s.req.fields()...)
	if s.building == nil {
		if c.tables.Buildings.Get(s.def.BuildingType) == nil {
			log.Warn("building work names unknown building type", zap.String("building", s.def.BuildingType))
			return false
		}
		if !s.space.CanMove(s.req.Coord) {
			log.Debug("target hex is not buildable")
			return false
		}
		return true
	}
	switch {
	case s.building.Type != s.def.BuildingType:
		log.Debug("building type does not match work", zap.String("building", s.building.Type))
		return false
	case s.building.State == component.BuildingDestroyed:
		log.Debug("building is destroyed")
		return false
	}
	return true
}
func (buildingRules) chargesInputs() bool {
	return true
}
func (buildingRules) tick(*Coordinator, *component.ProgressRecord, time.Duration) {}
func (buildingRules) complete(c *Coordinator, rec *component.ProgressRecord, _ *component.Backpack, b *component.Building) {
	if b == nil || b.State == component.BuildingConstructed {
		return
	}
	b.SetState(component.BuildingConstructed)
	c.emitConstructed(rec.BuildingID, b.Type)
}

// restRules regenerates stamina every tick and yields nothing at the end.
type restRules struct{}

func (restRules) acceptsBuilding(c *Coordinator, s *session) bool {
	return constructedBuilding(c, s)
}
func (restRules) chargesInputs() bool {
	return false
}
func (restRules) tick(c *Coordinator, rec *component.ProgressRecord, dt time.Duration) {
	if rec.Def == nil || dt <= 0 {
		return
	}
	_, m, ok := c.Monster(rec.AvatarID, rec.MonsterID)
	if !ok {
		return
	}
	m.GainStamina(c.formulas.RestStamina(rec.Def, rec.Efficiency, dt))
}
func (restRules) complete(*Coordinator, *component.ProgressRecord, *component.Backpack, *component.Building) {
}

// syntheticRules converts inputs paid at start into outputs.
type syntheticRules struct{}

func (syntheticRules) acceptsBuilding(c *Coordinator, s *session) bool {
	return constructedBuilding(c, s)
}
func (syntheticRules) chargesInputs() bool {
	return true
}
func (syntheticRules) tick(*Coordinator, *component.ProgressRecord, time.Duration) {}
func (syntheticRules) complete(_ *Coordinator, rec *component.ProgressRecord, bp *component.Backpack, _ *component.Building) {
	grantOutputs(rec, bp)
}

// Update advances every session of variant v by one tick and completes the
// ones that reach full progress. A completed record is deleted, so completion
// happens once.
func (c *Coordinator) Update(v data.Variant, dt time.Duration) {
	r := c.rules[v]
	kind := component.WorkKind(v)
	now := c.clock.Now()
	for _, spaceEnt := range c.world.Query(kind) {
		p, ok := ecs.Get[*component.WorkProgress](spaceEnt, kind)
		if !ok {
			continue
		}
		for _, id := range p.Monsters() {
			rec, ok := p.Get(id)
			if !ok {
				continue
			}
			if rec.Def == nil {
				rec.Def = c.tables.Works.Get(rec.WorkType)
				if rec.Def == nil {
					c.log.Warn("dropping session of unknown work type", zap.String("work", rec.WorkType))
					c.stop(p, rec, false)
					continue
				}
			}
			r.tick(c, rec, dt)
			p.Advance(rec, now, progressAt(rec, now))
			if rec.Done() {
				c.stop(p, rec, true)
			}
		}
	}
}

// progressAt is (now-start)/(end-start) clamped to [0,1]; a zero-length
// session is complete immediately.
func progressAt(rec *component.ProgressRecord, now int64) float64 {
	span := rec.EndTime - rec.StartTime
	if span <= 0 {
		return 1
	}
	f := float64(now-rec.StartTime) / float64(span)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
