package work

import (
	"go.uber.org/zap"

	"github.com/hexcolony/server/internal/component"
	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/nav"
)

// mover is the resolved monster side of a flow.
type mover struct {
	monster *component.Monster
	tr      *component.Transform
	nav     *component.Navigation
	mv      *component.Movement
}

func (c *Coordinator) resolveMover(avatarID, monsterID ecs.EntityID) (*mover, bool) {
	e, m, ok := c.Monster(avatarID, monsterID)
	if !ok {
		return nil, false
	}
	out := &mover{monster: m}
	if out.tr, ok = ecs.Get[*component.Transform](e, component.KindTransform); !ok {
		return nil, false
	}
	if out.nav, ok = ecs.Get[*component.Navigation](e, component.KindNavigation); !ok {
		return nil, false
	}
	if out.mv, ok = ecs.Get[*component.Movement](e, component.KindMovement); !ok {
		return nil, false
	}
	return out, true
}

func (c *Coordinator) flows(spaceID ecs.EntityID) (*component.WorkFlows, bool) {
	e, ok := c.world.Entity(spaceID)
	if !ok {
		return nil, false
	}
	return ecs.Get[*component.WorkFlows](e, component.KindWorkFlows)
}

// HasFlow reports whether a monster is driven by a work flow.
func (c *Coordinator) HasFlow(spaceID, monsterID ecs.EntityID) bool {
	f, ok := c.flows(spaceID)
	if !ok {
		return false
	}
	_, ok = f.Get(monsterID)
	return ok
}

// RequestFlow registers a move-then-work intent for a monster. The request
// is validated up front and again when the monster reaches the target.
func (c *Coordinator) RequestFlow(req Request) bool {
	flows, ok := c.flows(req.SpaceID)
	if !ok {
		c.log.Warn("start work: space has no work flows", req.fields()...)
		return false
	}
	if _, busy := flows.Get(req.MonsterID); busy {
		c.log.Debug("start work: monster already has a flow", req.fields()...)
		return false
	}
	if !c.CheckCanStartWork(req) {
		return false
	}
	if _, ok := c.resolveMover(req.AvatarID, req.MonsterID); !ok {
		c.log.Warn("start work: monster cannot move", req.fields()...)
		return false
	}
	return flows.Put(&component.WorkFlowRecord{
		AvatarID:   req.AvatarID,
		SpaceID:    req.SpaceID,
		MonsterID:  req.MonsterID,
		BuildingID: req.BuildingID,
		Target:     req.Coord,
		WorkType:   req.WorkType,
		Status:     component.FlowNone,
	})
}

// CancelFlow marks a monster's flow Canceled; teardown happens on the next
// flow update. A session running without a flow is stopped directly.
func (c *Coordinator) CancelFlow(spaceID, monsterID ecs.EntityID) bool {
	if flows, ok := c.flows(spaceID); ok {
		if rec, ok := flows.Get(monsterID); ok {
			flows.SetStatus(rec, component.FlowCanceled)
			return true
		}
	}
	return c.StopWork(spaceID, monsterID, false)
}

// ReleaseMonster tears down everything a monster is doing right away.
func (c *Coordinator) ReleaseMonster(spaceID, monsterID ecs.EntityID) {
	if flows, ok := c.flows(spaceID); ok {
		if rec, ok := flows.Get(monsterID); ok {
			c.cancelNow(flows, rec)
		}
	}
	c.StopWork(spaceID, monsterID, false)
}

// AdvanceFlows runs one step of every work flow.
func (c *Coordinator) AdvanceFlows() {
	for _, e := range c.world.Query(component.KindWorkFlows) {
		flows, ok := ecs.Get[*component.WorkFlows](e, component.KindWorkFlows)
		if !ok {
			continue
		}
		for _, id := range flows.Monsters() {
			rec, ok := flows.Get(id)
			if !ok {
				continue
			}
			// A step may move through several states in one tick, e.g.
			// None straight to Working when the monster is on the target.
			for i := 0; i < 4; i++ {
				if !c.stepFlow(flows, rec) {
					break
				}
			}
		}
	}
}

// stepFlow advances rec by one state and reports whether to step again.
func (c *Coordinator) stepFlow(flows *component.WorkFlows, rec *component.WorkFlowRecord) bool {
	log := c.log.With(zap.Uint64("monster", uint64(rec.MonsterID)), zap.String("work", rec.WorkType))

	if rec.Status == component.FlowCanceled {
		c.cancelNow(flows, rec)
		return false
	}
	mo, ok := c.resolveMover(rec.AvatarID, rec.MonsterID)
	if !ok {
		log.Warn("work flow lost its monster")
		c.StopWork(rec.SpaceID, rec.MonsterID, false)
		flows.Delete(rec.MonsterID)
		return false
	}

	switch rec.Status {
	case component.FlowNone:
		if mo.tr.Coord == rec.Target {
			flows.SetStatus(rec, component.FlowMovingDone)
			return true
		}
		rec.NavVersion = nav.Start(mo.nav, mo.tr, rec.Target)
		mo.monster.SetStatus(component.MonsterMoving)
		flows.SetStatus(rec, component.FlowMoving)
		return false

	case component.FlowMoving:
		if mo.nav.Version != rec.NavVersion {
			log.Debug("work flow navigation superseded")
			c.abort(flows, rec, mo)
			return false
		}
		switch mo.nav.State {
		case component.NavArrived:
			mo.monster.SetStatus(component.MonsterIdle)
			flows.SetStatus(rec, component.FlowMovingDone)
			return true
		case component.NavFailed:
			log.Debug("work flow navigation failed")
			c.abort(flows, rec, mo)
		}
		return false

	case component.FlowMovingDone:
		if !c.StartWork(c.flowRequest(rec)) {
			log.Info("work flow could not start work, aborting")
			c.abort(flows, rec, mo)
			return false
		}
		flows.SetStatus(rec, component.FlowWorking)
		return false

	case component.FlowWorking:
		if r, _, ok := c.Record(rec.SpaceID, rec.MonsterID); ok && !r.Done() {
			return false
		}
		flows.SetStatus(rec, component.FlowFinished)
		return true

	case component.FlowFinished:
		flows.Delete(rec.MonsterID)
		return false
	}
	return false
}

func (c *Coordinator) flowRequest(rec *component.WorkFlowRecord) Request {
	return Request{
		AvatarID:   rec.AvatarID,
		SpaceID:    rec.SpaceID,
		MonsterID:  rec.MonsterID,
		BuildingID: rec.BuildingID,
		WorkType:   rec.WorkType,
		Coord:      rec.Target,
	}
}

// abort drops a flow that cannot continue and leaves the monster Idle.
func (c *Coordinator) abort(flows *component.WorkFlows, rec *component.WorkFlowRecord, mo *mover) {
	if rec.Status == component.FlowMoving && mo.nav.Version == rec.NavVersion {
		nav.Stop(mo.nav, mo.mv)
	}
	if mo.monster.Status == component.MonsterMoving {
		mo.monster.SetStatus(component.MonsterIdle)
	}
	flows.Delete(rec.MonsterID)
}

// cancelNow undoes whatever stage a flow reached and removes it.
func (c *Coordinator) cancelNow(flows *component.WorkFlows, rec *component.WorkFlowRecord) {
	stage := rec.Status
	if stage == component.FlowCanceled {
		stage = rec.PrevStatus
	}
	mo, ok := c.resolveMover(rec.AvatarID, rec.MonsterID)
	switch stage {
	case component.FlowMoving:
		if ok && mo.nav.Version == rec.NavVersion {
			nav.Stop(mo.nav, mo.mv)
		}
	case component.FlowWorking:
		c.StopWork(rec.SpaceID, rec.MonsterID, false)
	}
	if ok && mo.monster.Status == component.MonsterMoving {
		mo.monster.SetStatus(component.MonsterIdle)
	}
	flows.Delete(rec.MonsterID)
}
