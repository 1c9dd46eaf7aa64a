package component

import (
	"fmt"
	"slices"

	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/data"
	"github.com/hexcolony/server/internal/hex"
)

type BuildingState int

const (
	BuildingInit BuildingState = iota
	BuildingConstructing
	BuildingConstructed
	BuildingDestroyed
)

func (s BuildingState) String() string {
	switch s {
	case BuildingInit:
		return "Init"
	case BuildingConstructing:
		return "Constructing"
	case BuildingConstructed:
		return "Constructed"
	case BuildingDestroyed:
		return "Destroyed"
	default:
		return fmt.Sprintf("BuildingState(%d)", int(s))
	}
}

// Building is the mutable record derived from a building template plus its
// ownership and construction state.
type Building struct {
	ecs.Base
	Type       string         `json:"type"`
	AvatarID   ecs.EntityID   `json:"avatarId"`
	SpaceID    ecs.EntityID   `json:"spaceId"`
	Coord      hex.Coord      `json:"coord"`
	State      BuildingState  `json:"state"`
	Workers    []ecs.EntityID `json:"workers"`
	Capacity   int            `json:"capacity"`
	Efficiency float64        `json:"efficiency"`
	WorkTypes  []string       `json:"workTypes"`
}

// Apply copies the static template fields.
func (b *Building) Apply(t *data.BuildingTemplate) {
	b.Type = t.Type
	b.Capacity = t.Capacity
	b.Efficiency = t.Efficiency
	b.WorkTypes = append([]string(nil), t.WorkTypes...)
	b.MarkDirty()
}

func (b *Building) SetState(s BuildingState) {
	if b.State == s {
		return
	}
	b.State = s
	b.MarkDirty()
}

func (b *Building) Supports(workType string) bool {
	return slices.Contains(b.WorkTypes, workType)
}

func (b *Building) HasFreeSlot() bool { return len(b.Workers) < b.Capacity }

func (b *Building) HasWorker(id ecs.EntityID) bool { return slices.Contains(b.Workers, id) }

// AddWorker takes a slot; false when full or already working here.
func (b *Building) AddWorker(id ecs.EntityID) bool {
	if !b.HasFreeSlot() || b.HasWorker(id) {
		return false
	}
	b.Workers = append(b.Workers, id)
	b.MarkDirty()
	return true
}

// RemoveWorker frees the monster's slot.
func (b *Building) RemoveWorker(id ecs.EntityID) bool {
	i := slices.Index(b.Workers, id)
	if i < 0 {
		return false
	}
	b.Workers = slices.Delete(b.Workers, i, i+1)
	b.MarkDirty()
	return true
}
