// Package component holds every component kind of the simulation and the
// startup routine that registers them by name.
package component

import (
	"go.uber.org/zap"

	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/data"
)

const (
	KindRoom            ecs.Kind = "Room"
	KindAvatar          ecs.Kind = "Avatar"
	KindBackpack        ecs.Kind = "Backpack"
	KindInbox           ecs.Kind = "Inbox"
	KindSpace           ecs.Kind = "Space"
	KindBuilding        ecs.Kind = "Building"
	KindMonster         ecs.Kind = "Monster"
	KindTransform       ecs.Kind = "Transform"
	KindMovement        ecs.Kind = "Movement"
	KindNavigation      ecs.Kind = "Navigation"
	KindWorkFlows       ecs.Kind = "WorkFlows"
	KindProductionWorks ecs.Kind = "ProductionWorks"
	KindBuildingWorks   ecs.Kind = "BuildingWorks"
	KindRestWorks       ecs.Kind = "RestWorks"
	KindSyntheticWorks  ecs.Kind = "SyntheticWorks"
	KindMessageQueue    ecs.Kind = "MessageQueue"
)

const (
	EntityRoom     ecs.EntityKind = "room"
	EntityAvatar   ecs.EntityKind = "avatar"
	EntitySpace    ecs.EntityKind = "space"
	EntityBuilding ecs.EntityKind = "building"
	EntityMonster  ecs.EntityKind = "monster"
)

// WorkKind returns the progress component kind that stores records of v.
func WorkKind(v data.Variant) ecs.Kind {
	switch v {
	case data.VariantBuilding:
		return KindBuildingWorks
	case data.VariantRest:
		return KindRestWorks
	case data.VariantSynthetic:
		return KindSyntheticWorks
	default:
		return KindProductionWorks
	}
}

// NewRegistry builds the process-wide registry with every component kind and
// entity kind of the simulation. It replaces registration by import side
// effects: nothing is known to the registry until this runs.
func NewRegistry(log *zap.Logger) *ecs.Registry {
	reg := ecs.NewRegistry(log)

	reg.Register(KindRoom, func() ecs.Component { return &Room{} })
	reg.Register(KindAvatar, func() ecs.Component { return &Avatar{} })
	reg.Register(KindBackpack, func() ecs.Component { return &Backpack{Items: map[data.ItemType]int{}} })
	reg.Register(KindInbox, func() ecs.Component { return NewInbox() })
	reg.Register(KindSpace, func() ecs.Component { return &Space{} })
	reg.Register(KindBuilding, func() ecs.Component { return &Building{} })
	reg.Register(KindMonster, func() ecs.Component { return &Monster{} })
	reg.Register(KindTransform, func() ecs.Component { return &Transform{} })
	reg.Register(KindMovement, func() ecs.Component { return &Movement{} })
	reg.Register(KindNavigation, func() ecs.Component { return &Navigation{} })
	reg.Register(KindWorkFlows, func() ecs.Component { return &WorkFlows{Records: map[ecs.EntityID]*WorkFlowRecord{}} })
	for _, v := range data.Variants {
		v := v
		reg.Register(WorkKind(v), func() ecs.Component { return NewWorkProgress(v) })
	}
	reg.RegisterSingleton(KindMessageQueue, func() ecs.Component { return &MessageQueue{} })

	reg.RegisterEntityKind(EntityRoom, KindRoom, KindInbox)
	reg.RegisterEntityKind(EntityAvatar, KindAvatar, KindBackpack, KindInbox)
	reg.RegisterEntityKind(EntitySpace, KindSpace, KindWorkFlows,
		KindProductionWorks, KindBuildingWorks, KindRestWorks, KindSyntheticWorks)
	reg.RegisterEntityKind(EntityBuilding, KindBuilding, KindTransform)
	reg.RegisterEntityKind(EntityMonster, KindMonster, KindTransform, KindMovement, KindNavigation)
	return reg
}
