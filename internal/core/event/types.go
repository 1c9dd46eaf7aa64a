package event

import "github.com/hexcolony/server/internal/core/ecs"

// WorkFinished is emitted when a work session completes with its outputs applied.
type WorkFinished struct {
	MonsterID  ecs.EntityID
	BuildingID ecs.EntityID
	WorkType   string
}

// WorkCanceled is emitted when a work session stops before completion.
type WorkCanceled struct {
	MonsterID  ecs.EntityID
	BuildingID ecs.EntityID
	WorkType   string
}

// BuildingConstructed is emitted when a building reaches the Constructed state.
type BuildingConstructed struct {
	BuildingID ecs.EntityID
	Type       string
}

// NavigationEnded is emitted when a navigation attempt arrives or fails.
type NavigationEnded struct {
	EntityID ecs.EntityID
	Arrived  bool
}
