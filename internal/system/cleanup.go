package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/hexcolony/server/internal/component"
	"github.com/hexcolony/server/internal/core/ecs"
	coresync "github.com/hexcolony/server/internal/core/sync"
	coresys "github.com/hexcolony/server/internal/core/system"
)

// CleanupSystem drops unconsumed inbox messages and flushes the deferred
// entity destruction queue at tick end.
type CleanupSystem struct {
	world *ecs.World
	log   *zap.Logger
}

func NewCleanupSystem(world *ecs.World, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: world, log: log}
}

func (s *CleanupSystem) Name() string         { return NameCleanup }
func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseClean }

func (s *CleanupSystem) Update(_ time.Duration) {
	for _, e := range s.world.Query(component.KindInbox) {
		in, _ := ecs.Get[*component.Inbox](e, component.KindInbox)
		if n := in.Len(); n > 0 {
			s.log.Debug("dropping unhandled messages", zap.Uint64("entity", uint64(e.ID())), zap.Int("count", n))
			in.Clear()
		}
	}
	s.world.FlushDestroyQueue()
}

// ResyncSystem writes the whole entity set as additions straight to one
// target sink, so a newly joined client can build its view. It bypasses the
// world's change queue: clients already connected never see the replay, and
// later removals still reach them. It runs only when triggered.
type ResyncSystem struct {
	world  *ecs.World
	target coresync.Sink
	log    *zap.Logger
}

func NewResyncSystem(world *ecs.World, log *zap.Logger) *ResyncSystem {
	return &ResyncSystem{world: world, log: log}
}

func (s *ResyncSystem) Name() string         { return NameResync }
func (s *ResyncSystem) Phase() coresys.Phase { return coresys.PhaseReactive }

// SetTarget chooses the sink of the next replay.
func (s *ResyncSystem) SetTarget(sink coresync.Sink) { s.target = sink }

func (s *ResyncSystem) Update(_ time.Duration) {
	target := s.target
	s.target = nil
	if target == nil {
		s.log.Debug("resync without target")
		return
	}
	entities := s.world.Entities()
	for _, e := range entities {
		target.EntityAdded(coresync.EntityEvent{ID: e.ID(), Kind: e.Kind()})
	}
	for _, e := range entities {
		for _, c := range e.Components() {
			target.ComponentAdded(coresync.ComponentEvent{Entity: e.ID(), Kind: c.Kind(), Component: c})
		}
	}
	s.log.Debug("resync sent", zap.Int("entities", len(entities)))
}
