// Package world assembles simulation worlds: the entity table, the system
// runner, the sync queue, the virtual clock and the work coordinator. The
// Manager owns every world of the process and snapshots them.
package world

import (
	"time"

	"go.uber.org/zap"

	"github.com/hexcolony/server/internal/core/clock"
	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/core/event"
	coresync "github.com/hexcolony/server/internal/core/sync"
	coresys "github.com/hexcolony/server/internal/core/system"
	"github.com/hexcolony/server/internal/data"
	"github.com/hexcolony/server/internal/system"
	"github.com/hexcolony/server/internal/work"
)

// Settings are the per-world tunables.
type Settings struct {
	RoomName           string
	MaxMessagesPerTick int
	Space              system.SpaceSettings
}

// Deps are the collaborators shared by every world of the process.
type Deps struct {
	Registry *ecs.Registry
	Tables   *data.Tables
	Formulas work.Formulas
	Source   system.Source
	Log      *zap.Logger
}

// World is one independent simulation: its own entities, clock and systems.
type World struct {
	id      uint64
	ecs     *ecs.World
	runner  *coresys.Runner
	queue   *coresync.Queue
	clock   *clock.Virtual
	watch   *clock.Stopwatch
	bus     *event.Bus
	coord   *work.Coordinator
	sink    coresync.Sink
	resync  *system.ResyncSystem
	primary bool
	log     *zap.Logger
}

// New builds a world and registers its systems. Only the primary world
// drains ingress messages.
func New(id uint64, deps Deps, settings Settings, primary bool) *World {
	log := deps.Log.With(zap.Uint64("world", id))
	w := &World{
		id:      id,
		ecs:     ecs.NewWorld(deps.Registry, log),
		runner:  coresys.NewRunner(log),
		queue:   coresync.NewQueue(),
		clock:   &clock.Virtual{},
		watch:   clock.NewStopwatch(nil),
		bus:     event.NewBus(),
		primary: primary,
		log:     log,
	}
	w.ecs.SetObserver(w.queue)
	w.coord = work.NewCoordinator(w.ecs, deps.Tables, w.clock, w.bus, deps.Formulas, log)
	w.registerSystems(deps, settings)
	return w
}

func (w *World) registerSystems(deps Deps, settings Settings) {
	w.runner.MustRegister(
		system.NewWorldInitSystem(w.ecs, settings.RoomName, w.log),
		system.NewEventDispatchSystem(w.bus),
	)
	if w.primary {
		w.runner.MustRegister(system.NewInputSystem(w.ecs, deps.Source, settings.MaxMessagesPerTick, w.log))
	}
	w.runner.MustRegister(
		system.NewRoomSystem(w.ecs, settings.Space, w.log),
		system.NewSpaceSystem(w.ecs, w.log),
		system.NewMovementRequestSystem(w.coord, w.log),
		system.NewBuildingSystem(w.coord, w.log),
		system.NewMonsterSystem(w.coord, w.log),
		system.NewWorkRequestSystem(w.coord, w.log),
		system.NewNavigationSystem(w.coord, w.bus, w.log),
		system.NewMovementSystem(w.ecs),
	)
	for _, s := range system.NewWorkProgressSystems(w.coord) {
		w.runner.MustRegister(s)
	}
	w.runner.MustRegister(
		system.NewWorkFlowSystem(w.coord),
		system.NewCleanupSystem(w.ecs, w.log),
	)
	w.resync = system.NewResyncSystem(w.ecs, w.log)
	w.runner.MustRegister(w.resync)
}

func (w *World) ID() uint64                     { return w.id }
func (w *World) ECS() *ecs.World                { return w.ecs }
func (w *World) Runner() *coresys.Runner        { return w.runner }
func (w *World) Clock() *clock.Virtual          { return w.clock }
func (w *World) Bus() *event.Bus                { return w.bus }
func (w *World) Coordinator() *work.Coordinator { return w.coord }
func (w *World) Primary() bool                  { return w.primary }

// SetSink installs the presentation sink. Nil discards sync events.
func (w *World) SetSink(s coresync.Sink) { w.sink = s }

// Step advances virtual time by dt, runs one tick and flushes the tick's
// changes to the sink.
func (w *World) Step(dt time.Duration) {
	w.clock.Advance(dt)
	w.runner.Tick(dt)
	w.queue.Flush(w.sink)
}

// Tick steps by the real time elapsed since the previous Tick.
func (w *World) Tick() {
	w.Step(w.watch.Lap())
}

// Resync writes the full entity set as additions to target only. The other
// sinks keep receiving plain per-tick changes.
func (w *World) Resync(target coresync.Sink) {
	if target == nil {
		return
	}
	w.resync.SetTarget(target)
	w.runner.Trigger(system.NameResync)
}
