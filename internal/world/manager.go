package world

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hexcolony/server/internal/component"
	"github.com/hexcolony/server/internal/core/ecs"
	coresync "github.com/hexcolony/server/internal/core/sync"
	"github.com/hexcolony/server/internal/message"
	"github.com/hexcolony/server/internal/snapshot"
)

// SinkFactory returns the presentation sink of a world, or nil.
type SinkFactory func(w *World) coresync.Sink

// Manager owns the worlds of the process. The first world created (or the
// first one restored) is the primary world and receives ingress.
type Manager struct {
	deps     Deps
	settings Settings
	ids      ecs.IDGenerator
	worlds   []*World
	sinks    SinkFactory
	log      *zap.Logger
}

func NewManager(deps Deps, settings Settings) *Manager {
	return &Manager{deps: deps, settings: settings, log: deps.Log}
}

// SetSinks installs the sink factory on every current and future world.
func (m *Manager) SetSinks(f SinkFactory) {
	m.sinks = f
	for _, w := range m.worlds {
		m.attachSink(w)
	}
}

func (m *Manager) attachSink(w *World) {
	if m.sinks == nil {
		w.SetSink(nil)
		return
	}
	w.SetSink(m.sinks(w))
}

// Create adds a new world with the next world id.
func (m *Manager) Create() *World {
	w := New(m.ids.Next(), m.deps, m.settings, len(m.worlds) == 0)
	m.attachSink(w)
	m.worlds = append(m.worlds, w)
	m.log.Info("world created", zap.Uint64("world", w.ID()), zap.Bool("primary", w.Primary()))
	return w
}

// Worlds returns the worlds in creation order.
func (m *Manager) Worlds() []*World { return m.worlds }

// Primary returns the world that receives ingress, or nil.
func (m *Manager) Primary() *World {
	if len(m.worlds) == 0 {
		return nil
	}
	return m.worlds[0]
}

func (m *Manager) World(id uint64) (*World, bool) {
	for _, w := range m.worlds {
		if w.ID() == id {
			return w, true
		}
	}
	return nil, false
}

// StepAll advances every world by dt.
func (m *Manager) StepAll(dt time.Duration) {
	for _, w := range m.worlds {
		w.Step(dt)
	}
}

// TickAll advances every world by its own measured real delta.
func (m *Manager) TickAll() {
	for _, w := range m.worlds {
		w.Tick()
	}
}

// Enqueue appends messages to the process-wide ingress queue. They are routed
// on the primary world's next Input phase.
func (m *Manager) Enqueue(msgs ...message.Message) {
	q, ok := ecs.SingletonOf[*component.MessageQueue](m.deps.Registry, component.KindMessageQueue)
	if !ok {
		return
	}
	q.Push(msgs...)
}

// Resync replays every world into the sink targetFor returns for it; worlds
// with a nil target are skipped.
func (m *Manager) Resync(targetFor SinkFactory) {
	for _, w := range m.worlds {
		w.Resync(targetFor(w))
	}
}

// Save captures every world. Entities are ordered by id and components by
// kind, so equal states produce equal snapshots.
func (m *Manager) Save() (*snapshot.Process, error) {
	p := &snapshot.Process{
		Version:          snapshot.Version,
		WorldIDGenerator: m.ids.Last(),
		Worlds:           make([]snapshot.World, 0, len(m.worlds)),
	}
	for _, w := range m.worlds {
		sw, err := saveWorld(w)
		if err != nil {
			return nil, err
		}
		p.Worlds = append(p.Worlds, sw)
	}
	return p, nil
}

func saveWorld(w *World) (snapshot.World, error) {
	ents := w.ecs.Entities()
	sw := snapshot.World{
		ID:                 w.id,
		CurrentVirtualTime: w.clock.Now(),
		EntityIDGenerator:  w.ecs.IDs().Last(),
		Entities:           make([]snapshot.Entity, 0, len(ents)),
	}
	for _, e := range ents {
		se := snapshot.Entity{ID: uint64(e.ID()), Kind: string(e.Kind())}
		for _, c := range e.Components() {
			raw, err := json.Marshal(c)
			if err != nil {
				return sw, fmt.Errorf("world %d entity %d component %s: %w", w.id, e.ID(), c.Kind(), err)
			}
			se.Components = append(se.Components, snapshot.Component{Name: string(c.Kind()), Data: raw})
		}
		sw.Entities = append(sw.Entities, se)
	}
	return sw, nil
}

// Load replaces every world with the snapshot's content. The id generators
// are restored before any entity, and Initialize systems are not rerun. On
// error the current worlds are kept.
func (m *Manager) Load(p *snapshot.Process) error {
	if err := snapshot.Validate(p); err != nil {
		return err
	}
	worlds := make([]*World, 0, len(p.Worlds))
	for i, sw := range p.Worlds {
		w := New(sw.ID, m.deps, m.settings, i == 0)
		if err := restoreWorld(w, sw); err != nil {
			return fmt.Errorf("restore world %d: %w", sw.ID, err)
		}
		w.runner.SkipInit()
		worlds = append(worlds, w)
	}

	m.ids.Restore(p.WorldIDGenerator)
	m.worlds = worlds
	for _, w := range m.worlds {
		m.attachSink(w)
	}
	m.log.Info("worlds restored", zap.Int("worlds", len(worlds)), zap.Uint64("world_id_generator", p.WorldIDGenerator))
	return nil
}

func restoreWorld(w *World, sw snapshot.World) error {
	reg := w.ecs.Registry()
	w.ecs.IDs().Restore(sw.EntityIDGenerator)
	w.clock.Set(sw.CurrentVirtualTime)
	for _, se := range sw.Entities {
		e, err := w.ecs.RestoreEntity(ecs.EntityID(se.ID), ecs.EntityKind(se.Kind))
		if err != nil {
			return err
		}
		for _, sc := range se.Components {
			kind := ecs.Kind(sc.Name)
			if !reg.IsRegistered(kind) || reg.IsSingleton(kind) {
				return fmt.Errorf("%w: entity %d unknown component %q", snapshot.ErrMalformed, se.ID, sc.Name)
			}
			c, ok := reg.New(kind)
			if !ok {
				return fmt.Errorf("%w: entity %d component %q", snapshot.ErrMalformed, se.ID, sc.Name)
			}
			if err := json.Unmarshal(sc.Data, c); err != nil {
				return fmt.Errorf("%w: entity %d component %s: %v", snapshot.ErrMalformed, se.ID, sc.Name, err)
			}
			w.ecs.AttachRestored(e, kind, c)
		}
	}
	return nil
}
