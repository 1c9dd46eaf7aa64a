package ecs

import (
	"fmt"

	"go.uber.org/zap"
)

// Observer receives every structural change and mutation of a World.
// The sync queue implements it.
type Observer interface {
	EntityAdded(e *Entity)
	EntityRemoved(e *Entity)
	ComponentAdded(c Component)
	ComponentRemoved(c Component)
	ComponentMutated(c Component)
}

type nopObserver struct{}

func (nopObserver) EntityAdded(*Entity)        {}
func (nopObserver) EntityRemoved(*Entity)      {}
func (nopObserver) ComponentAdded(Component)   {}
func (nopObserver) ComponentRemoved(Component) {}
func (nopObserver) ComponentMutated(Component) {}

// World is the entity table of one simulation world. It owns the id
// generator, the kind→entity index and a deferred destruction queue flushed
// by CleanupSystem at the end of each tick.
type World struct {
	registry     *Registry
	ids          IDGenerator
	entities     map[EntityID]*Entity
	index        map[Kind]map[EntityID]struct{}
	destroyQueue []EntityID
	queued       map[EntityID]struct{}
	observer     Observer
	log          *zap.Logger
}

func NewWorld(registry *Registry, log *zap.Logger) *World {
	return &World{
		registry: registry,
		entities: make(map[EntityID]*Entity, 256),
		index:    make(map[Kind]map[EntityID]struct{}, 32),
		queued:   make(map[EntityID]struct{}, 16),
		observer: nopObserver{},
		log:      log,
	}
}

func (w *World) Registry() *Registry { return w.registry }
func (w *World) IDs() *IDGenerator   { return &w.ids }
func (w *World) Len() int            { return len(w.entities) }

// SetObserver installs the change observer. Passing nil disables observation.
func (w *World) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	w.observer = o
}

// CreateEntity allocates an id, attaches the default component set of kind
// and registers the entity. Unknown kinds are logged and yield nil.
func (w *World) CreateEntity(kind EntityKind) *Entity {
	defaults, ok := w.registry.Archetype(kind)
	if !ok {
		w.log.Warn("unknown entity kind", zap.String("entity_kind", string(kind)))
		return nil
	}
	e := w.register(EntityID(w.ids.Next()), kind)
	for _, k := range defaults {
		w.AddComponent(e, k)
	}
	return e
}

// RestoreEntity registers an entity under a persisted id without creating its
// default components. The id generator must already be restored.
func (w *World) RestoreEntity(id EntityID, kind EntityKind) (*Entity, error) {
	if id.IsZero() || uint64(id) > w.ids.Last() {
		return nil, fmt.Errorf("entity id %d outside generator range %d", id, w.ids.Last())
	}
	if _, exists := w.entities[id]; exists {
		return nil, fmt.Errorf("duplicate entity id %d", id)
	}
	if _, ok := w.registry.Archetype(kind); !ok {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	return w.register(id, kind), nil
}

func (w *World) register(id EntityID, kind EntityKind) *Entity {
	e := &Entity{
		id:         id,
		kind:       kind,
		components: make(map[Kind]Component, 8),
		world:      w,
	}
	w.entities[id] = e
	w.observer.EntityAdded(e)
	return e
}

// Entity looks up a live entity.
func (w *World) Entity(id EntityID) (*Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// Alive reports whether the entity is registered.
func (w *World) Alive(id EntityID) bool {
	_, ok := w.entities[id]
	return ok
}

// AddComponent instantiates the registered factory for kind and attaches it
// to e, replacing any component of the same kind. Unregistered and singleton
// kinds are rejected with a warning and nil.
func (w *World) AddComponent(e *Entity, kind Kind) Component {
	if !w.owns(e) {
		w.log.Warn("add component to unregistered entity", zap.String("kind", string(kind)))
		return nil
	}
	c, ok := w.registry.New(kind)
	if !ok {
		return nil
	}
	w.attach(e, kind, c)
	return c
}

// AttachRestored attaches a component that was constructed by the registry
// and then overlaid with persisted fields.
func (w *World) AttachRestored(e *Entity, kind Kind, c Component) {
	w.attach(e, kind, c)
}

func (w *World) attach(e *Entity, kind Kind, c Component) {
	if old, ok := e.components[kind]; ok {
		detach(old)
		w.observer.ComponentRemoved(old)
	}
	attach(c, kind, e.id, w.observer.ComponentMutated)
	e.components[kind] = c
	set, ok := w.index[kind]
	if !ok {
		set = make(map[EntityID]struct{}, 64)
		w.index[kind] = set
	}
	set[e.id] = struct{}{}
	w.observer.ComponentAdded(c)
}

// RemoveComponent detaches kind from e. Singleton kinds are rejected.
func (w *World) RemoveComponent(e *Entity, kind Kind) bool {
	if w.registry.IsSingleton(kind) {
		w.log.Warn("singleton component cannot be removed", zap.String("kind", string(kind)))
		return false
	}
	if !w.owns(e) {
		return false
	}
	c, ok := e.components[kind]
	if !ok {
		return false
	}
	delete(e.components, kind)
	delete(w.index[kind], e.id)
	detach(c)
	w.observer.ComponentRemoved(c)
	return true
}

func (w *World) owns(e *Entity) bool {
	if e == nil {
		return false
	}
	cur, ok := w.entities[e.id]
	return ok && cur == e
}

// Singleton returns the process-wide singleton component of kind.
func (w *World) Singleton(kind Kind) (Component, bool) {
	return w.registry.Singleton(kind)
}

// Query returns the live entities holding every kind, ordered by id.
func (w *World) Query(kinds ...Kind) []*Entity {
	if len(kinds) == 0 {
		return w.Entities()
	}
	smallest := w.index[kinds[0]]
	for _, k := range kinds[1:] {
		if s := w.index[k]; len(s) < len(smallest) {
			smallest = s
		}
	}
	out := make([]*Entity, 0, len(smallest))
next:
	for id := range smallest {
		for _, k := range kinds {
			if _, ok := w.index[k][id]; !ok {
				continue next
			}
		}
		if e, ok := w.entities[id]; ok {
			out = append(out, e)
		}
	}
	sortEntities(out)
	return out
}

// Entities returns every live entity ordered by id.
func (w *World) Entities() []*Entity {
	out := make([]*Entity, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, e)
	}
	sortEntities(out)
	return out
}

// IndexSize returns how many entities hold kind.
func (w *World) IndexSize(kind Kind) int { return len(w.index[kind]) }

// MarkForDestruction queues an entity for end-of-tick cleanup. Queries keep
// returning it until the queue is flushed.
func (w *World) MarkForDestruction(id EntityID) {
	if _, ok := w.queued[id]; ok {
		return
	}
	w.queued[id] = struct{}{}
	w.destroyQueue = append(w.destroyQueue, id)
}

// PendingDestruction reports whether id is queued for destruction.
func (w *World) PendingDestruction(id EntityID) bool {
	_, ok := w.queued[id]
	return ok
}

// FlushDestroyQueue destroys all queued entities.
func (w *World) FlushDestroyQueue() {
	for _, id := range w.destroyQueue {
		w.DestroyEntity(id)
	}
	w.destroyQueue = w.destroyQueue[:0]
	clear(w.queued)
}

// DestroyEntity deregisters every component of the entity and removes it.
func (w *World) DestroyEntity(id EntityID) {
	e, ok := w.entities[id]
	if !ok {
		return
	}
	for kind, c := range e.components {
		delete(w.index[kind], id)
		detach(c)
	}
	clear(e.components)
	delete(w.entities, id)
	w.observer.EntityRemoved(e)
}
