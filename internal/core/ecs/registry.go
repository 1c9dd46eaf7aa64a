package ecs

import (
	"go.uber.org/zap"
)

// Factory constructs a zero-valued component with its defaults applied.
type Factory func() Component

// Registry maps component kind names to factories, holds the process-wide
// singleton cache and the default component set of each entity kind.
// One Registry is shared by every World of the process.
type Registry struct {
	factories  map[Kind]Factory
	singleton  map[Kind]bool
	singletons map[Kind]Component
	archetypes map[EntityKind][]Kind
	log        *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		factories:  make(map[Kind]Factory, 32),
		singleton:  make(map[Kind]bool, 4),
		singletons: make(map[Kind]Component, 4),
		archetypes: make(map[EntityKind][]Kind, 8),
		log:        log,
	}
}

// Register adds a component factory under kind. Re-registering replaces it.
func (r *Registry) Register(kind Kind, f Factory) {
	r.factories[kind] = f
	delete(r.singleton, kind)
}

// RegisterSingleton adds a factory for a process-wide singleton kind.
func (r *Registry) RegisterSingleton(kind Kind, f Factory) {
	r.factories[kind] = f
	r.singleton[kind] = true
}

// RegisterEntityKind declares the default component set created with an entity.
func (r *Registry) RegisterEntityKind(kind EntityKind, components ...Kind) {
	r.archetypes[kind] = append([]Kind(nil), components...)
}

func (r *Registry) IsRegistered(kind Kind) bool {
	_, ok := r.factories[kind]
	return ok
}

func (r *Registry) IsSingleton(kind Kind) bool { return r.singleton[kind] }

// Archetype returns the default component kinds of an entity kind.
func (r *Registry) Archetype(kind EntityKind) ([]Kind, bool) {
	ks, ok := r.archetypes[kind]
	return ks, ok
}

// New constructs a detached component of a registered, non-singleton kind.
func (r *Registry) New(kind Kind) (Component, bool) {
	f, ok := r.factories[kind]
	if !ok {
		r.log.Warn("unregistered component kind", zap.String("kind", string(kind)))
		return nil, false
	}
	if r.singleton[kind] {
		r.log.Warn("singleton component cannot be instantiated per entity", zap.String("kind", string(kind)))
		return nil, false
	}
	return f(), true
}

// Singleton returns the process-wide instance of kind, constructing it on
// first use. Singletons have no owner and are never removed.
func (r *Registry) Singleton(kind Kind) (Component, bool) {
	if c, ok := r.singletons[kind]; ok {
		return c, true
	}
	if !r.singleton[kind] {
		r.log.Warn("not a singleton component kind", zap.String("kind", string(kind)))
		return nil, false
	}
	c := r.factories[kind]()
	attach(c, kind, 0, nil)
	r.singletons[kind] = c
	return c, true
}

// SingletonOf is the typed form of Registry.Singleton.
func SingletonOf[T Component](r *Registry, kind Kind) (T, bool) {
	var zero T
	c, ok := r.Singleton(kind)
	if !ok {
		return zero, false
	}
	t, ok := c.(T)
	return t, ok
}
