package ecs

import "sort"

// EntityID identifies an entity within one world. IDs are assigned in
// increasing order starting at 1 and are never reused for the world's lifetime.
type EntityID uint64

func (id EntityID) IsZero() bool { return id == 0 }

// EntityKind names the archetype an entity was created from (avatar, space, ...).
type EntityKind string

// IDGenerator hands out monotonically increasing ids. The last issued value is
// persisted in snapshots and restored before any entity is recreated.
type IDGenerator struct {
	last uint64
}

func (g *IDGenerator) Next() uint64 {
	g.last++
	return g.last
}

// Last returns the most recently issued id (0 if none).
func (g *IDGenerator) Last() uint64 { return g.last }

// Restore resets the generator so the next id is last+1.
func (g *IDGenerator) Restore(last uint64) { g.last = last }

// Entity is a bag of components keyed by kind. At most one component of each
// kind is attached at a time.
type Entity struct {
	id         EntityID
	kind       EntityKind
	components map[Kind]Component
	world      *World
}

func (e *Entity) ID() EntityID       { return e.id }
func (e *Entity) Kind() EntityKind   { return e.kind }
func (e *Entity) World() *World      { return e.world }
func (e *Entity) Has(kind Kind) bool { _, ok := e.components[kind]; return ok }

// Component returns the component of the given kind, if attached.
func (e *Entity) Component(kind Kind) (Component, bool) {
	c, ok := e.components[kind]
	return c, ok
}

// Components returns the attached components ordered by kind name.
func (e *Entity) Components() []Component {
	out := make([]Component, 0, len(e.components))
	for _, c := range e.components {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind() < out[j].Kind() })
	return out
}

// Get is the typed accessor: it returns the component of the given kind
// downcast to T, or the zero T and false when absent or of another type.
func Get[T Component](e *Entity, kind Kind) (T, bool) {
	var zero T
	if e == nil {
		return zero, false
	}
	c, ok := e.components[kind]
	if !ok {
		return zero, false
	}
	t, ok := c.(T)
	return t, ok
}
