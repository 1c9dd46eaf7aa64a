// Package sync batches world changes for one tick and delivers them to the
// presentation side in a fixed order.
package sync

import (
	"github.com/hexcolony/server/internal/core/ecs"
)

// EntityEvent announces an entity appearing or disappearing.
type EntityEvent struct {
	ID   ecs.EntityID
	Kind ecs.EntityKind
}

// ComponentEvent announces a component being added, removed or changed.
// Component is the live instance; sinks must not retain it past the call.
type ComponentEvent struct {
	Entity    ecs.EntityID
	Kind      ecs.Kind
	Component ecs.Component
}

// Sink is the presentation collaborator. Flush calls the hooks in the order
// entities added, entities removed, components added, components removed,
// components synced.
type Sink interface {
	EntityAdded(EntityEvent)
	EntityRemoved(EntityEvent)
	ComponentAdded(ComponentEvent)
	ComponentRemoved(ComponentEvent)
	ComponentSynced(ComponentEvent)
}

type key struct {
	id   ecs.EntityID
	kind ecs.Kind
}

// bucket is an insertion-ordered set keyed by (entity, kind).
type bucket[K comparable, V any] struct {
	order []K
	items map[K]V
}

func newBucket[K comparable, V any]() *bucket[K, V] {
	return &bucket[K, V]{items: make(map[K]V, 32)}
}

func (b *bucket[K, V]) put(k K, v V) {
	if _, ok := b.items[k]; !ok {
		b.order = append(b.order, k)
	}
	b.items[k] = v
}

func (b *bucket[K, V]) has(k K) bool { _, ok := b.items[k]; return ok }

func (b *bucket[K, V]) del(k K) {
	if _, ok := b.items[k]; !ok {
		return
	}
	delete(b.items, k)
	for i, o := range b.order {
		if o == k {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

func (b *bucket[K, V]) each(fn func(K, V)) {
	for _, k := range b.order {
		fn(k, b.items[k])
	}
}

func (b *bucket[K, V]) len() int { return len(b.items) }

func (b *bucket[K, V]) reset() {
	b.order = b.order[:0]
	clear(b.items)
}

// Queue implements ecs.Observer. Events for the same entity and kind collapse
// within a tick: add followed by remove cancels out, changes to a component
// added this tick ride on the add, and removing an entity drops every pending
// event of its components.
type Queue struct {
	addedEntities   *bucket[ecs.EntityID, EntityEvent]
	removedEntities *bucket[ecs.EntityID, EntityEvent]
	added           *bucket[key, ComponentEvent]
	removed         *bucket[key, ComponentEvent]
	synced          *bucket[key, ComponentEvent]
}

func NewQueue() *Queue {
	return &Queue{
		addedEntities:   newBucket[ecs.EntityID, EntityEvent](),
		removedEntities: newBucket[ecs.EntityID, EntityEvent](),
		added:           newBucket[key, ComponentEvent](),
		removed:         newBucket[key, ComponentEvent](),
		synced:          newBucket[key, ComponentEvent](),
	}
}

func (q *Queue) EntityAdded(e *ecs.Entity) {
	q.addedEntities.put(e.ID(), EntityEvent{ID: e.ID(), Kind: e.Kind()})
}

func (q *Queue) EntityRemoved(e *ecs.Entity) {
	q.dropComponents(e.ID())
	if q.addedEntities.has(e.ID()) {
		q.addedEntities.del(e.ID())
		return
	}
	q.removedEntities.put(e.ID(), EntityEvent{ID: e.ID(), Kind: e.Kind()})
}

func (q *Queue) dropComponents(id ecs.EntityID) {
	for _, b := range []*bucket[key, ComponentEvent]{q.added, q.removed, q.synced} {
		var stale []key
		b.each(func(k key, _ ComponentEvent) {
			if k.id == id {
				stale = append(stale, k)
			}
		})
		for _, k := range stale {
			b.del(k)
		}
	}
}

func (q *Queue) ComponentAdded(c ecs.Component) {
	k := key{c.Owner(), c.Kind()}
	ev := ComponentEvent{Entity: k.id, Kind: k.kind, Component: c}
	if q.removed.has(k) {
		// Replaced an instance that existed before this tick.
		q.removed.del(k)
		q.synced.put(k, ev)
		return
	}
	q.synced.del(k)
	q.added.put(k, ev)
}

func (q *Queue) ComponentRemoved(c ecs.Component) {
	k := key{c.Owner(), c.Kind()}
	q.synced.del(k)
	if q.added.has(k) {
		q.added.del(k)
		return
	}
	q.removed.put(k, ComponentEvent{Entity: k.id, Kind: k.kind, Component: c})
}

func (q *Queue) ComponentMutated(c ecs.Component) {
	k := key{c.Owner(), c.Kind()}
	if q.added.has(k) || q.removed.has(k) {
		return
	}
	q.synced.put(k, ComponentEvent{Entity: k.id, Kind: k.kind, Component: c})
}

// Pending returns the number of buffered events.
func (q *Queue) Pending() int {
	return q.addedEntities.len() + q.removedEntities.len() + q.added.len() + q.removed.len() + q.synced.len()
}

// Flush delivers every buffer once, in order, then clears them all.
// A nil sink just discards the tick's events.
func (q *Queue) Flush(sink Sink) {
	if sink != nil {
		q.addedEntities.each(func(_ ecs.EntityID, ev EntityEvent) { sink.EntityAdded(ev) })
		q.removedEntities.each(func(_ ecs.EntityID, ev EntityEvent) { sink.EntityRemoved(ev) })
		q.added.each(func(_ key, ev ComponentEvent) { sink.ComponentAdded(ev) })
		q.removed.each(func(_ key, ev ComponentEvent) { sink.ComponentRemoved(ev) })
		q.synced.each(func(_ key, ev ComponentEvent) { sink.ComponentSynced(ev) })
	}
	q.addedEntities.reset()
	q.removedEntities.reset()
	q.added.reset()
	q.removed.reset()
	q.synced.reset()
}
