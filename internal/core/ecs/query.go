package ecs

import "sort"

func sortEntities(es []*Entity) {
	sort.Slice(es, func(i, j int) bool { return es[i].id < es[j].id })
}

// Add attaches a new component of kind to e and returns it typed, after
// applying init. It returns the zero T and false when the kind is rejected.
func Add[T Component](w *World, e *Entity, kind Kind, init func(T)) (T, bool) {
	var zero T
	c, ok := w.registry.New(kind)
	if !ok {
		return zero, false
	}
	t, ok := c.(T)
	if !ok {
		return zero, false
	}
	if init != nil {
		init(t)
	}
	if !w.owns(e) {
		return zero, false
	}
	w.attach(e, kind, c)
	return t, true
}

// Each2 iterates over entities that have both kinds, typed, ordered by id.
func Each2[A, B Component](w *World, ka, kb Kind, fn func(*Entity, A, B)) {
	for _, e := range w.Query(ka, kb) {
		a, okA := Get[A](e, ka)
		b, okB := Get[B](e, kb)
		if okA && okB {
			fn(e, a, b)
		}
	}
}

// Each3 iterates over entities that have all three kinds, typed.
func Each3[A, B, C Component](w *World, ka, kb, kc Kind, fn func(*Entity, A, B, C)) {
	for _, e := range w.Query(ka, kb, kc) {
		a, okA := Get[A](e, ka)
		b, okB := Get[B](e, kb)
		c, okC := Get[C](e, kc)
		if okA && okB && okC {
			fn(e, a, b, c)
		}
	}
}
