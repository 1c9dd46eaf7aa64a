package ecs

// Kind is the stable name a component type is registered under.
type Kind string

// Component is implemented by every component struct through an embedded Base.
type Component interface {
	Kind() Kind
	Owner() EntityID
	MarkDirty()
	base() *Base
}

// Base carries the bookkeeping every component needs: its kind and a
// non-owning handle to the owning entity. Embed it by value.
type Base struct {
	kind   Kind
	owner  EntityID
	self   Component
	notify func(Component)
}

func (b *Base) Kind() Kind      { return b.kind }
func (b *Base) Owner() EntityID { return b.owner }
func (b *Base) base() *Base     { return b }
func (b *Base) Attached() bool  { return b.notify != nil }

// MarkDirty reports that observable fields changed. Components call it at the
// end of every mutating method; it is a no-op while detached.
func (b *Base) MarkDirty() {
	if b.notify != nil {
		b.notify(b.self)
	}
}

func attach(c Component, kind Kind, owner EntityID, notify func(Component)) {
	b := c.base()
	b.kind = kind
	b.owner = owner
	b.self = c
	b.notify = notify
}

func detach(c Component) {
	b := c.base()
	b.notify = nil
}
