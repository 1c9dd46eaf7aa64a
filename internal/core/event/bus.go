package event

import "reflect"

// Bus carries domain events between ticks. Events emitted during tick N are
// held until Deliver runs at the start of tick N+1, so handlers only ever see
// completed ticks. Delivery follows emission order across all event types.
// The bus belongs to one world and is used from the tick goroutine only.
type Bus struct {
	pending  []any
	inflight []any
	handlers map[reflect.Type][]func(any)
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[reflect.Type][]func(any))}
}

// Emit holds ev for the next Deliver. A nil bus drops it.
func Emit[T any](b *Bus, ev T) {
	if b == nil {
		return
	}
	b.pending = append(b.pending, ev)
}

// Subscribe adds a handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := reflect.TypeFor[T]()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// Deliver hands every event held since the previous Deliver to its
// handlers. Events emitted by handlers wait for the next call.
func (b *Bus) Deliver() int {
	b.inflight, b.pending = b.pending, b.inflight[:0]
	for _, ev := range b.inflight {
		for _, h := range b.handlers[reflect.TypeOf(ev)] {
			h(ev)
		}
	}
	n := len(b.inflight)
	clear(b.inflight)
	b.inflight = b.inflight[:0]
	return n
}

// Pending returns how many events wait for the next Deliver.
func (b *Bus) Pending() int { return len(b.pending) }
