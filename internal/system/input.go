package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/hexcolony/server/internal/component"
	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/core/event"
	coresys "github.com/hexcolony/server/internal/core/system"
	"github.com/hexcolony/server/internal/message"
)

// Source is an external message producer, such as the websocket hub.
type Source interface {
	// Poll returns up to max pending messages without blocking.
	Poll(max int) []message.Message
}

// EventDispatchSystem delivers the domain events emitted during the previous
// tick. It runs first in the Input phase.
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Name() string         { return NameEventDispatch }
func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.Deliver()
}

// InputSystem moves ingress messages into per-entity inboxes. It polls the
// source into the process-wide MessageQueue singleton, then routes each
// message by avatar id. ENTER_ROOM goes to the room entity.
type InputSystem struct {
	world      *ecs.World
	source     Source
	maxPerTick int
	log        *zap.Logger
}

// NewInputSystem builds the input system. source may be nil when messages
// are pushed straight into the MessageQueue.
func NewInputSystem(world *ecs.World, source Source, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{world: world, source: source, maxPerTick: maxPerTick, log: log}
}

func (s *InputSystem) Name() string         { return NameInput }
func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }
func (s *InputSystem) After() []string      { return []string{NameEventDispatch} }

func (s *InputSystem) Update(_ time.Duration) {
	q, ok := ecs.SingletonOf[*component.MessageQueue](s.world.Registry(), component.KindMessageQueue)
	if !ok {
		return
	}
	if s.source != nil {
		q.Push(s.source.Poll(s.maxPerTick)...)
	}
	for _, m := range q.Drain() {
		s.route(m)
	}
}

func (s *InputSystem) route(m message.Message) {
	if m.Type == message.TypeEnterRoom {
		rooms := s.world.Query(component.KindRoom, component.KindInbox)
		if len(rooms) == 0 {
			s.log.Warn("no room entity for message", zap.Stringer("type", m.Type))
			return
		}
		in, _ := ecs.Get[*component.Inbox](rooms[0], component.KindInbox)
		in.Push(m)
		return
	}

	e, ok := s.world.Entity(m.Args.AvatarID)
	if !ok || !e.Has(component.KindAvatar) {
		s.log.Warn("message for unknown avatar",
			zap.Stringer("type", m.Type),
			zap.Uint64("avatar", uint64(m.Args.AvatarID)))
		return
	}
	in, ok := ecs.Get[*component.Inbox](e, component.KindInbox)
	if !ok {
		s.log.Warn("avatar has no inbox", zap.Uint64("avatar", uint64(m.Args.AvatarID)))
		return
	}
	in.Push(m)
}
