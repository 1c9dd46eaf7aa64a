package component

import (
	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/message"
)

// Inbox holds the messages routed to an entity this tick, partitioned by type.
// It is transient and cleared by the systems that consume it.
type Inbox struct {
	ecs.Base
	Messages map[message.Type][]message.Message `json:"messages"`
}

func NewInbox() *Inbox {
	return &Inbox{Messages: make(map[message.Type][]message.Message)}
}

func (in *Inbox) Push(m message.Message) {
	if in.Messages == nil {
		in.Messages = make(map[message.Type][]message.Message)
	}
	in.Messages[m.Type] = append(in.Messages[m.Type], m)
}

// Take removes and returns the pending messages of type t in arrival order.
func (in *Inbox) Take(t message.Type) []message.Message {
	msgs := in.Messages[t]
	if len(msgs) == 0 {
		return nil
	}
	delete(in.Messages, t)
	return msgs
}

// Clear drops every pending message.
func (in *Inbox) Clear() {
	clear(in.Messages)
}

func (in *Inbox) Len() int {
	n := 0
	for _, msgs := range in.Messages {
		n += len(msgs)
	}
	return n
}

// MessageQueue is the process-wide ingress queue drained by the input system.
type MessageQueue struct {
	ecs.Base
	Pending []message.Message `json:"pending"`
}

func (q *MessageQueue) Push(msgs ...message.Message) {
	q.Pending = append(q.Pending, msgs...)
}

// Drain returns every queued message and empties the queue.
func (q *MessageQueue) Drain() []message.Message {
	out := q.Pending
	q.Pending = nil
	return out
}
