package net

import (
	"encoding/json"
	"fmt"

	"github.com/hexcolony/server/internal/core/ecs"
	coresync "github.com/hexcolony/server/internal/core/sync"
	"github.com/hexcolony/server/internal/message"
)

// Frame is one egress sync event. Data carries the component JSON for
// added and synced components.
type Frame struct {
	World     uint64          `json:"world"`
	Op        coresync.Op     `json:"op"`
	Entity    ecs.EntityID    `json:"entity"`
	Kind      string          `json:"kind,omitempty"` // entity kind for entity ops
	Component ecs.Kind        `json:"component,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// DecodeMessage parses one ingress text frame.
func DecodeMessage(b []byte) (message.Message, error) {
	var m message.Message
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("decode message: %w", err)
	}
	if m.Type == message.TypeUnknown {
		return m, fmt.Errorf("decode message: missing type")
	}
	return m, nil
}

func entityFrame(world uint64, op coresync.Op, ev coresync.EntityEvent) Frame {
	return Frame{World: world, Op: op, Entity: ev.ID, Kind: string(ev.Kind)}
}

func componentFrame(world uint64, op coresync.Op, ev coresync.ComponentEvent, withData bool) (Frame, error) {
	f := Frame{World: world, Op: op, Entity: ev.Entity, Component: ev.Kind}
	if withData && ev.Component != nil {
		raw, err := json.Marshal(ev.Component)
		if err != nil {
			return f, fmt.Errorf("encode component %s of entity %d: %w", ev.Kind, ev.Entity, err)
		}
		f.Data = raw
	}
	return f, nil
}
