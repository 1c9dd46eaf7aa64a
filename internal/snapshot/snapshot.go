// Package snapshot defines the persisted tree of a whole process:
// worlds, their entities and each entity's component data.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed marks any structural problem in a snapshot.
var ErrMalformed = errors.New("malformed snapshot")

const Version = 1

type Process struct {
	Version          int     `json:"version"`
	WorldIDGenerator uint64  `json:"worldIdGenerator"`
	Worlds           []World `json:"worlds"`
}

type World struct {
	ID                 uint64   `json:"id"`
	CurrentVirtualTime int64    `json:"currentVirtualTime"`
	EntityIDGenerator  uint64   `json:"entityIdGenerator"`
	Entities           []Entity `json:"entities"`
}

type Entity struct {
	ID         uint64      `json:"id"`
	Kind       string      `json:"kind"`
	Components []Component `json:"components"`
}

type Component struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// Encode validates p and renders it as JSON.
func Encode(p *Process) ([]byte, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

// Decode parses and validates a snapshot.
func Decode(raw []byte) (*Process, error) {
	var p Process
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks id uniqueness and generator ranges.
func Validate(p *Process) error {
	if p == nil {
		return fmt.Errorf("%w: nil", ErrMalformed)
	}
	if p.Version != Version {
		return fmt.Errorf("%w: unsupported version %d", ErrMalformed, p.Version)
	}
	worlds := make(map[uint64]struct{}, len(p.Worlds))
	for _, w := range p.Worlds {
		if w.ID == 0 || w.ID > p.WorldIDGenerator {
			return fmt.Errorf("%w: world id %d outside generator %d", ErrMalformed, w.ID, p.WorldIDGenerator)
		}
		if _, dup := worlds[w.ID]; dup {
			return fmt.Errorf("%w: duplicate world id %d", ErrMalformed, w.ID)
		}
		worlds[w.ID] = struct{}{}
		if w.CurrentVirtualTime < 0 {
			return fmt.Errorf("%w: world %d negative virtual time", ErrMalformed, w.ID)
		}
		ents := make(map[uint64]struct{}, len(w.Entities))
		for _, e := range w.Entities {
			if e.ID == 0 || e.ID > w.EntityIDGenerator {
				return fmt.Errorf("%w: world %d entity id %d outside generator %d", ErrMalformed, w.ID, e.ID, w.EntityIDGenerator)
			}
			if _, dup := ents[e.ID]; dup {
				return fmt.Errorf("%w: world %d duplicate entity id %d", ErrMalformed, w.ID, e.ID)
			}
			ents[e.ID] = struct{}{}
			names := make(map[string]struct{}, len(e.Components))
			for _, c := range e.Components {
				if c.Name == "" {
					return fmt.Errorf("%w: entity %d component without name", ErrMalformed, e.ID)
				}
				if _, dup := names[c.Name]; dup {
					return fmt.Errorf("%w: entity %d duplicate component %s", ErrMalformed, e.ID, c.Name)
				}
				names[c.Name] = struct{}{}
			}
		}
	}
	return nil
}
