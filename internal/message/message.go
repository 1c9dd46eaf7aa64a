// Package message defines the ingress messages sent by the front end.
package message

import (
	"fmt"

	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/hex"
)

// Type identifies a message. It encodes as its upper-case name.
type Type int

const (
	TypeUnknown Type = iota
	TypeEnterRoom
	TypeAddBuilding
	TypeRemoveBuilding
	TypeAddMonster
	TypeRemoveMonster
	TypeStartWork
	TypeStopWork
	TypeMoveMonster
	TypeExpandMap
)

var typeNames = map[Type]string{
	TypeEnterRoom:      "ENTER_ROOM",
	TypeAddBuilding:    "ADD_BUILDING",
	TypeRemoveBuilding: "REMOVE_BUILDING",
	TypeAddMonster:     "ADD_MONSTER",
	TypeRemoveMonster:  "REMOVE_MONSTER",
	TypeStartWork:      "START_WORK",
	TypeStopWork:       "STOP_WORK",
	TypeMoveMonster:    "MOVE_MONSTER",
	TypeExpandMap:      "EXPAND_MAP",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

func (t Type) MarshalText() ([]byte, error) {
	n, ok := typeNames[t]
	if !ok {
		return nil, fmt.Errorf("unknown message type %d", int(t))
	}
	return []byte(n), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	for k, n := range typeNames {
		if n == string(b) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown message type %q", b)
}

// Args is the union of every message's arguments; each type reads the
// fields it needs.
type Args struct {
	AvatarID     ecs.EntityID `json:"avatarId,omitempty"`
	SpaceID      ecs.EntityID `json:"spaceId,omitempty"`
	BuildingID   ecs.EntityID `json:"buildingId,omitempty"`
	MonsterID    ecs.EntityID `json:"monsterId,omitempty"`
	BuildingType string       `json:"buildingType,omitempty"`
	MonsterType  string       `json:"monsterType,omitempty"`
	WorkType     string       `json:"workType,omitempty"`
	Name         string       `json:"name,omitempty"`
	Level        int          `json:"level,omitempty"`
	Q            int          `json:"q"`
	R            int          `json:"r"`
	Random       bool         `json:"random,omitempty"`
}

// Coord returns the target hex of the message.
func (a Args) Coord() hex.Coord { return hex.Coord{Q: a.Q, R: a.R} }

type Message struct {
	Type Type `json:"type"`
	Args Args `json:"args"`
}

func New(t Type, args Args) Message { return Message{Type: t, Args: args} }
