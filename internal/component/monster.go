package component

import (
	"fmt"

	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/hex"
)

type MonsterStatus int

const (
	MonsterIdle MonsterStatus = iota
	MonsterMoving
	MonsterWorking
)

func (s MonsterStatus) String() string {
	switch s {
	case MonsterIdle:
		return "Idle"
	case MonsterMoving:
		return "Moving"
	case MonsterWorking:
		return "Working"
	default:
		return fmt.Sprintf("MonsterStatus(%d)", int(s))
	}
}

type Monster struct {
	ecs.Base
	Species    string        `json:"species"`
	Name       string        `json:"name"`
	Level      int           `json:"level"`
	Status     MonsterStatus `json:"status"`
	Stamina    float64       `json:"stamina"`
	MaxStamina float64       `json:"maxStamina"`
	Speed      float64       `json:"speed"`
	AvatarID   ecs.EntityID  `json:"avatarId"`
	SpaceID    ecs.EntityID  `json:"spaceId"`
}

func (m *Monster) SetStatus(s MonsterStatus) {
	if m.Status == s {
		return
	}
	m.Status = s
	m.MarkDirty()
}

// SpendStamina deducts n; false without change when not enough is left.
func (m *Monster) SpendStamina(n float64) bool {
	if n <= 0 {
		return true
	}
	if m.Stamina < n {
		return false
	}
	m.Stamina -= n
	m.MarkDirty()
	return true
}

// GainStamina adds n capped at MaxStamina and returns the amount applied.
func (m *Monster) GainStamina(n float64) float64 {
	if n <= 0 || m.Stamina >= m.MaxStamina {
		return 0
	}
	if m.Stamina+n > m.MaxStamina {
		n = m.MaxStamina - m.Stamina
	}
	m.Stamina += n
	m.MarkDirty()
	return n
}

// Transform is the hex cell and pixel position of a placed entity.
type Transform struct {
	ecs.Base
	Coord    hex.Coord `json:"coord"`
	Position hex.Point `json:"position"`
}

// Place puts the entity at the pixel center of c.
func (t *Transform) Place(c hex.Coord, layout hex.Layout) {
	t.Coord = c
	t.Position = layout.ToPixel(c)
	t.MarkDirty()
}

// MoveTo sets the pixel position and the cell it falls in.
func (t *Transform) MoveTo(p hex.Point, c hex.Coord) {
	if t.Position == p && t.Coord == c {
		return
	}
	t.Position = p
	t.Coord = c
	t.MarkDirty()
}

// Movement is the per-tick motion request produced by navigation: a unit
// direction and the remaining distance to the current waypoint.
type Movement struct {
	ecs.Base
	Direction hex.Point `json:"direction"`
	Limit     float64   `json:"limit"`
}

func (m *Movement) Set(dir hex.Point, limit float64) {
	m.Direction = dir
	m.Limit = limit
	m.MarkDirty()
}

func (m *Movement) Stop() {
	if m.Direction.IsZero() && m.Limit == 0 {
		return
	}
	m.Direction = hex.Point{}
	m.Limit = 0
	m.MarkDirty()
}

func (m *Movement) Moving() bool { return !m.Direction.IsZero() }
