package component

import (
	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/hex"
)

// Space is a hex map owned by one avatar. Buildings and monsters live on it.
type Space struct {
	ecs.Base
	AvatarID ecs.EntityID `json:"avatarId"`
	Grid     *hex.Grid    `json:"grid"`
}

// ResetMap replaces the grid with a fresh origin tile and its frontier.
func (s *Space) ResetMap(layout hex.Layout, obstacleChance float64, seed int64) {
	s.Grid = hex.NewGrid(layout, obstacleChance, seed)
	s.MarkDirty()
}

// ExpandMap materializes a frontier cell; empty key picks one at random.
func (s *Space) ExpandMap(key string) (*hex.Tile, bool) {
	if s.Grid == nil {
		return nil, false
	}
	t, ok := s.Grid.Expand(key)
	if ok {
		s.MarkDirty()
	}
	return t, ok
}

// ExpandMapLevel grows the known area by n rings.
func (s *Space) ExpandMapLevel(n int) int {
	if s.Grid == nil {
		return 0
	}
	created := s.Grid.ExpandLevel(n)
	if created > 0 {
		s.MarkDirty()
	}
	return created
}

func (s *Space) CanMove(c hex.Coord) bool {
	return s.Grid != nil && s.Grid.CanMove(c)
}

// Occupy records the building standing on c; 0 clears the tile.
func (s *Space) Occupy(c hex.Coord, id ecs.EntityID) bool {
	if s.Grid == nil || !s.Grid.SetOccupant(c, id) {
		return false
	}
	s.MarkDirty()
	return true
}

func (s *Space) Occupant(c hex.Coord) ecs.EntityID {
	if s.Grid == nil {
		return 0
	}
	return s.Grid.Occupant(c)
}
