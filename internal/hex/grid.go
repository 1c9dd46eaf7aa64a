package hex

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/snapshot"
)

// Tile is one materialized cell. EntityID is a weak reference to the
// building standing on it, for lookup only.
type Tile struct {
	Coord    Coord        `json:"coord"`
	Pos      Point        `json:"pos"`
	CanMove  bool         `json:"canMove"`
	EntityID ecs.EntityID `json:"entityId,omitempty"`
}

// Grid is the set of known tiles plus the frontier: coordinates adjacent to
// known tiles that are not materialized yet. Every neighbor of a known tile
// is either known or in the frontier, never both.
type Grid struct {
	Layout         Layout               `json:"layout"`
	ObstacleChance float64              `json:"obstacleChance"`
	Seed           int64                `json:"seed"`
	Tiles          map[string]*Tile     `json:"tiles"`
	Frontier       snapshot.Set[string] `json:"frontier"`

	rng *rand.Rand
}

func NewGrid(layout Layout, obstacleChance float64, seed int64) *Grid {
	g := &Grid{
		Layout:         layout,
		ObstacleChance: obstacleChance,
		Seed:           seed,
	}
	g.Reset()
	return g
}

func (g *Grid) rand() *rand.Rand {
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(g.Seed))
	}
	return g.rng
}

// Reset clears the map to a single walkable origin tile whose six neighbors
// form the frontier.
func (g *Grid) Reset() {
	g.Tiles = make(map[string]*Tile, 64)
	g.Frontier = snapshot.NewSet[string]()
	g.rng = nil
	origin := Coord{}
	g.Frontier.Add(origin.Key())
	g.materialize(origin, true)
}

// Expand materializes one frontier coordinate. An empty key picks a random
// frontier cell. It returns false when key is not in the frontier.
func (g *Grid) Expand(key string) (*Tile, bool) {
	if key == "" {
		keys := g.FrontierKeys()
		if len(keys) == 0 {
			return nil, false
		}
		key = keys[g.rand().Intn(len(keys))]
	}
	if !g.Frontier.Has(key) {
		return nil, false
	}
	c, err := ParseKey(key)
	if err != nil {
		g.Frontier.Remove(key)
		return nil, false
	}
	walkable := g.ObstacleChance <= 0 || g.rand().Float64() >= g.ObstacleChance
	return g.materialize(c, walkable), true
}

// ExpandLevel runs n breadth-first sweeps; each sweep materializes every
// coordinate that was in the frontier when the sweep started. It returns the
// number of tiles created.
func (g *Grid) ExpandLevel(n int) int {
	created := 0
	for i := 0; i < n; i++ {
		for _, key := range g.FrontierKeys() {
			if _, ok := g.Expand(key); ok {
				created++
			}
		}
	}
	return created
}

func (g *Grid) materialize(c Coord, walkable bool) *Tile {
	key := c.Key()
	g.Frontier.Remove(key)
	t := &Tile{Coord: c, Pos: g.Layout.ToPixel(c), CanMove: walkable}
	g.Tiles[key] = t
	for _, n := range c.Neighbors() {
		nk := n.Key()
		if _, known := g.Tiles[nk]; known {
			continue
		}
		g.Frontier.Add(nk)
	}
	return t
}

// FrontierKeys returns the frontier sorted lexicographically.
func (g *Grid) FrontierKeys() []string {
	keys := make([]string, 0, len(g.Frontier))
	for k := range g.Frontier {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (g *Grid) Tile(c Coord) (*Tile, bool) {
	t, ok := g.Tiles[c.Key()]
	return t, ok
}

func (g *Grid) Known(c Coord) bool      { _, ok := g.Tiles[c.Key()]; return ok }
func (g *Grid) InFrontier(c Coord) bool { return g.Frontier.Has(c.Key()) }
func (g *Grid) Len() int                { return len(g.Tiles) }

// CanMove is false for unknown coordinates and for obstacle tiles.
func (g *Grid) CanMove(c Coord) bool {
	t, ok := g.Tiles[c.Key()]
	return ok && t.CanMove
}

// SetCanMove toggles the obstacle flag of a known tile.
func (g *Grid) SetCanMove(c Coord, v bool) bool {
	t, ok := g.Tiles[c.Key()]
	if !ok {
		return false
	}
	t.CanMove = v
	return true
}

// Occupant returns the entity registered on the tile, if any.
func (g *Grid) Occupant(c Coord) ecs.EntityID {
	if t, ok := g.Tiles[c.Key()]; ok {
		return t.EntityID
	}
	return 0
}

// SetOccupant records id on a known tile; 0 clears it.
func (g *Grid) SetOccupant(c Coord, id ecs.EntityID) bool {
	t, ok := g.Tiles[c.Key()]
	if !ok {
		return false
	}
	t.EntityID = id
	return true
}

// Check verifies the frontier invariant.
func (g *Grid) Check() error {
	for key, t := range g.Tiles {
		if g.Frontier.Has(key) {
			return fmt.Errorf("tile %s is both known and frontier", key)
		}
		for _, n := range t.Coord.Neighbors() {
			nk := n.Key()
			_, known := g.Tiles[nk]
			if !known && !g.Frontier.Has(nk) {
				return fmt.Errorf("neighbor %s of %s is neither known nor frontier", nk, key)
			}
		}
	}
	return nil
}
