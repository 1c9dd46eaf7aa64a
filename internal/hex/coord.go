// Package hex provides the axial hex grid a space is built on: coordinates,
// tiles, frontier expansion and A* path finding.
package hex

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coord is an axial hex coordinate.
type Coord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// Directions are the six neighbor offsets in axial coordinates.
var Directions = [6]Coord{
	{Q: 1, R: 0},
	{Q: 0, R: 1},
	{Q: -1, R: 1},
	{Q: -1, R: 0},
	{Q: 0, R: -1},
	{Q: 1, R: -1},
}

func (c Coord) Add(o Coord) Coord { return Coord{Q: c.Q + o.Q, R: c.R + o.R} }

// Neighbors returns the six adjacent coordinates.
func (c Coord) Neighbors() [6]Coord {
	var out [6]Coord
	for i, d := range Directions {
		out[i] = c.Add(d)
	}
	return out
}

// Key is the map key of the coordinate, "q,r".
func (c Coord) Key() string {
	return strconv.Itoa(c.Q) + "," + strconv.Itoa(c.R)
}

func (c Coord) String() string { return "(" + c.Key() + ")" }

// ParseKey is the inverse of Key.
func ParseKey(key string) (Coord, error) {
	q, r, ok := strings.Cut(key, ",")
	if !ok {
		return Coord{}, fmt.Errorf("hex key %q: missing comma", key)
	}
	qi, err := strconv.Atoi(q)
	if err != nil {
		return Coord{}, fmt.Errorf("hex key %q: %w", key, err)
	}
	ri, err := strconv.Atoi(r)
	if err != nil {
		return Coord{}, fmt.Errorf("hex key %q: %w", key, err)
	}
	return Coord{Q: qi, R: ri}, nil
}

// Distance is the number of hex steps between a and b.
func Distance(a, b Coord) int {
	dq := a.Q - b.Q
	dr := a.R - b.R
	return (abs(dq) + abs(dr) + abs(dq+dr)) / 2
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Point is a position in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Sub(o Point) Point     { return Point{X: p.X - o.X, Y: p.Y - o.Y} }
func (p Point) Add(o Point) Point     { return Point{X: p.X + o.X, Y: p.Y + o.Y} }
func (p Point) Scale(f float64) Point { return Point{X: p.X * f, Y: p.Y * f} }
func (p Point) Len() float64          { return math.Hypot(p.X, p.Y) }
func (p Point) Dist(o Point) float64  { return p.Sub(o).Len() }
func (p Point) IsZero() bool          { return p.X == 0 && p.Y == 0 }

// Normalize returns the unit vector of p, or the zero vector.
func (p Point) Normalize() Point {
	l := p.Len()
	if l == 0 {
		return Point{}
	}
	return Point{X: p.X / l, Y: p.Y / l}
}

// Layout converts hex coordinates to pixel centers (pointy-top).
type Layout struct {
	Size   float64 `json:"size"`
	Origin Point   `json:"origin"`
}

func (l Layout) ToPixel(c Coord) Point {
	x := l.Size * (math.Sqrt(3)*float64(c.Q) + math.Sqrt(3)/2*float64(c.R))
	y := l.Size * (1.5 * float64(c.R))
	return Point{X: x + l.Origin.X, Y: y + l.Origin.Y}
}
