package hex

// Walkable answers whether a coordinate can be stepped on.
type Walkable interface {
	CanMove(c Coord) bool
}

type node struct {
	coord  Coord
	g, h   int
	parent *node
}

func (n *node) f() int { return n.g + n.h }

// FindPath runs A* from start to target with unit step cost and the hex
// distance heuristic. The returned path includes both ends; it is nil when
// the target is not walkable or cannot be reached.
//
// The open set is scanned linearly for the lowest f, taking the first node
// found on ties. Search areas are a few hundred tiles; a heap would only pay
// off on much larger maps.
func FindPath(grid Walkable, start, target Coord) []Coord {
	if !grid.CanMove(target) {
		return nil
	}
	open := []*node{{coord: start, h: Distance(start, target)}}
	openIdx := map[Coord]*node{start: open[0]}
	closed := make(map[Coord]struct{})

	for len(open) > 0 {
		best := 0
		for i := 1; i < len(open); i++ {
			if open[i].f() < open[best].f() {
				best = i
			}
		}
		cur := open[best]
		open = append(open[:best], open[best+1:]...)
		delete(openIdx, cur.coord)

		if cur.coord == target {
			return reconstruct(cur)
		}
		closed[cur.coord] = struct{}{}

		for _, nc := range cur.coord.Neighbors() {
			if _, done := closed[nc]; done {
				continue
			}
			if !grid.CanMove(nc) {
				continue
			}
			g := cur.g + 1
			if n, ok := openIdx[nc]; ok {
				if g < n.g {
					n.g = g
					n.parent = cur
				}
				continue
			}
			n := &node{coord: nc, g: g, h: Distance(nc, target), parent: cur}
			open = append(open, n)
			openIdx[nc] = n
		}
	}
	return nil
}

func reconstruct(n *node) []Coord {
	var path []Coord
	for ; n != nil; n = n.parent {
		path = append(path, n.coord)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
