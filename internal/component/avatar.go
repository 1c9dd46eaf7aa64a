package component

import (
	"sort"

	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/data"
	"github.com/hexcolony/server/internal/snapshot"
)

// Room marks the world's lobby entity that receives ENTER_ROOM.
type Room struct {
	ecs.Base
	Name string `json:"name"`
}

type Avatar struct {
	ecs.Base
	Name     string        `json:"name"`
	JoinedAt snapshot.Time `json:"joinedAt"`
	SpaceID  ecs.EntityID  `json:"spaceId"`
}

// Backpack is the avatar's item store.
type Backpack struct {
	ecs.Base
	Items map[data.ItemType]int `json:"items"`
}

func (b *Backpack) Count(it data.ItemType) int { return b.Items[it] }

// Add grants items. Non-positive amounts are ignored.
func (b *Backpack) Add(items map[data.ItemType]int) {
	changed := false
	for it, n := range items {
		if n <= 0 {
			continue
		}
		if b.Items == nil {
			b.Items = make(map[data.ItemType]int)
		}
		b.Items[it] += n
		changed = true
	}
	if changed {
		b.MarkDirty()
	}
}

// CanAfford reports whether every cost is covered.
func (b *Backpack) CanAfford(cost map[data.ItemType]int) bool {
	for it, n := range cost {
		if b.Items[it] < n {
			return false
		}
	}
	return true
}

// Deduct removes cost atomically; it changes nothing when unaffordable.
func (b *Backpack) Deduct(cost map[data.ItemType]int) bool {
	if !b.CanAfford(cost) {
		return false
	}
	if len(cost) == 0 {
		return true
	}
	for it, n := range cost {
		b.Items[it] -= n
		if b.Items[it] == 0 {
			delete(b.Items, it)
		}
	}
	b.MarkDirty()
	return true
}

// Types lists held item types in order.
func (b *Backpack) Types() []data.ItemType {
	out := make([]data.ItemType, 0, len(b.Items))
	for it := range b.Items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
