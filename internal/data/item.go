package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ItemType keys every item table and backpack.
type ItemType string

// ItemTemplate holds static metadata for one item type.
type ItemTemplate struct {
	Type     ItemType `yaml:"type"`
	Name     string   `yaml:"name"`
	MaxStack int      `yaml:"max_stack"` // 0 = unlimited
}

type itemListFile struct {
	Items []ItemTemplate `yaml:"items"`
}

// ItemTable holds all item templates indexed by type.
type ItemTable struct {
	items map[ItemType]*ItemTemplate
}

func NewItemTable(items ...ItemTemplate) *ItemTable {
	t := &ItemTable{items: make(map[ItemType]*ItemTemplate, len(items))}
	for i := range items {
		it := items[i]
		t.items[it.Type] = &it
	}
	return t
}

// Get returns an item template, or nil if not found.
func (t *ItemTable) Get(typ ItemType) *ItemTemplate {
	return t.items[typ]
}

// Count returns the number of item templates loaded.
func (t *ItemTable) Count() int {
	return len(t.items)
}

// Types returns every item type, sorted.
func (t *ItemTable) Types() []ItemType {
	out := make([]ItemType, 0, len(t.items))
	for k := range t.items {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LoadItemTable loads item metadata from a YAML file.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item_list: %w", err)
	}
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item_list: %w", err)
	}
	for _, it := range f.Items {
		if it.Type == "" {
			return nil, fmt.Errorf("item_list: entry without type")
		}
	}
	return NewItemTable(f.Items...), nil
}
