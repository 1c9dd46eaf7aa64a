package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BuildingTemplate is the construction template of a building type.
type BuildingTemplate struct {
	Type       string           `yaml:"type"`
	Name       string           `yaml:"name"`
	Capacity   int              `yaml:"capacity"`   // worker slots
	Efficiency float64          `yaml:"efficiency"` // work speed multiplier, 1.0 = base
	WorkTypes  []string         `yaml:"work_types"`
	Cost       map[ItemType]int `yaml:"cost"` // paid when placed with ADD_BUILDING
}

type buildingListFile struct {
	Buildings []BuildingTemplate `yaml:"buildings"`
}

// BuildingTable holds all building templates indexed by type.
type BuildingTable struct {
	buildings map[string]*BuildingTemplate
}

func NewBuildingTable(buildings ...BuildingTemplate) *BuildingTable {
	t := &BuildingTable{buildings: make(map[string]*BuildingTemplate, len(buildings))}
	for i := range buildings {
		b := buildings[i]
		if b.Efficiency <= 0 {
			b.Efficiency = 1
		}
		if b.Capacity <= 0 {
			b.Capacity = 1
		}
		t.buildings[b.Type] = &b
	}
	return t
}

// Get returns a building template, or nil if not found.
func (t *BuildingTable) Get(typ string) *BuildingTemplate {
	return t.buildings[typ]
}

// Count returns the number of building templates loaded.
func (t *BuildingTable) Count() int {
	return len(t.buildings)
}

// LoadBuildingTable loads building templates from a YAML file.
func LoadBuildingTable(path string) (*BuildingTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read building_list: %w", err)
	}
	var f buildingListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse building_list: %w", err)
	}
	for _, b := range f.Buildings {
		if b.Type == "" {
			return nil, fmt.Errorf("building_list: entry without type")
		}
		if b.Capacity < 0 {
			return nil, fmt.Errorf("building_list: %s has negative capacity", b.Type)
		}
	}
	return NewBuildingTable(f.Buildings...), nil
}
