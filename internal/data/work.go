package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Variant is the family a work type belongs to.
type Variant int

const (
	VariantProduction Variant = iota
	VariantBuilding
	VariantRest
	VariantSynthetic
)

var Variants = []Variant{VariantProduction, VariantBuilding, VariantRest, VariantSynthetic}

func (v Variant) String() string {
	switch v {
	case VariantProduction:
		return "production"
	case VariantBuilding:
		return "building"
	case VariantRest:
		return "rest"
	case VariantSynthetic:
		return "synthetic"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// WorkTemplate is the timing, cost and output entry of one work type.
type WorkTemplate struct {
	Type             string           `yaml:"type"`
	Variant          Variant          `yaml:"-"`
	BaseTime         float64          `yaml:"base_time"` // seconds at 100% efficiency
	RequiredLevel    int              `yaml:"required_level"`
	StaminaCost      float64          `yaml:"stamina_cost"`
	Inputs           map[ItemType]int `yaml:"inputs"`
	Outputs          map[ItemType]int `yaml:"outputs"`
	BuildingType     string           `yaml:"building_type"`      // building variant: what gets constructed
	StaminaPerSecond float64          `yaml:"stamina_per_second"` // rest variant
}

type workListFile struct {
	Production []WorkTemplate `yaml:"production"`
	Building   []WorkTemplate `yaml:"building"`
	Rest       []WorkTemplate `yaml:"rest"`
	Synthetic  []WorkTemplate `yaml:"synthetic"`
}

// WorkTable holds every work template of the four variants indexed by type.
type WorkTable struct {
	works map[string]*WorkTemplate
}

func NewWorkTable(works ...WorkTemplate) *WorkTable {
	t := &WorkTable{works: make(map[string]*WorkTemplate, len(works))}
	for i := range works {
		w := works[i]
		t.works[w.Type] = &w
	}
	return t
}

// Get returns a work template, or nil if not found.
func (t *WorkTable) Get(typ string) *WorkTemplate {
	return t.works[typ]
}

// Count returns the number of work templates loaded.
func (t *WorkTable) Count() int {
	return len(t.works)
}

// LoadWorkTable loads the four variant lists from a YAML file.
func LoadWorkTable(path string) (*WorkTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read work_list: %w", err)
	}
	var f workListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse work_list: %w", err)
	}
	var all []WorkTemplate
	for v, list := range map[Variant][]WorkTemplate{
		VariantProduction: f.Production,
		VariantBuilding:   f.Building,
		VariantRest:       f.Rest,
		VariantSynthetic:  f.Synthetic,
	} {
		for _, w := range list {
			if w.Type == "" {
				return nil, fmt.Errorf("work_list: %s entry without type", v)
			}
			if w.BaseTime <= 0 {
				return nil, fmt.Errorf("work_list: %s has non-positive base_time", w.Type)
			}
			w.Variant = v
			all = append(all, w)
		}
	}
	t := NewWorkTable(all...)
	if t.Count() != len(all) {
		return nil, fmt.Errorf("work_list: duplicate work type")
	}
	return t, nil
}
