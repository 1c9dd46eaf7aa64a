package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SpeciesTemplate holds the static stats of a monster species.
type SpeciesTemplate struct {
	Type       string         `yaml:"type"`
	Name       string         `yaml:"name"`
	MaxStamina float64        `yaml:"max_stamina"`
	Speed      float64        `yaml:"speed"`      // pixels per second
	Efficiency map[string]int `yaml:"efficiency"` // work type → percent, 0/absent = cannot do it
}

// WorkEfficiency returns the species' efficiency percent for a work type.
func (s *SpeciesTemplate) WorkEfficiency(workType string) int {
	if s == nil {
		return 0
	}
	return s.Efficiency[workType]
}

type speciesListFile struct {
	Species []SpeciesTemplate `yaml:"species"`
}

// SpeciesTable holds all species indexed by type.
type SpeciesTable struct {
	species map[string]*SpeciesTemplate
}

func NewSpeciesTable(species ...SpeciesTemplate) *SpeciesTable {
	t := &SpeciesTable{species: make(map[string]*SpeciesTemplate, len(species))}
	for i := range species {
		s := species[i]
		t.species[s.Type] = &s
	}
	return t
}

// Get returns a species, or nil if not found.
func (t *SpeciesTable) Get(typ string) *SpeciesTemplate {
	return t.species[typ]
}

// Count returns the number of species loaded.
func (t *SpeciesTable) Count() int {
	return len(t.species)
}

// LoadSpeciesTable loads species stats and work efficiencies from a YAML file.
func LoadSpeciesTable(path string) (*SpeciesTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read species_list: %w", err)
	}
	var f speciesListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse species_list: %w", err)
	}
	for _, s := range f.Species {
		if s.Type == "" {
			return nil, fmt.Errorf("species_list: entry without type")
		}
	}
	return NewSpeciesTable(f.Species...), nil
}
