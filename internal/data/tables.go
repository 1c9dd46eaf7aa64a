package data

import (
	"fmt"
	"path/filepath"
)

// Tables bundles the read-only lookup tables the simulation consumes.
type Tables struct {
	Items     *ItemTable
	Buildings *BuildingTable
	Species   *SpeciesTable
	Works     *WorkTable
}

// LoadTables reads item_list, building_list, species_list and work_list from
// dir and cross-checks their references.
func LoadTables(dir string) (*Tables, error) {
	items, err := LoadItemTable(filepath.Join(dir, "item_list.yaml"))
	if err != nil {
		return nil, err
	}
	buildings, err := LoadBuildingTable(filepath.Join(dir, "building_list.yaml"))
	if err != nil {
		return nil, err
	}
	species, err := LoadSpeciesTable(filepath.Join(dir, "species_list.yaml"))
	if err != nil {
		return nil, err
	}
	works, err := LoadWorkTable(filepath.Join(dir, "work_list.yaml"))
	if err != nil {
		return nil, err
	}
	t := &Tables{Items: items, Buildings: buildings, Species: species, Works: works}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that every item and building type referenced exists.
func (t *Tables) Validate() error {
	checkItems := func(owner string, m map[ItemType]int) error {
		for it, n := range m {
			if t.Items.Get(it) == nil {
				return fmt.Errorf("%s references unknown item %q", owner, it)
			}
			if n <= 0 {
				return fmt.Errorf("%s has non-positive amount for %q", owner, it)
			}
		}
		return nil
	}
	for _, b := range t.Buildings.buildings {
		if b.Capacity <= 0 {
			return fmt.Errorf("building %s has no worker slots", b.Type)
		}
		if err := checkItems("building "+b.Type, b.Cost); err != nil {
			return err
		}
		for _, wt := range b.WorkTypes {
			if t.Works.Get(wt) == nil {
				return fmt.Errorf("building %s references unknown work %q", b.Type, wt)
			}
		}
	}
	for _, w := range t.Works.works {
		if err := checkItems("work "+w.Type, w.Inputs); err != nil {
			return err
		}
		if err := checkItems("work "+w.Type, w.Outputs); err != nil {
			return err
		}
		if w.Variant == VariantBuilding && t.Buildings.Get(w.BuildingType) == nil {
			return fmt.Errorf("work %s builds unknown building %q", w.Type, w.BuildingType)
		}
	}
	return nil
}
