package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadShippedTables(t *testing.T) {
	tables, err := LoadTables(filepath.Join("..", "..", "data", "yaml"))
	require.NoError(t, err)

	assert.NotNil(t, tables.Items.Get("wood"))
	camp := tables.Buildings.Get("lumber_camp")
	require.NotNil(t, camp)
	assert.Equal(t, 3, camp.Cost["wood"])

	chop := tables.Works.Get("chop_wood")
	require.NotNil(t, chop)
	assert.Equal(t, VariantProduction, chop.Variant)
	assert.Equal(t, VariantBuilding, tables.Works.Get("build_lumber_camp").Variant)
	assert.Equal(t, VariantRest, tables.Works.Get("nap").Variant)
	assert.Equal(t, VariantSynthetic, tables.Works.Get("saw_planks").Variant)

	assert.Equal(t, 100, tables.Species.Get("slime").WorkEfficiency("chop_wood"))
	assert.Zero(t, tables.Species.Get("slime").WorkEfficiency("saw_planks"))
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadTablesRejectsDanglingReferences(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "item_list.yaml", "items:\n  - type: wood\n")
	writeFile(t, dir, "building_list.yaml", "buildings:\n  - type: hut\n    work_types: [chop]\n")
	writeFile(t, dir, "species_list.yaml", "species: []\n")
	writeFile(t, dir, "work_list.yaml", "production:\n  - type: chop\n    base_time: 5\n    outputs:\n      gold: 1\n")

	_, err := LoadTables(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gold")
}

func TestLoadWorkTableRejectsBadEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "w.yaml", "rest:\n  - type: nap\n    base_time: 0\n")
	_, err := LoadWorkTable(filepath.Join(dir, "w.yaml"))
	assert.Error(t, err)

	writeFile(t, dir, "dup.yaml", "rest:\n  - type: nap\n    base_time: 1\nproduction:\n  - type: nap\n    base_time: 1\n")
	_, err = LoadWorkTable(filepath.Join(dir, "dup.yaml"))
	assert.Error(t, err)

	_, err = LoadWorkTable(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestBuildingDefaults(t *testing.T) {
	tbl := NewBuildingTable(BuildingTemplate{Type: "hut"})
	hut := tbl.Get("hut")
	require.NotNil(t, hut)
	assert.Equal(t, 1.0, hut.Efficiency)
	assert.Equal(t, 1, hut.Capacity)
	assert.Nil(t, tbl.Get("castle"))
}

func TestBuildingCapacityMustLeaveASlot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "buildings:\n  - type: hut\n    capacity: -1\n")
	_, err := LoadBuildingTable(filepath.Join(dir, "b.yaml"))
	assert.Error(t, err)

	tables := &Tables{
		Items:     NewItemTable(),
		Buildings: &BuildingTable{buildings: map[string]*BuildingTemplate{"hut": {Type: "hut"}}},
		Species:   NewSpeciesTable(),
		Works:     NewWorkTable(),
	}
	err = tables.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker slots")
}
