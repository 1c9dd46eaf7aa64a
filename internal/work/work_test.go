package work

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hexcolony/server/internal/component"
	"github.com/hexcolony/server/internal/core/clock"
	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/core/event"
	"github.com/hexcolony/server/internal/data"
	"github.com/hexcolony/server/internal/hex"
	"github.com/hexcolony/server/internal/nav"
)

func testTables() *data.Tables {
	return &data.Tables{
		Items: data.NewItemTable(
			data.ItemTemplate{Type: "wood"},
			data.ItemTemplate{Type: "plank"},
		),
		Buildings: data.NewBuildingTable(
			data.BuildingTemplate{Type: "lumber_camp", Capacity: 1, WorkTypes: []string{"chop_wood", "build_lumber_camp"},
				Cost: map[data.ItemType]int{"wood": 3}},
			data.BuildingTemplate{Type: "workshop", Capacity: 2, WorkTypes: []string{"saw_planks", "nap"}},
		),
		Species: data.NewSpeciesTable(data.SpeciesTemplate{
			Type: "slime", MaxStamina: 100, Speed: 60,
			Efficiency: map[string]int{"chop_wood": 100, "build_lumber_camp": 100, "saw_planks": 50, "nap": 100},
		}),
		Works: data.NewWorkTable(
			data.WorkTemplate{Type: "chop_wood", Variant: data.VariantProduction, BaseTime: 30,
				Outputs: map[data.ItemType]int{"wood": 2}},
			data.WorkTemplate{Type: "build_lumber_camp", Variant: data.VariantBuilding, BaseTime: 10,
				Inputs: map[data.ItemType]int{"wood": 3}, BuildingType: "lumber_camp"},
			data.WorkTemplate{Type: "nap", Variant: data.VariantRest, BaseTime: 10, StaminaPerSecond: 2},
			data.WorkTemplate{Type: "saw_planks", Variant: data.VariantSynthetic, BaseTime: 5, RequiredLevel: 2, StaminaCost: 5,
				Inputs: map[data.ItemType]int{"wood": 2}, Outputs: map[data.ItemType]int{"plank": 1}},
		),
	}
}

type fixture struct {
	t        *testing.T
	world    *ecs.World
	clock    *clock.Virtual
	bus      *event.Bus
	coord    *Coordinator
	avatar   ecs.EntityID
	space    ecs.EntityID
	backpack *component.Backpack
	grid     *hex.Grid
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()
	w := ecs.NewWorld(component.NewRegistry(log), log)
	f := &fixture{t: t, world: w, clock: &clock.Virtual{}, bus: event.NewBus()}
	f.coord = NewCoordinator(w, testTables(), f.clock, f.bus, nil, log)

	av := w.CreateEntity(component.EntityAvatar)
	require.NotNil(t, av)
	f.avatar = av.ID()
	f.backpack, _ = ecs.Get[*component.Backpack](av, component.KindBackpack)

	se := w.CreateEntity(component.EntitySpace)
	require.NotNil(t, se)
	f.space = se.ID()
	sp, _ := ecs.Get[*component.Space](se, component.KindSpace)
	sp.AvatarID = f.avatar
	sp.ResetMap(hex.Layout{Size: 20}, 0, 1)
	sp.ExpandMapLevel(3)
	f.grid = sp.Grid
	return f
}

func (f *fixture) monster(at hex.Coord, level int, stamina float64) ecs.EntityID {
	e := f.world.CreateEntity(component.EntityMonster)
	require.NotNil(f.t, e)
	m, _ := ecs.Get[*component.Monster](e, component.KindMonster)
	m.Species = "slime"
	m.Level = level
	m.Stamina = stamina
	m.MaxStamina = 100
	m.AvatarID = f.avatar
	m.SpaceID = f.space
	tr, _ := ecs.Get[*component.Transform](e, component.KindTransform)
	tr.Place(at, f.grid.Layout)
	return e.ID()
}

func (f *fixture) building(typ string, at hex.Coord, state component.BuildingState) ecs.EntityID {
	se, _ := f.world.Entity(f.space)
	sp, _ := ecs.Get[*component.Space](se, component.KindSpace)
	e, ok := f.coord.placeBuilding(se, sp, f.avatar, typ, at)
	require.True(f.t, ok)
	b, _ := ecs.Get[*component.Building](e, component.KindBuilding)
	b.SetState(state)
	return e.ID()
}

func (f *fixture) getMonster(id ecs.EntityID) *component.Monster {
	e, ok := f.world.Entity(id)
	require.True(f.t, ok)
	m, _ := ecs.Get[*component.Monster](e, component.KindMonster)
	return m
}

func (f *fixture) getBuilding(id ecs.EntityID) *component.Building {
	e, ok := f.world.Entity(id)
	require.True(f.t, ok)
	b, _ := ecs.Get[*component.Building](e, component.KindBuilding)
	return b
}

func (f *fixture) req(monster ecs.EntityID, work string, at hex.Coord) Request {
	return Request{AvatarID: f.avatar, SpaceID: f.space, MonsterID: monster, WorkType: work, Coord: at}
}

// tick advances virtual time and runs every variant update.
func (f *fixture) tick(d time.Duration) {
	f.clock.Advance(d)
	for _, v := range data.Variants {
		f.coord.Update(v, d)
	}
}

func TestProductionCompletesAfterDuration(t *testing.T) {
	f := newFixture(t)
	at := hex.Coord{Q: 1}
	b := f.building("lumber_camp", at, component.BuildingConstructed)
	m := f.monster(at, 1, 10)

	var finished []event.WorkFinished
	event.Subscribe(f.bus, func(ev event.WorkFinished) { finished = append(finished, ev) })

	require.True(t, f.coord.StartWork(f.req(m, "chop_wood", at)))
	assert.Equal(t, component.MonsterWorking, f.getMonster(m).Status)
	assert.Equal(t, []ecs.EntityID{m}, f.getBuilding(b).Workers)

	rec, v, ok := f.coord.Record(f.space, m)
	require.True(t, ok)
	assert.Equal(t, data.VariantProduction, v)
	assert.Equal(t, int64(30000), rec.EndTime-rec.StartTime)

	f.tick(29999 * time.Millisecond)
	assert.Less(t, rec.Progress, 1.0)
	assert.Equal(t, component.MonsterWorking, f.getMonster(m).Status)
	assert.Zero(t, f.backpack.Count("wood"))

	f.tick(time.Millisecond)
	assert.Equal(t, component.MonsterIdle, f.getMonster(m).Status)
	assert.Equal(t, 2, f.backpack.Count("wood"))
	assert.Empty(t, f.getBuilding(b).Workers)
	_, _, ok = f.coord.Record(f.space, m)
	assert.False(t, ok)

	f.tick(time.Second)
	assert.Equal(t, 2, f.backpack.Count("wood"))

	f.bus.Deliver()
	require.Len(t, finished, 1)
	assert.Equal(t, m, finished[0].MonsterID)
}

func TestProgressNeverDecreases(t *testing.T) {
	f := newFixture(t)
	at := hex.Coord{Q: 1}
	f.building("lumber_camp", at, component.BuildingConstructed)
	m := f.monster(at, 1, 10)
	require.True(t, f.coord.StartWork(f.req(m, "chop_wood", at)))
	rec, _, _ := f.coord.Record(f.space, m)

	f.tick(15 * time.Second)
	assert.InDelta(t, 0.5, rec.Progress, 1e-9)

	f.clock.Set(rec.StartTime + 1000)
	f.coord.Update(data.VariantProduction, 0)
	assert.InDelta(t, 0.5, rec.Progress, 1e-9)
}

func TestPlaceBuildingDeductsCost(t *testing.T) {
	f := newFixture(t)
	f.backpack.Add(map[data.ItemType]int{"wood": 5})

	e, ok := f.coord.PlaceBuilding(f.avatar, f.space, "lumber_camp", hex.Coord{})
	require.True(t, ok)
	b, _ := ecs.Get[*component.Building](e, component.KindBuilding)
	assert.Equal(t, component.BuildingConstructing, b.State)
	assert.Equal(t, hex.Coord{}, b.Coord)
	assert.Equal(t, 2, f.backpack.Count("wood"))
	assert.Equal(t, e.ID(), f.grid.Occupant(hex.Coord{}))

	_, ok = f.coord.PlaceBuilding(f.avatar, f.space, "lumber_camp", hex.Coord{Q: 1})
	assert.False(t, ok, "cannot afford a second one")
	assert.Equal(t, 2, f.backpack.Count("wood"))

	_, ok = f.coord.PlaceBuilding(f.avatar, f.space, "lumber_camp", hex.Coord{Q: 40})
	assert.False(t, ok, "unknown hex")
	_, ok = f.coord.PlaceBuilding(f.avatar+100, f.space, "lumber_camp", hex.Coord{Q: 1})
	assert.False(t, ok, "foreign space")
}

func TestBuildingWorkPlacesAndConstructs(t *testing.T) {
	f := newFixture(t)
	f.backpack.Add(map[data.ItemType]int{"wood": 4})
	at := hex.Coord{R: 1}
	m := f.monster(at, 1, 10)

	var built []event.BuildingConstructed
	event.Subscribe(f.bus, func(ev event.BuildingConstructed) { built = append(built, ev) })

	require.True(t, f.coord.StartWork(f.req(m, "build_lumber_camp", at)))
	assert.Equal(t, 1, f.backpack.Count("wood"))
	id := f.grid.Occupant(at)
	require.NotZero(t, id)
	assert.Equal(t, component.BuildingConstructing, f.getBuilding(id).State)

	f.tick(10 * time.Second)
	assert.Equal(t, component.BuildingConstructed, f.getBuilding(id).State)
	assert.Equal(t, 1, f.backpack.Count("wood"), "completion refunds nothing")

	f.bus.Deliver()
	require.Len(t, built, 1)
	assert.Equal(t, id, built[0].BuildingID)
}

func TestBuildingWorkOnPlacedBuildingIsNotChargedTwice(t *testing.T) {
	f := newFixture(t)
	f.backpack.Add(map[data.ItemType]int{"wood": 3})
	at := hex.Coord{}
	_, ok := f.coord.PlaceBuilding(f.avatar, f.space, "lumber_camp", at)
	require.True(t, ok)
	require.Zero(t, f.backpack.Count("wood"))

	m := f.monster(at, 1, 10)
	assert.True(t, f.coord.StartWork(f.req(m, "build_lumber_camp", at)))
}

func TestCancelRefundsPaidInputs(t *testing.T) {
	f := newFixture(t)
	f.backpack.Add(map[data.ItemType]int{"wood": 2})
	at := hex.Coord{Q: -1}
	b := f.building("workshop", at, component.BuildingConstructed)
	m := f.monster(at, 2, 10)

	require.True(t, f.coord.StartWork(f.req(m, "saw_planks", at)))
	assert.Zero(t, f.backpack.Count("wood"))
	assert.Equal(t, 5.0, f.getMonster(m).Stamina)

	rec, _, _ := f.coord.Record(f.space, m)
	assert.Equal(t, int64(10000), rec.EndTime-rec.StartTime)

	require.True(t, f.coord.StopWork(f.space, m, false))
	assert.Equal(t, 2, f.backpack.Count("wood"))
	assert.Zero(t, f.backpack.Count("plank"))
	assert.Equal(t, 5.0, f.getMonster(m).Stamina, "stamina cost is not refunded")
	assert.Equal(t, component.MonsterIdle, f.getMonster(m).Status)
	assert.Empty(t, f.getBuilding(b).Workers)
	assert.False(t, f.coord.StopWork(f.space, m, false))
}

func TestCanceledBuildSessionRemovesPlacedBuilding(t *testing.T) {
	f := newFixture(t)
	f.backpack.Add(map[data.ItemType]int{"wood": 3})
	at := hex.Coord{R: -1}
	m := f.monster(at, 1, 10)

	require.True(t, f.coord.StartWork(f.req(m, "build_lumber_camp", at)))
	assert.Zero(t, f.backpack.Count("wood"), "inputs paid at start")
	id := f.grid.Occupant(at)
	require.NotZero(t, id)
	rec, _, ok := f.coord.Record(f.space, m)
	require.True(t, ok)
	assert.Equal(t, map[data.ItemType]int{"wood": 3}, rec.Paid)

	require.True(t, f.coord.StopWork(f.space, m, false))
	assert.Equal(t, 3, f.backpack.Count("wood"), "refunded on cancel")
	assert.Zero(t, f.grid.Occupant(at))
	assert.True(t, f.world.PendingDestruction(id))
}

func TestBuildWorkOnEmptyHexNeedsInputs(t *testing.T) {
	f := newFixture(t)
	f.backpack.Add(map[data.ItemType]int{"wood": 2})
	at := hex.Coord{R: -1}
	m := f.monster(at, 1, 10)

	assert.False(t, f.coord.CheckCanStartWork(f.req(m, "build_lumber_camp", at)))
	assert.False(t, f.coord.StartWork(f.req(m, "build_lumber_camp", at)))
	assert.Zero(t, f.grid.Occupant(at), "nothing placed")
	assert.Equal(t, 2, f.backpack.Count("wood"))
	assert.Equal(t, component.MonsterIdle, f.getMonster(m).Status)
}

func TestBuildWorkRollsBackWhenBuildingRefusesWorker(t *testing.T) {
	f := newFixture(t)
	f.backpack.Add(map[data.ItemType]int{"wood": 3})
	f.coord.tables.Buildings.Get("lumber_camp").Capacity = 0
	at := hex.Coord{Q: 1, R: -1}
	m := f.monster(at, 1, 10)
	before := f.world.Len()

	assert.False(t, f.coord.StartWork(f.req(m, "build_lumber_camp", at)))
	assert.Equal(t, 3, f.backpack.Count("wood"), "refunded")
	assert.Zero(t, f.grid.Occupant(at))
	assert.Equal(t, component.MonsterIdle, f.getMonster(m).Status)
	assert.Equal(t, 10.0, f.getMonster(m).Stamina)
	f.world.FlushDestroyQueue()
	assert.Equal(t, before, f.world.Len())
	_, _, ok := f.coord.Record(f.space, m)
	assert.False(t, ok)
}

func TestBuildWorkOnFinishedBuilding(t *testing.T) {
	f := newFixture(t)
	at := hex.Coord{Q: -1, R: 1}
	b := f.building("lumber_camp", at, component.BuildingConstructed)
	m := f.monster(at, 1, 10)

	var built []event.BuildingConstructed
	event.Subscribe(f.bus, func(ev event.BuildingConstructed) { built = append(built, ev) })

	require.True(t, f.coord.StartWork(f.req(m, "build_lumber_camp", at)), "no charge for an existing building")
	f.tick(10 * time.Second)
	assert.Equal(t, component.BuildingConstructed, f.getBuilding(b).State)
	assert.Equal(t, component.MonsterIdle, f.getMonster(m).Status)

	f.bus.Deliver()
	assert.Empty(t, built)
}

func TestRestRegeneratesStamina(t *testing.T) {
	f := newFixture(t)
	at := hex.Coord{Q: 1, R: -1}
	f.building("workshop", at, component.BuildingConstructed)
	m := f.monster(at, 1, 10)

	require.True(t, f.coord.StartWork(f.req(m, "nap", at)))
	f.tick(2 * time.Second)
	assert.InDelta(t, 14.0, f.getMonster(m).Stamina, 1e-9)

	f.getMonster(m).Stamina = 99
	f.tick(2 * time.Second)
	assert.Equal(t, 100.0, f.getMonster(m).Stamina)

	f.tick(6 * time.Second)
	assert.Equal(t, component.MonsterIdle, f.getMonster(m).Status)
}

func TestCheckCanStartWorkRejections(t *testing.T) {
	f := newFixture(t)
	at := hex.Coord{Q: 1}
	shop := hex.Coord{Q: -1}
	b := f.building("lumber_camp", at, component.BuildingConstructing)
	f.building("workshop", shop, component.BuildingConstructed)
	m := f.monster(at, 1, 1)

	assert.False(t, f.coord.CheckCanStartWork(f.req(m, "dig", at)), "unknown work type")
	assert.False(t, f.coord.CheckCanStartWork(f.req(m, "chop_wood", at)), "building not constructed")
	f.getBuilding(b).SetState(component.BuildingConstructed)
	assert.True(t, f.coord.CheckCanStartWork(f.req(m, "chop_wood", at)))

	assert.False(t, f.coord.CheckCanStartWork(f.req(m, "saw_planks", shop)), "level too low")
	f.getMonster(m).Level = 2
	assert.False(t, f.coord.CheckCanStartWork(f.req(m, "saw_planks", shop)), "not enough stamina")
	f.getMonster(m).Stamina = 50
	assert.False(t, f.coord.CheckCanStartWork(f.req(m, "saw_planks", shop)), "inputs not affordable")
	assert.False(t, f.coord.CheckCanStartWork(f.req(m, "nap", at)), "building does not support work")
	assert.True(t, f.coord.CheckCanStartWork(f.req(m, "build_lumber_camp", at)), "finished building still takes build work")

	other := f.monster(at, 1, 10)
	require.True(t, f.coord.StartWork(f.req(other, "chop_wood", at)))
	assert.False(t, f.coord.CheckCanStartWork(f.req(m, "chop_wood", at)), "no free slot")
	assert.False(t, f.coord.CheckCanStartWork(f.req(other, "nap", shop)), "monster busy")
}

func TestFlowMovesThenWorks(t *testing.T) {
	f := newFixture(t)
	target := hex.Coord{Q: 2}
	f.building("lumber_camp", target, component.BuildingConstructed)
	m := f.monster(hex.Coord{}, 1, 10)

	require.True(t, f.coord.RequestFlow(f.req(m, "chop_wood", target)))
	assert.False(t, f.coord.RequestFlow(f.req(m, "chop_wood", target)), "one flow per monster")

	f.coord.AdvanceFlows()
	assert.Equal(t, component.MonsterMoving, f.getMonster(m).Status)

	mo, ok := f.coord.resolveMover(f.avatar, m)
	require.True(t, ok)
	for i := 0; i < 20 && mo.nav.State != component.NavArrived; i++ {
		nav.Step(mo.nav, mo.mv, mo.tr, f.grid)
		mo.tr.MoveTo(mo.tr.Position.Add(mo.mv.Direction.Scale(mo.mv.Limit)), mo.tr.Coord)
	}
	require.Equal(t, component.NavArrived, mo.nav.State)

	f.coord.AdvanceFlows()
	assert.Equal(t, component.MonsterWorking, f.getMonster(m).Status)
	assert.True(t, f.coord.HasFlow(f.space, m))

	f.tick(30 * time.Second)
	f.coord.AdvanceFlows()
	assert.False(t, f.coord.HasFlow(f.space, m))
	assert.Equal(t, 2, f.backpack.Count("wood"))
}

func TestFlowOnTargetStartsImmediately(t *testing.T) {
	f := newFixture(t)
	at := hex.Coord{Q: 1}
	f.building("lumber_camp", at, component.BuildingConstructed)
	m := f.monster(at, 1, 10)

	require.True(t, f.coord.RequestFlow(f.req(m, "chop_wood", at)))
	f.coord.AdvanceFlows()
	assert.Equal(t, component.MonsterWorking, f.getMonster(m).Status)
}

func TestFlowAbortsWhenNavigationSuperseded(t *testing.T) {
	f := newFixture(t)
	target := hex.Coord{Q: 2}
	f.building("lumber_camp", target, component.BuildingConstructed)
	m := f.monster(hex.Coord{}, 1, 10)

	require.True(t, f.coord.RequestFlow(f.req(m, "chop_wood", target)))
	f.coord.AdvanceFlows()

	mo, _ := f.coord.resolveMover(f.avatar, m)
	nav.Start(mo.nav, mo.tr, hex.Coord{R: 1})
	f.coord.AdvanceFlows()
	assert.False(t, f.coord.HasFlow(f.space, m))
	assert.Equal(t, component.MonsterIdle, f.getMonster(m).Status)
}

func TestFlowAbortsOnceWhenStartFails(t *testing.T) {
	f := newFixture(t)
	at := hex.Coord{Q: 1}
	b := f.building("lumber_camp", at, component.BuildingConstructed)
	m := f.monster(at, 1, 10)

	require.True(t, f.coord.RequestFlow(f.req(m, "chop_wood", at)))
	f.getBuilding(b).SetState(component.BuildingConstructing)
	f.coord.AdvanceFlows()
	assert.False(t, f.coord.HasFlow(f.space, m))
	assert.Equal(t, component.MonsterIdle, f.getMonster(m).Status)
}

func TestCancelFlowWhileWorkingRefunds(t *testing.T) {
	f := newFixture(t)
	f.backpack.Add(map[data.ItemType]int{"wood": 2})
	at := hex.Coord{Q: -1}
	f.building("workshop", at, component.BuildingConstructed)
	m := f.monster(at, 2, 10)

	require.True(t, f.coord.RequestFlow(f.req(m, "saw_planks", at)))
	f.coord.AdvanceFlows()
	require.Zero(t, f.backpack.Count("wood"))

	require.True(t, f.coord.CancelFlow(f.space, m))
	f.coord.AdvanceFlows()
	assert.False(t, f.coord.HasFlow(f.space, m))
	assert.Equal(t, 2, f.backpack.Count("wood"))
	assert.Equal(t, component.MonsterIdle, f.getMonster(m).Status)
}

func TestRemoveBuildingStopsWorkers(t *testing.T) {
	f := newFixture(t)
	at := hex.Coord{Q: 1}
	b := f.building("lumber_camp", at, component.BuildingConstructed)
	m := f.monster(at, 1, 10)
	require.True(t, f.coord.RequestFlow(f.req(m, "chop_wood", at)))
	f.coord.AdvanceFlows()

	require.True(t, f.coord.RemoveBuilding(f.avatar, b))
	assert.Equal(t, component.MonsterIdle, f.getMonster(m).Status)
	assert.False(t, f.coord.HasFlow(f.space, m))
	assert.True(t, f.world.PendingDestruction(b))
	assert.Zero(t, f.grid.Occupant(at))
	assert.False(t, f.coord.RemoveBuilding(f.avatar+50, b))
}
