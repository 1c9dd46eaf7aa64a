package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/hexcolony/server/internal/data"
	"github.com/hexcolony/server/internal/work"
)

// Engine wraps a single gopher-lua VM holding the work formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm       *lua.LState
	fallback work.Formulas
	log      *zap.Logger
}

var _ work.Formulas = (*Engine)(nil)

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. Formulas the scripts do not define use fallback.
func NewEngine(scriptsDir string, fallback work.Formulas, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	if fallback == nil {
		fallback = work.StandardFormulas{}
	}
	e := &Engine{vm: vm, fallback: fallback, log: log}

	for _, sub := range []string{"core", "work"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Has reports whether a Lua global function is defined.
func (e *Engine) Has(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

func workTable(vm *lua.LState, def *data.WorkTemplate) *lua.LTable {
	t := vm.NewTable()
	t.RawSetString("type", lua.LString(def.Type))
	t.RawSetString("variant", lua.LString(def.Variant.String()))
	t.RawSetString("base_time", lua.LNumber(def.BaseTime))
	t.RawSetString("required_level", lua.LNumber(def.RequiredLevel))
	t.RawSetString("stamina_cost", lua.LNumber(def.StaminaCost))
	t.RawSetString("stamina_per_second", lua.LNumber(def.StaminaPerSecond))
	return t
}

// callNumber calls a global Lua function with one context table and reads a
// numeric result. ok is false when the function is missing or fails.
func (e *Engine) callNumber(name string, ctx *lua.LTable) (float64, bool) {
	fn, isFn := e.vm.GetGlobal(name).(*lua.LFunction)
	if !isFn {
		return 0, false
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, ctx); err != nil {
		e.log.Error("lua "+name+" error", zap.Error(err))
		return 0, false
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	n, isNum := ret.(lua.LNumber)
	if !isNum || math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
		e.log.Error("lua "+name+" returned non-number", zap.String("type", ret.Type().String()))
		return 0, false
	}
	return float64(n), true
}

// WorkDuration calls calc_work_duration(ctx) and expects milliseconds.
// ctx = { work = {...}, species_efficiency, building_efficiency, default }.
func (e *Engine) WorkDuration(def *data.WorkTemplate, speciesEfficiency int, buildingEfficiency float64) int64 {
	def0 := e.fallback.WorkDuration(def, speciesEfficiency, buildingEfficiency)

	t := e.vm.NewTable()
	t.RawSetString("work", workTable(e.vm, def))
	t.RawSetString("species_efficiency", lua.LNumber(speciesEfficiency))
	t.RawSetString("building_efficiency", lua.LNumber(buildingEfficiency))
	t.RawSetString("default", lua.LNumber(def0))

	ms, ok := e.callNumber("calc_work_duration", t)
	if !ok || ms < 0 {
		return def0
	}
	return int64(math.Round(ms))
}

// RestStamina calls calc_rest_stamina(ctx) and expects the stamina gained.
// ctx = { work = {...}, efficiency, dt (seconds), default }.
func (e *Engine) RestStamina(def *data.WorkTemplate, efficiency float64, dt time.Duration) float64 {
	def0 := e.fallback.RestStamina(def, efficiency, dt)

	t := e.vm.NewTable()
	t.RawSetString("work", workTable(e.vm, def))
	t.RawSetString("efficiency", lua.LNumber(efficiency))
	t.RawSetString("dt", lua.LNumber(dt.Seconds()))
	t.RawSetString("default", lua.LNumber(def0))

	n, ok := e.callNumber("calc_rest_stamina", t)
	if !ok || n < 0 {
		return def0
	}
	return n
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
