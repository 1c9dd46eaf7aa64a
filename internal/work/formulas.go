package work

import (
	"math"
	"time"

	"github.com/hexcolony/server/internal/data"
)

// Formulas computes the tunable numbers of a work session. The Lua engine in
// internal/scripting implements it; StandardFormulas is the built-in version.
type Formulas interface {
	// WorkDuration returns the session length in virtual milliseconds.
	WorkDuration(def *data.WorkTemplate, speciesEfficiency int, buildingEfficiency float64) int64
	// RestStamina returns the stamina regained over dt.
	RestStamina(def *data.WorkTemplate, efficiency float64, dt time.Duration) float64
}

type StandardFormulas struct{}

// WorkDuration is round(baseTime*1000 / ((speciesEff/100) * buildingEff)).
func (StandardFormulas) WorkDuration(def *data.WorkTemplate, speciesEfficiency int, buildingEfficiency float64) int64 {
	factor := Efficiency(speciesEfficiency, buildingEfficiency)
	if factor <= 0 {
		factor = 1
	}
	return int64(math.Round(def.BaseTime * 1000 / factor))
}

func (StandardFormulas) RestStamina(def *data.WorkTemplate, efficiency float64, dt time.Duration) float64 {
	return def.StaminaPerSecond * efficiency * dt.Seconds()
}

// Efficiency combines the species percent and the building multiplier.
func Efficiency(speciesEfficiency int, buildingEfficiency float64) float64 {
	return float64(speciesEfficiency) / 100 * buildingEfficiency
}
