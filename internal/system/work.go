package system

import (
	"time"

	coresys "github.com/hexcolony/server/internal/core/system"
	"github.com/hexcolony/server/internal/data"
	"github.com/hexcolony/server/internal/work"
)

// WorkProgressSystem advances the sessions of one work variant.
type WorkProgressSystem struct {
	coord   *work.Coordinator
	variant data.Variant
	name    string
	after   string
}

// NewWorkProgressSystems returns the four progress systems in execution
// order, the first running after the movement system.
func NewWorkProgressSystems(coord *work.Coordinator) []*WorkProgressSystem {
	return []*WorkProgressSystem{
		{coord: coord, variant: data.VariantProduction, name: NameProductionWork, after: NameMovement},
		{coord: coord, variant: data.VariantBuilding, name: NameBuildingWork, after: NameProductionWork},
		{coord: coord, variant: data.VariantRest, name: NameRestWork, after: NameBuildingWork},
		{coord: coord, variant: data.VariantSynthetic, name: NameSyntheticWork, after: NameRestWork},
	}
}

func (s *WorkProgressSystem) Name() string          { return s.name }
func (s *WorkProgressSystem) Phase() coresys.Phase  { return coresys.PhaseExecute }
func (s *WorkProgressSystem) After() []string       { return []string{s.after} }
func (s *WorkProgressSystem) Variant() data.Variant { return s.variant }

func (s *WorkProgressSystem) Update(dt time.Duration) {
	s.coord.Update(s.variant, dt)
}

// WorkFlowSystem runs the move-then-work state machine of every flow.
type WorkFlowSystem struct {
	coord *work.Coordinator
}

func NewWorkFlowSystem(coord *work.Coordinator) *WorkFlowSystem {
	return &WorkFlowSystem{coord: coord}
}

func (s *WorkFlowSystem) Name() string         { return NameWorkFlow }
func (s *WorkFlowSystem) Phase() coresys.Phase { return coresys.PhaseExecute }
func (s *WorkFlowSystem) After() []string      { return []string{NameSyntheticWork} }

func (s *WorkFlowSystem) Update(_ time.Duration) {
	s.coord.AdvanceFlows()
}
