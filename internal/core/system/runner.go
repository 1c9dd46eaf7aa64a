package system

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	ErrMissingPredecessor = errors.New("predecessor system not registered")
	ErrDuplicateSystem    = errors.New("system already registered")
)

// Runner executes systems phase by phase each tick. Within a phase, systems
// run in registration order adjusted for declared predecessors.
type Runner struct {
	phases      map[Phase][]System
	byName      map[string]System
	initialized bool
	log         *zap.Logger
}

func NewRunner(log *zap.Logger) *Runner {
	return &Runner{
		phases: make(map[Phase][]System, 5),
		byName: make(map[string]System, 16),
		log:    log,
	}
}

// Register inserts s right after the last of its predecessors in its phase
// list, or at the end when it declares none. A predecessor that is not yet
// registered in the same phase is a configuration error.
func (r *Runner) Register(s System) error {
	name := s.Name()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateSystem, name)
	}
	list := r.phases[s.Phase()]
	pos := len(list)
	if dep, ok := s.(Dependent); ok && len(dep.After()) > 0 {
		last := -1
		for _, pred := range dep.After() {
			idx := indexOf(list, pred)
			if idx < 0 {
				return fmt.Errorf("%w: %s requires %s in phase %s", ErrMissingPredecessor, name, pred, s.Phase())
			}
			if idx > last {
				last = idx
			}
		}
		pos = last + 1
	}
	list = append(list, nil)
	copy(list[pos+1:], list[pos:])
	list[pos] = s
	r.phases[s.Phase()] = list
	r.byName[name] = s
	return nil
}

// MustRegister registers every system and panics on the first failure.
// Used at startup where a bad ordering is fatal.
func (r *Runner) MustRegister(systems ...System) {
	for _, s := range systems {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

func indexOf(list []System, name string) int {
	for i, s := range list {
		if s.Name() == name {
			return i
		}
	}
	return -1
}

// Order returns the system names of a phase in execution order.
func (r *Runner) Order(p Phase) []string {
	list := r.phases[p]
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Name()
	}
	return out
}

// Init runs the Initialize phase once.
func (r *Runner) Init() {
	if r.initialized {
		return
	}
	r.initialized = true
	r.TickPhase(PhaseInitialize, 0)
}

// SkipInit marks the Initialize phase as done, used when a world is restored
// from a snapshot.
func (r *Runner) SkipInit() { r.initialized = true }

// Tick runs Input, Execute and Clean in order.
func (r *Runner) Tick(dt time.Duration) {
	r.Init()
	r.TickPhase(PhaseInput, dt)
	r.TickPhase(PhaseExecute, dt)
	r.TickPhase(PhaseClean, dt)
}

// TickPhase runs only the systems of one phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	for _, s := range r.phases[phase] {
		r.run(s, dt)
	}
}

// Trigger runs a reactive system by name.
func (r *Runner) Trigger(name string) bool {
	s, ok := r.byName[name]
	if !ok || s.Phase() != PhaseReactive {
		r.log.Warn("trigger of unknown reactive system", zap.String("system", name))
		return false
	}
	r.run(s, 0)
	return true
}

// run isolates a failing system so the rest of the phase still executes.
func (r *Runner) run(s System, dt time.Duration) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("system panicked",
				zap.String("system", s.Name()),
				zap.String("phase", s.Phase().String()),
				zap.Any("panic", rec),
			)
		}
	}()
	s.Update(dt)
}
