package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fake struct {
	name  string
	phase Phase
	after []string
	log   *[]string
	panic bool
}

func (f *fake) Name() string    { return f.name }
func (f *fake) Phase() Phase    { return f.phase }
func (f *fake) After() []string { return f.after }
func (f *fake) Update(time.Duration) {
	*f.log = append(*f.log, f.name)
	if f.panic {
		panic("boom")
	}
}

func TestRegisterInsertsAfterLastPredecessor(t *testing.T) {
	var log []string
	r := NewRunner(zap.NewNop())
	require.NoError(t, r.Register(&fake{name: "a", phase: PhaseExecute, log: &log}))
	require.NoError(t, r.Register(&fake{name: "b", phase: PhaseExecute, log: &log}))
	require.NoError(t, r.Register(&fake{name: "c", phase: PhaseExecute, log: &log}))
	require.NoError(t, r.Register(&fake{name: "d", phase: PhaseExecute, after: []string{"a"}, log: &log}))
	require.NoError(t, r.Register(&fake{name: "e", phase: PhaseExecute, after: []string{"d", "b"}, log: &log}))

	assert.Equal(t, []string{"a", "d", "b", "e", "c"}, r.Order(PhaseExecute))
}

func TestRegisterMissingPredecessor(t *testing.T) {
	var log []string
	r := NewRunner(zap.NewNop())
	require.NoError(t, r.Register(&fake{name: "input", phase: PhaseInput, log: &log}))

	err := r.Register(&fake{name: "x", phase: PhaseExecute, after: []string{"input"}, log: &log})
	assert.ErrorIs(t, err, ErrMissingPredecessor)

	err = r.Register(&fake{name: "input", phase: PhaseInput, log: &log})
	assert.ErrorIs(t, err, ErrDuplicateSystem)

	assert.Panics(t, func() {
		r.MustRegister(&fake{name: "y", phase: PhaseClean, after: []string{"nope"}, log: &log})
	})
}

func TestTickRunsPhasesInOrder(t *testing.T) {
	var log []string
	r := NewRunner(zap.NewNop())
	r.MustRegister(
		&fake{name: "clean", phase: PhaseClean, log: &log},
		&fake{name: "exec", phase: PhaseExecute, log: &log},
		&fake{name: "init", phase: PhaseInitialize, log: &log},
		&fake{name: "input", phase: PhaseInput, log: &log},
		&fake{name: "react", phase: PhaseReactive, log: &log},
	)

	r.Tick(time.Millisecond)
	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"init", "input", "exec", "clean", "input", "exec", "clean"}, log)

	log = log[:0]
	assert.True(t, r.Trigger("react"))
	assert.False(t, r.Trigger("exec"))
	assert.Equal(t, []string{"react"}, log)
}

func TestPanickingSystemDoesNotAbortPhase(t *testing.T) {
	var log []string
	r := NewRunner(zap.NewNop())
	r.MustRegister(
		&fake{name: "bad", phase: PhaseExecute, log: &log, panic: true},
		&fake{name: "good", phase: PhaseExecute, log: &log},
	)
	r.SkipInit()
	r.Tick(0)
	assert.Equal(t, []string{"bad", "good"}, log)
}
