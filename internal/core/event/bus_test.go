package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventsDeliveredNextTick(t *testing.T) {
	b := NewBus()
	var got []WorkFinished
	Subscribe(b, func(ev WorkFinished) { got = append(got, ev) })

	Emit(b, WorkFinished{MonsterID: 3, WorkType: "chop"})
	assert.Equal(t, 1, b.Pending())
	assert.Empty(t, got)

	assert.Equal(t, 1, b.Deliver())
	assert.Equal(t, []WorkFinished{{MonsterID: 3, WorkType: "chop"}}, got)
	assert.Zero(t, b.Pending())

	assert.Zero(t, b.Deliver())
	assert.Len(t, got, 1)
}

func TestHandlersAreTyped(t *testing.T) {
	b := NewBus()
	var built, nav int
	Subscribe(b, func(BuildingConstructed) { built++ })
	Subscribe(b, func(NavigationEnded) { nav++ })

	Emit(b, BuildingConstructed{BuildingID: 1})
	Emit(b, BuildingConstructed{BuildingID: 2})
	Emit(b, NavigationEnded{EntityID: 1, Arrived: true})
	Emit(b, WorkCanceled{})
	b.Deliver()

	assert.Equal(t, 2, built)
	assert.Equal(t, 1, nav)

	Emit[WorkCanceled](nil, WorkCanceled{})
}

func TestDeliveryFollowsEmissionOrder(t *testing.T) {
	b := NewBus()
	var order []string
	Subscribe(b, func(ev NavigationEnded) { order = append(order, "nav") })
	Subscribe(b, func(ev WorkFinished) { order = append(order, "work:"+ev.WorkType) })

	Emit(b, WorkFinished{WorkType: "a"})
	Emit(b, NavigationEnded{})
	Emit(b, WorkFinished{WorkType: "b"})
	b.Deliver()

	assert.Equal(t, []string{"work:a", "nav", "work:b"}, order)
}

func TestEventsEmittedByHandlersWaitForNextDelivery(t *testing.T) {
	b := NewBus()
	var constructed int
	Subscribe(b, func(ev WorkFinished) { Emit(b, BuildingConstructed{BuildingID: ev.BuildingID}) })
	Subscribe(b, func(BuildingConstructed) { constructed++ })

	Emit(b, WorkFinished{BuildingID: 4})
	b.Deliver()
	assert.Zero(t, constructed)
	assert.Equal(t, 1, b.Pending())

	b.Deliver()
	assert.Equal(t, 1, constructed)
}
