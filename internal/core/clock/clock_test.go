package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVirtualAdvance(t *testing.T) {
	var c Virtual
	c.Advance(1500 * time.Millisecond)
	c.Advance(-time.Second)
	assert.Equal(t, int64(1500), c.Now())
	assert.Zero(t, c.Delta())

	c.Set(42)
	assert.Equal(t, int64(42), c.Now())
}

func TestVirtualKeepsSubMillisecondSteps(t *testing.T) {
	var c Virtual
	for i := 0; i < 1000; i++ {
		c.Advance(1900 * time.Microsecond)
	}
	assert.Equal(t, int64(1900), c.Now())
	assert.Equal(t, 1900*time.Millisecond, c.Elapsed())

	c.Set(10)
	c.Advance(600 * time.Microsecond)
	c.Advance(600 * time.Microsecond)
	assert.Equal(t, int64(11), c.Now())
}

func TestStopwatchLap(t *testing.T) {
	base := time.Unix(100, 0)
	cur := base
	s := NewStopwatch(func() time.Time { return cur })

	assert.Zero(t, s.Lap())
	cur = base.Add(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, s.Lap())
	cur = cur.Add(time.Second)
	assert.Equal(t, time.Second, s.Lap())
}
