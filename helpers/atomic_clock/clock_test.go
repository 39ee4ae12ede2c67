package atomic_clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock(t *testing.T) {
	t.Parallel()
	var c Clock
	assert.True(t, c.IsZero())
	assert.True(t, c.Time().IsZero())
	assert.Equal(t, time.Duration(0), Since(&c))

	tim := time.Now().Add(-time.Minute)
	c.SetTime(tim)
	assert.False(t, c.IsZero())
	assert.True(t, tim.Equal(c.Time()))
	assert.InDelta(t, float64(time.Minute), float64(Since(&c)), float64(time.Second))

	c.SetNow()
	assert.True(t, Since(&c) < time.Second)
}
