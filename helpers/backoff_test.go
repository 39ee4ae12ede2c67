package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	t.Parallel()
	const ms = time.Millisecond
	b := Backoff{Min: 100 * ms, Max: 500 * ms, K: 2}
	expect := []time.Duration{100 * ms, 200 * ms, 400 * ms, 500 * ms, 500 * ms}
	for i, e := range expect {
		assert.Equal(t, e, b.Failure(), "attempt=%d", i)
	}
	b.Reset()
	assert.Equal(t, 100*ms, b.Failure())
}

func TestBackoffResolution(t *testing.T) {
	t.Parallel()
	b := Backoff{Min: 1500 * time.Microsecond, Max: time.Second, K: 1.5, Res: time.Millisecond}
	assert.Equal(t, 1*time.Millisecond, b.Failure())
	// next grows from rounded delay
	assert.Equal(t, 1*time.Millisecond, b.Failure())

	zero := Backoff{Min: 10 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, zero.Failure())
	assert.Equal(t, 20*time.Millisecond, zero.Failure())
}
