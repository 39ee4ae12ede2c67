package poller_test

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/ws1001/log2"
	"github.com/temoto/ws1001/poller"
	"github.com/temoto/ws1001/protocol"
)

type scriptSource struct {
	calls  int32
	closed int32
	fun    func(call int) (*protocol.WeatherRecord, error)
}

func (s *scriptSource) NextRecord(ctx context.Context) (*protocol.WeatherRecord, error) {
	n := atomic.AddInt32(&s.calls, 1)
	return s.fun(int(n))
}

func (s *scriptSource) Close() error {
	atomic.AddInt32(&s.closed, 1)
	return nil
}

func (s *scriptSource) Calls() int { return int(atomic.LoadInt32(&s.calls)) }

func record(n int) *protocol.WeatherRecord {
	return &protocol.WeatherRecord{Outside: protocol.TemperatureHumidity{Temperature: float32(n)}}
}

var errBroken = fmt.Errorf("broken pipe")

// records on calls 1 and 2, error on 3rd
func thirdFails(call int) (*protocol.WeatherRecord, error) {
	if call >= 3 {
		return nil, errors.Annotate(errBroken, "cycle")
	}
	return record(call), nil
}

func TestAlwaysEOFOnlySkips(t *testing.T) {
	t.Parallel()
	src := &scriptSource{fun: func(int) (*protocol.WeatherRecord, error) { return nil, io.EOF }}
	p := poller.New(src, time.Millisecond, log2.NewTest(t, log2.LDebug))
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		r, err := p.Next(ctx)
		require.NoError(t, err)
		assert.Nil(t, r)
	}
	assert.NoError(t, p.Err())
	assert.Equal(t, 20, src.Calls())
}

func TestThirdCallFails(t *testing.T) {
	t.Parallel()
	src := &scriptSource{fun: thirdFails}
	p := poller.New(src, time.Millisecond, log2.NewTest(t, log2.LDebug))
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		r, err := p.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, record(i), r)
	}
	r, err := p.Next(ctx)
	assert.Nil(t, r)
	assert.Equal(t, errBroken, errors.Cause(err))

	// non-restartable
	r, err2 := p.Next(ctx)
	assert.Nil(t, r)
	assert.Equal(t, err, err2)
	assert.Equal(t, 3, src.Calls())
}

func TestFirstCallImmediate(t *testing.T) {
	t.Parallel()
	src := &scriptSource{fun: thirdFails}
	p := poller.New(src, time.Hour, nil)
	tbegin := time.Now()
	r, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, record(1), r)
	assert.True(t, time.Since(tbegin) < time.Second)
}

func TestIntervalPacing(t *testing.T) {
	t.Parallel()
	src := &scriptSource{fun: func(n int) (*protocol.WeatherRecord, error) { return record(n), nil }}
	const interval = 30 * time.Millisecond
	p := poller.New(src, interval, nil)
	ctx := context.Background()
	tbegin := time.Now()
	for i := 0; i < 4; i++ {
		_, err := p.Next(ctx)
		require.NoError(t, err)
	}
	assert.True(t, time.Since(tbegin) >= 3*interval-5*time.Millisecond)
}

func TestCancelWhileWaiting(t *testing.T) {
	t.Parallel()
	src := &scriptSource{fun: thirdFails}
	p := poller.New(src, time.Hour, nil)
	_, err := p.Next(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Next(ctx)
	assert.Equal(t, context.DeadlineExceeded, errors.Cause(err))
	assert.Equal(t, 1, src.Calls())
	_, err = p.Next(context.Background())
	assert.Equal(t, context.DeadlineExceeded, errors.Cause(err))
}

func TestStream(t *testing.T) {
	t.Parallel()
	calls := 0
	src := &scriptSource{fun: func(n int) (*protocol.WeatherRecord, error) {
		calls = n
		switch n {
		case 2:
			return nil, io.EOF
		case 4:
			return nil, errBroken
		}
		return record(n), nil
	}}
	p := poller.New(src, time.Millisecond, log2.NewTest(t, log2.LDebug))
	items := make([]poller.Item, 0, 4)
	for item := range p.Stream(context.Background()) {
		items = append(items, item)
	}
	require.Len(t, items, 4)
	assert.Equal(t, record(1), items[0].Record)
	assert.True(t, items[1].Skip())
	assert.Equal(t, record(3), items[2].Record)
	assert.False(t, items[2].Skip())
	assert.Equal(t, errBroken, errors.Cause(items[3].Err))
	assert.Equal(t, 4, calls)
}

func TestClose(t *testing.T) {
	t.Parallel()
	src := &scriptSource{fun: thirdFails}
	p := poller.New(src, time.Hour, nil)
	ch := p.Stream(context.Background())
	first := <-ch
	assert.Equal(t, record(1), first.Record)

	// stream worker now waits for next tick
	require.NoError(t, p.Close())
	for range ch {
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.closed))
	_, err := p.Next(context.Background())
	assert.Equal(t, poller.ErrClosed, errors.Cause(err))

	// stream after close is empty
	_, ok := <-p.Stream(context.Background())
	assert.False(t, ok)
}
