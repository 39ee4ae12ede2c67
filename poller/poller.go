// Package poller turns query/response cycles into a lazy, interval driven sequence of records.
//
// Each element is one of:
// - record
// - skip, console ended stream at frame boundary, sequence continues
// - terminal error, sequence ends, poller never restarts
package poller

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/ws1001/helpers"
	"github.com/temoto/ws1001/log2"
	"github.com/temoto/ws1001/protocol"
	"github.com/temoto/ws1001/session"
)

const DefaultInterval = 10 * time.Second

var ErrClosed = fmt.Errorf("poller closed")

// Source runs one query/response cycle. io.EOF means no record this time.
type Source interface {
	NextRecord(ctx context.Context) (*protocol.WeatherRecord, error)
}

var _ Source = &session.Session{}

type Poller struct {
	mu       sync.Mutex // one cycle at a time
	alive    *alive.Alive
	err      helpers.AtomicError
	log      *log2.Log
	src      Source
	interval time.Duration
	ticker   *time.Ticker
}

func New(src Source, interval time.Duration, log *log2.Log) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		alive:    alive.NewAlive(),
		log:      log,
		src:      src,
		interval: interval,
	}
}

// Open discovers console, connects and returns poller over the session.
func Open(ctx context.Context, interval time.Duration, opt session.Options) (*Poller, error) {
	s, err := session.Open(ctx, opt)
	if err != nil {
		return nil, errors.Annotate(err, "poller open")
	}
	return New(s, interval, opt.Log), nil
}

// Next waits for interval tick, first call does not wait, then runs one cycle.
// Returns (record, nil), (nil, nil) for skip, or (nil, err) for terminal error.
// After terminal error every call returns the same error.
func (p *Poller) Next(ctx context.Context) (*protocol.WeatherRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, done := p.err.Load(); done {
		return nil, err
	}

	if err := p.wait(ctx); err != nil {
		return nil, p.finish(err)
	}
	r, err := p.src.NextRecord(ctx)
	switch {
	case err == nil:
		return r, nil
	case errors.Cause(err) == io.EOF:
		p.log.Debugf("poller skip: end of stream")
		return nil, nil
	}
	return nil, p.finish(err)
}

func (p *Poller) wait(ctx context.Context) error {
	if p.ticker == nil {
		p.ticker = time.NewTicker(p.interval)
		return ctx.Err()
	}
	select {
	case <-p.ticker.C:
		return nil
	case <-ctx.Done():
		return errors.Annotate(ctx.Err(), "poller wait")
	case <-p.alive.StopChan():
		return ErrClosed
	}
}

func (p *Poller) finish(e error) error {
	if err, found := p.err.StoreOnce(e); found {
		return err
	}
	if p.ticker != nil {
		p.ticker.Stop()
	}
	if errors.Cause(e) != ErrClosed {
		p.log.Errorf("poller stop: %v", e)
	}
	return e
}

// Err returns terminal error, nil while sequence is running.
func (p *Poller) Err() error {
	err, _ := p.err.Load()
	return err
}

func (p *Poller) Source() Source { return p.src }

// Close ends sequence, closes source if it is io.Closer and waits for Stream workers.
func (p *Poller) Close() error {
	p.alive.Stop()
	var err error
	if c, ok := p.src.(io.Closer); ok {
		err = c.Close()
	}
	p.alive.Wait()
	_, _ = p.err.StoreOnce(ErrClosed)
	return err
}

type Item struct {
	Record *protocol.WeatherRecord
	Err    error
}

func (i Item) Skip() bool { return i.Record == nil && i.Err == nil }

// Stream runs Next in background and delivers every element.
// Channel is closed after terminal item, ctx done or Close.
func (p *Poller) Stream(ctx context.Context) <-chan Item {
	ch := make(chan Item)
	if !p.alive.Add(1) {
		close(ch)
		return ch
	}
	go func() {
		defer p.alive.Done()
		defer close(ch)
		stopch := p.alive.StopChan()
		for {
			r, err := p.Next(ctx)
			select {
			case ch <- Item{Record: r, Err: err}:
			case <-ctx.Done():
				return
			case <-stopch:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}
