package helpers

import "time"

// Backoff yields exponentially growing retry delays limited by [Min, Max].
// Not safe for concurrent use, keep one per retry loop.
//
//   for {
//     err := op()
//     if err == nil { backoff.Reset(); break }
//     time.Sleep(backoff.Failure())
//   }
type Backoff struct {
	Min time.Duration
	Max time.Duration
	K   float32       // growth factor, default=2
	Res time.Duration // delay resolution for nice logs, default=1ms

	next time.Duration
}

// Failure returns delay before next attempt and grows the following one by K.
func (b *Backoff) Failure() time.Duration {
	if b.next == 0 {
		b.next = b.Min
	}
	delay := b.limit(b.next)
	k := b.K
	if k <= 1 {
		k = 2
	}
	b.next = b.limit(time.Duration(float32(delay) * k))
	return delay
}

func (b *Backoff) Reset() { b.next = 0 }

func (b *Backoff) limit(d time.Duration) time.Duration {
	if d < b.Min {
		d = b.Min
	}
	if b.Max != 0 && d > b.Max {
		d = b.Max
	}
	res := b.Res
	if res == 0 {
		res = time.Millisecond
	}
	return d / res * res
}
