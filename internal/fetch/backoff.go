package fetch

import (
	"sync/atomic"
	"time"
)

// Backoff is the retry state of one polling loop. The delay after the n-th
// consecutive failure is min(Base * 2^(n-1), Cap); a success resets it.
type Backoff struct {
	Base     time.Duration
	Cap      time.Duration
	failures int
}

func NewBackoff(base, maxWait time.Duration) *Backoff {
	if base <= 0 {
		base = 2 * time.Second
	}
	if maxWait < base {
		maxWait = base
	}
	return &Backoff{Base: base, Cap: maxWait}
}

// Failure records a failed attempt and returns how long to wait before the
// next one.
func (b *Backoff) Failure() time.Duration {
	wait := b.delay(b.failures)
	b.failures++
	return wait
}

// Success resets the consecutive failure counter.
func (b *Backoff) Success() {
	b.failures = 0
}

// Failures returns the consecutive failure count.
func (b *Backoff) Failures() int {
	return b.failures
}

// Next reports the delay the next Failure call would return.
func (b *Backoff) Next() time.Duration {
	return b.delay(b.failures)
}

func (b *Backoff) delay(failures int) time.Duration {
	wait := b.Base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= b.Cap {
			return b.Cap
		}
	}
	if wait > b.Cap {
		return b.Cap
	}
	return wait
}

// Gate admits at most one request at a time for a logical loop. A tick
// that finds the gate closed is dropped, never queued.
type Gate struct {
	busy    atomic.Bool
	dropped atomic.Int64
}

// TryAcquire claims the gate. It returns false when a request is already
// outstanding.
func (g *Gate) TryAcquire() bool {
	if g.busy.CompareAndSwap(false, true) {
		return true
	}
	g.dropped.Add(1)
	return false
}

func (g *Gate) Release() {
	g.busy.Store(false)
}

// Busy reports whether a request is outstanding.
func (g *Gate) Busy() bool { return g.busy.Load() }

// Dropped counts ticks that were discarded because the gate was closed.
func (g *Gate) Dropped() int64 { return g.dropped.Load() }
