package transition

import (
	"sync"
	"time"

	"signage-player/internal/clock"
	"signage-player/internal/snapshot"
)

// State of a Player.
type State int

const (
	Ready State = iota
	Running
	Finished
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Stopped:
		return "stopped"
	default:
		return "ready"
	}
}

// Player animates one hand-over from Current to Next. It is built for a
// single transition and discarded afterwards; it never swaps the snapshots
// itself, it only reports when the hand-over is over.
type Player struct {
	Current  *snapshot.Snapshot
	Next     *snapshot.Snapshot
	Effect   Effect
	Duration time.Duration

	mu      sync.Mutex
	state   State
	started time.Time
	timer   clock.Timer
}

// New builds a player. An unknown effect name plays as fade; a non-positive
// duration completes on the next timer tick.
func New(current, next *snapshot.Snapshot, effect string, duration time.Duration) *Player {
	if duration < 0 {
		duration = 0
	}
	return &Player{
		Current:  current,
		Next:     next,
		Effect:   Lookup(effect),
		Duration: duration,
	}
}

// Run starts the transition and calls done once when it finishes. done runs
// on the clock's timer goroutine. Run on a player that is not Ready does
// nothing.
func (p *Player) Run(c clock.Clock, done func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Ready {
		return
	}
	p.state = Running
	p.started = c.Now()
	p.timer = c.AfterFunc(p.Duration, func() {
		p.mu.Lock()
		if p.state != Running {
			p.mu.Unlock()
			return
		}
		p.state = Finished
		p.timer = nil
		p.mu.Unlock()
		if done != nil {
			done()
		}
	})
}

// Stop abandons a running transition; done is not called.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.state == Ready || p.state == Running {
		p.state = Stopped
	}
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Progress is the completed fraction at now, in [0, 1].
func (p *Player) Progress(now time.Time) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case Finished:
		return 1
	case Ready:
		return 0
	}
	if p.Duration <= 0 {
		return 1
	}
	elapsed := now.Sub(p.started)
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= p.Duration {
		return 1
	}
	return float64(elapsed) / float64(p.Duration)
}
