// Package heartbeat announces a display session to the backend and tracks
// the backend's single-active-viewer verdict for it.
package heartbeat

import (
	"context"
	"errors"
	"log"
	"net/url"
	"sync"
	"time"

	"signage-player/internal/clock"
	"signage-player/internal/fetch"
)

// Admission is the backend's verdict on whether this viewer may show the
// screen.
type Admission int

const (
	Unknown Admission = iota
	Allowed
	Blocked
)

func (a Admission) String() string {
	switch a {
	case Allowed:
		return "allowed"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// ErrNoVerdict is reported when a heartbeat answer lacks a boolean allowed
// field.
var ErrNoVerdict = errors.New("heartbeat: response has no verdict")

// Result is the outcome of one heartbeat. Admission is Unknown when Err is
// set; callers must not change their admission state in that case.
type Result struct {
	Admission Admission
	Err       error
	At        time.Time
}

// Options tunes an Agent.
type Options struct {
	// Interval between heartbeats. Default: 45s.
	Interval time.Duration
	// BlockedInterval replaces Interval while the last verdict was blocked.
	// Zero keeps Interval.
	BlockedInterval time.Duration
	// Timeout bounds one heartbeat request. Default: 15s.
	Timeout time.Duration
	Clock   clock.Clock
	// OnResult receives every heartbeat outcome. It runs on the request's
	// goroutine and must not block.
	OnResult func(Result)
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = 45 * time.Second
	}
	if o.BlockedInterval <= 0 {
		o.BlockedInterval = o.Interval
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
}

// Path returns the heartbeat endpoint for a token.
func Path(token string) string {
	return "/public/screen/" + url.PathEscape(token) + "/heartbeat"
}

type request struct {
	SessionID string `json:"sessionId"`
}

type response struct {
	Allowed *bool `json:"allowed"`
}

// Agent sends a heartbeat immediately on Start and then on a fixed interval
// until Stop. It keeps no backoff of its own: a missed beat is retried on
// the next tick.
type Agent struct {
	client    *fetch.Client
	token     string
	sessionID string
	opts      Options
	gate      fetch.Gate

	mu        sync.Mutex
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
	timer     clock.Timer
	gen       uint64
	admission Admission
	sent      int
}

func NewAgent(client *fetch.Client, token, sessionID string, opts Options) *Agent {
	opts.defaults()
	return &Agent{
		client:    client,
		token:     token,
		sessionID: sessionID,
		opts:      opts,
	}
}

// SessionID returns the identifier announced to the backend.
func (a *Agent) SessionID() string { return a.sessionID }

// Admission returns the last verdict.
func (a *Agent) Admission() Admission {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.admission
}

// Sent counts heartbeats that reached the transport.
func (a *Agent) Sent() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sent
}

// Start moves the agent from idle to running. Calling Start twice is a no-op.
func (a *Agent) Start(ctx context.Context) {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return
	}
	a.running = true
	a.ctx, a.cancel = context.WithCancel(ctx)
	gen := a.gen
	a.mu.Unlock()
	a.tick(gen)
}

// Stop cancels the timer and any request in flight. No heartbeat is sent
// after Stop returns.
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return
	}
	a.running = false
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.cancel()
}

// scheduleLocked arms the next tick. Bumping gen retires any tick that
// already fired and is waiting on mu.
func (a *Agent) scheduleLocked() {
	a.gen++
	gen := a.gen
	a.timer = a.opts.Clock.AfterFunc(a.intervalLocked(), func() { a.tick(gen) })
}

func (a *Agent) tick(gen uint64) {
	a.mu.Lock()
	if !a.running || gen != a.gen {
		a.mu.Unlock()
		return
	}
	a.scheduleLocked()
	ctx := a.ctx
	a.mu.Unlock()

	if !a.gate.TryAcquire() {
		log.Printf("heartbeat skipped token=%s reason=in_flight", a.token)
		return
	}
	a.mu.Lock()
	a.sent++
	a.mu.Unlock()
	go a.beat(ctx)
}

func (a *Agent) intervalLocked() time.Duration {
	if a.admission == Blocked {
		return a.opts.BlockedInterval
	}
	return a.opts.Interval
}

func (a *Agent) beat(ctx context.Context) {
	defer a.gate.Release()
	reqCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	var resp response
	err := a.client.PostJSON(reqCtx, Path(a.token), request{SessionID: a.sessionID}, &resp)
	if err == nil && resp.Allowed == nil {
		err = ErrNoVerdict
	}
	if ctx.Err() != nil {
		return
	}
	result := Result{At: a.opts.Clock.Now(), Err: err}
	if err != nil {
		log.Printf("heartbeat failed token=%s error=%v", a.token, err)
	} else {
		result.Admission = Blocked
		if *resp.Allowed {
			result.Admission = Allowed
		}
		a.mu.Lock()
		changed := a.admission != result.Admission
		a.admission = result.Admission
		if changed && a.running && a.opts.BlockedInterval != a.opts.Interval && a.timer != nil {
			a.timer.Stop()
			a.scheduleLocked()
		}
		a.mu.Unlock()
		if changed {
			log.Printf("heartbeat verdict token=%s admission=%s", a.token, result.Admission)
		}
	}
	if a.opts.OnResult != nil {
		a.opts.OnResult(result)
	}
}
