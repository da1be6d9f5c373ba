// Package player runs display sessions: one event-loop actor per display
// token owning the snapshot, the rotation cursor, the retry state and the
// admission verdict.
package player

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"signage-player/internal/clock"
	"signage-player/internal/fetch"
	"signage-player/internal/heartbeat"
	"signage-player/internal/render"
	"signage-player/internal/rotation"
	"signage-player/internal/snapshot"
	"signage-player/internal/transition"
)

const (
	storeTimeout = 5 * time.Second
	eventBuffer  = 64
	persistQueue = 32
)

// timerSlot holds one logical timer. Every arm or disarm bumps seq so a
// callback that raced a Stop is ignored when it reaches the loop.
type timerSlot struct {
	timer clock.Timer
	seq   uint64
}

func (t *timerSlot) armed() bool { return t.timer != nil }

type rotationKind int

const (
	rotationRenew rotationKind = iota
	rotationAdvance
	rotationFallback
)

// Session is the actor for one display token. Everything below the mutable
// state marker is touched only by the goroutine running Run.
type Session struct {
	opts     Options
	token    string
	clock    clock.Clock
	loader   *snapshot.Loader
	settings rotation.TransitionSettings

	events  chan func()
	done    chan struct{}
	started atomic.Bool

	view   atomic.Pointer[View]
	status atomic.Pointer[Status]

	contentGate  fetch.Gate
	rotationGate fetch.Gate
	agent        *heartbeat.Agent
	sessionID    string
	persist      chan func(context.Context)

	// mutable state
	ctx        context.Context
	current    *snapshot.Snapshot
	cursor     rotation.Cursor
	carousel   render.CarouselState
	backoff    *fetch.Backoff
	admission  heartbeat.Admission
	notFound   bool
	stale      bool
	lastErr    error
	lastLoad   time.Time
	remount    int
	player     *transition.Player
	pending    *TransitionView
	cache      map[int]*snapshot.Snapshot
	cacheSig   string
	preloading bool
	version    uint64

	poll     timerSlot
	slide    timerSlot
	carTimer timerSlot
	reload   timerSlot

	loads       int
	transitions int
	renewals    int
}

// New builds a session. It does nothing until Run.
func New(opts Options) *Session {
	opts.defaults()
	s := &Session{
		opts:     opts,
		token:    opts.Token,
		clock:    opts.Clock,
		loader:   snapshot.NewLoader(opts.Client),
		settings: opts.transitionSettings(),
		events:   make(chan func(), eventBuffer),
		done:     make(chan struct{}),
		persist:  make(chan func(context.Context), persistQueue),
		backoff:  fetch.NewBackoff(opts.BackoffBase, opts.BackoffCap),
		cache:    make(map[int]*snapshot.Snapshot),
	}
	s.view.Store(&View{Token: s.token, Screen: ScreenLoading, Language: "en"})
	s.status.Store(&Status{Token: s.token, Screen: ScreenLoading.String(), Profile: string(opts.Profile)})
	return s
}

func (s *Session) Token() string { return s.token }

// View returns the last published view.
func (s *Session) View() View {
	return *s.view.Load()
}

// Status returns the current operator summary.
func (s *Session) Status() Status {
	st := *s.status.Load()
	st.DroppedTicks = s.contentGate.Dropped() + s.rotationGate.Dropped()
	return st
}

// Done is closed once Run has torn the session down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Refresh asks for an immediate content load. It is dropped when a load is
// already in flight.
func (s *Session) Refresh() {
	s.post(s.pollTick)
}

func (s *Session) post(fn func()) {
	select {
	case s.events <- fn:
	case <-s.done:
	}
}

// Run owns the session until ctx is cancelled. All timers are stopped and no
// request is started after Run returns.
func (s *Session) Run(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.ctx = ctx

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		s.persistLoop(ctx)
	}()

	s.restore(ctx)
	s.sessionID = heartbeat.ResolveSessionID(ctx, s.opts.Store, s.token)
	s.agent = heartbeat.NewAgent(s.opts.Client, s.token, s.sessionID, heartbeat.Options{
		Interval:        s.opts.HeartbeatInterval,
		BlockedInterval: s.opts.HeartbeatBlockedInterval,
		Timeout:         s.opts.RequestTimeout,
		Clock:           s.clock,
		OnResult: func(r heartbeat.Result) {
			s.post(func() { s.onHeartbeat(r) })
		},
	})
	log.Printf("display session started token=%s session_id=%s profile=%s", s.token, s.sessionID, s.opts.Profile)

	if every := s.opts.Profile.ReloadEvery(); every > 0 {
		s.arm(&s.reload, every, s.reloadTick)
	}
	s.publish()
	s.agent.Start(ctx)
	s.pollTick()
	s.storeStatus()

	for {
		select {
		case <-ctx.Done():
			s.teardown()
			cancel()
			workers.Wait()
			close(s.done)
			return
		case fn := <-s.events:
			fn()
			s.storeStatus()
		}
	}
}

func (s *Session) teardown() {
	s.disarm(&s.poll)
	s.disarm(&s.slide)
	s.disarm(&s.carTimer)
	s.disarm(&s.reload)
	s.stopTransition()
	if s.agent != nil {
		s.agent.Stop()
	}
	log.Printf("display session stopped token=%s", s.token)
}

func (s *Session) arm(slot *timerSlot, d time.Duration, fn func()) {
	s.disarm(slot)
	seq := slot.seq
	slot.timer = s.clock.AfterFunc(d, func() {
		s.post(func() {
			if slot.seq != seq || slot.timer == nil {
				return
			}
			slot.timer = nil
			fn()
		})
	})
}

func (s *Session) disarm(slot *timerSlot) {
	if slot.timer != nil {
		slot.timer.Stop()
		slot.timer = nil
	}
	slot.seq++
}

// restore shows the last good snapshot persisted for the token while the
// first load is outstanding.
func (s *Session) restore(ctx context.Context) {
	if s.opts.Store == nil {
		return
	}
	loadCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	snap, err := s.opts.Store.LatestSnapshot(loadCtx, s.token)
	if err != nil {
		log.Printf("display cache restore failed token=%s error=%v", s.token, err)
		return
	}
	if !snap.Valid() {
		return
	}
	s.current = snap
	if n := snap.SlotCount(); n > 0 && snap.RotationIndex >= 0 {
		s.cursor.Commit(snapshot.Clamp(snap.RotationIndex, n))
	}
	s.stale = true
	log.Printf("display restored from cache token=%s rotation_index=%d", s.token, snap.RotationIndex)
}

// Content loop.

func (s *Session) indexHint() int {
	if pin := s.opts.pin(); pin >= 0 {
		if n := s.current.SlotCount(); n > 0 {
			return snapshot.Clamp(pin, n)
		}
		return pin
	}
	return snapshot.IndexHint(s.cursor.Index, s.current)
}

func (s *Session) pollTick() {
	if !s.poll.armed() {
		s.arm(&s.poll, s.opts.PollInterval, s.pollTick)
	}
	if !s.contentGate.TryAcquire() {
		log.Printf("display refresh skipped token=%s reason=in_flight", s.token)
		return
	}
	index := s.indexHint()
	s.load(index, func(snap *snapshot.Snapshot, err error) {
		s.contentGate.Release()
		s.onPolled(index, snap, err)
	})
}

func (s *Session) load(index int, done func(*snapshot.Snapshot, error)) {
	ctx := s.ctx
	go func() {
		reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
		snap, err := s.loader.Load(reqCtx, s.token, index)
		cancel()
		if ctx.Err() != nil {
			return
		}
		s.post(func() { done(snap, err) })
	}()
}

func (s *Session) onPolled(requested int, snap *snapshot.Snapshot, err error) {
	switch {
	case errors.Is(err, snapshot.ErrScreenNotFound):
		s.backoff.Success()
		s.arm(&s.poll, s.opts.PollInterval, s.pollTick)
		s.screenNotFound()
		return
	case err != nil:
		wait := s.backoff.Failure()
		s.arm(&s.poll, wait, s.pollTick)
		s.lastErr = err
		s.stale = s.current != nil
		log.Printf("display refresh failed token=%s failures=%d retry_in=%s error=%v", s.token, s.backoff.Failures(), wait, err)
		s.publish()
		return
	}

	s.backoff.Success()
	s.arm(&s.poll, s.opts.PollInterval, s.pollTick)
	s.lastErr = nil
	s.lastLoad = s.clock.Now()
	s.loads++

	if requested >= 0 && s.opts.pin() < 0 && s.current.SlotCount() > 0 && requested != s.cursor.Index {
		// The cursor moved while this refresh was in flight.
		log.Printf("display refresh discarded token=%s requested=%d cursor=%d", s.token, requested, s.cursor.Index)
		return
	}

	recovered := s.notFound
	s.notFound = false
	s.stale = false
	s.current = snap
	s.carousel.Reset()
	n := snap.SlotCount()
	moved := s.cursor.Fit(n)
	switch {
	case n > 0 && s.opts.pin() >= 0:
		s.cursor.Commit(snapshot.Clamp(s.opts.pin(), n))
	case requested < 0 && n > 0:
		s.cursor.Commit(0)
	}
	if n > 0 {
		s.cache[s.cursor.Index] = snap
	}
	s.save(s.cursor.Index, snap)
	if recovered {
		s.record("recovered", map[string]any{"slots": n})
		log.Printf("display recovered token=%s", s.token)
	}
	log.Printf("display loaded token=%s rotation_index=%d slots=%d mode=%s", s.token, requested, n, render.Select(snap))

	switch {
	case n == 0 || s.opts.pin() >= 0:
		s.disarm(&s.slide)
	case s.player != nil || s.rotationGate.Busy():
		// The pending hand-over or look-ahead re-arms the slide timer.
	case moved || !s.slide.armed():
		s.armSlide()
	}
	s.armCarousel()
	s.maybePreload(requested)
	s.publish()
}

func (s *Session) screenNotFound() {
	wasNotFound := s.notFound
	s.notFound = true
	s.stale = false
	s.lastErr = snapshot.ErrScreenNotFound
	s.current = nil
	s.cursor.Commit(0)
	s.carousel.Reset()
	s.stopTransition()
	s.disarm(&s.slide)
	s.disarm(&s.carTimer)
	s.cache = make(map[int]*snapshot.Snapshot)
	s.cacheSig = ""
	if !wasNotFound {
		log.Printf("display screen not found token=%s", s.token)
		s.record("not_found", nil)
		s.deleteSaved()
	}
	s.publish()
}

// Rotation.

func (s *Session) armSlide() {
	if s.admission == heartbeat.Blocked || s.notFound {
		s.disarm(&s.slide)
		return
	}
	plan := rotation.PlanFor(s.current, s.cursor.Index, s.opts.pin())
	if !plan.Armed() {
		s.disarm(&s.slide)
		return
	}
	s.arm(&s.slide, plan.Delay, func() { s.slideDue(plan) })
}

func (s *Session) slideDue(plan rotation.Plan) {
	if s.admission == heartbeat.Blocked || s.player != nil {
		return
	}
	if plan.Index != s.cursor.Index || s.current.SlotCount() == 0 {
		s.armSlide()
		return
	}
	if !s.rotationGate.TryAcquire() {
		log.Printf("display rotation skipped token=%s reason=in_flight", s.token)
		s.armSlide()
		return
	}
	kind := rotationAdvance
	if plan.Kind == rotation.Renew {
		kind = rotationRenew
	}
	target := plan.Target
	s.load(target, func(snap *snapshot.Snapshot, err error) {
		s.rotationGate.Release()
		s.onRotationLoaded(kind, target, snap, err)
	})
}

func (s *Session) onRotationLoaded(kind rotationKind, target int, snap *snapshot.Snapshot, err error) {
	if s.notFound || s.current == nil {
		return
	}
	if errors.Is(err, snapshot.ErrScreenNotFound) {
		s.screenNotFound()
		return
	}
	switch kind {
	case rotationRenew:
		if err != nil {
			log.Printf("display renew failed token=%s rotation_index=%d error=%v", s.token, target, err)
		} else if target == s.cursor.Index {
			s.current = snap
			s.remount++
			s.renewals++
			s.cache[target] = snap
			s.save(target, snap)
		}
		s.armSlide()
		s.publish()
	case rotationAdvance:
		if err != nil {
			if cached, ok := s.cache[target]; ok && s.opts.RotationCache {
				log.Printf("display look-ahead failed token=%s rotation_index=%d fallback=cache error=%v", s.token, target, err)
				s.beginTransition(target, cached)
				return
			}
			log.Printf("display look-ahead failed token=%s rotation_index=%d fallback=reload error=%v", s.token, target, err)
			s.armSlide()
			s.reloadCurrent()
			return
		}
		s.cache[target] = snap
		s.beginTransition(target, snap)
	case rotationFallback:
		if s.player != nil {
			return
		}
		if err == nil && target == s.cursor.Index {
			s.current = snap
			s.remount++
			s.publish()
		}
		if !s.slide.armed() {
			s.armSlide()
		}
	}
}

func (s *Session) reloadCurrent() {
	if !s.rotationGate.TryAcquire() {
		return
	}
	target := s.cursor.Index
	s.load(target, func(snap *snapshot.Snapshot, err error) {
		s.rotationGate.Release()
		s.onRotationLoaded(rotationFallback, target, snap, err)
	})
}

func (s *Session) beginTransition(target int, next *snapshot.Snapshot) {
	if s.admission == heartbeat.Blocked {
		return
	}
	slot, _ := next.Slot(target)
	var screen *snapshot.Screen
	if s.current != nil {
		screen = s.current.Screen
	}
	effect, duration := s.settings.Resolve(screen, slot)
	p := transition.New(s.current, next, effect, duration)
	s.player = p
	s.pending = &TransitionView{
		From:     s.cursor.Index,
		To:       target,
		Next:     next,
		NextMode: render.Select(next),
		Effect:   p.Effect.Name,
		Duration: duration,
	}
	p.Run(s.clock, func() {
		s.post(func() { s.commit(p) })
	})
	log.Printf("display transition started token=%s from=%d to=%d effect=%s duration=%s", s.token, s.cursor.Index, target, p.Effect.Name, duration)
	s.publish()
}

func (s *Session) commit(p *transition.Player) {
	if s.player != p || s.pending == nil {
		return
	}
	from, to := s.pending.From, s.pending.To
	s.current = p.Next
	s.cursor.Commit(to)
	s.player = nil
	s.pending = nil
	s.transitions++
	s.save(to, s.current)
	s.record("transition", map[string]any{"from": from, "to": to, "effect": p.Effect.Name})
	log.Printf("display transition committed token=%s rotation_index=%d", s.token, to)
	s.armSlide()
	s.armCarousel()
	s.publish()
}

func (s *Session) stopTransition() {
	if s.player != nil {
		s.player.Stop()
	}
	s.player = nil
	s.pending = nil
}

// Rotation cache.

func (s *Session) maybePreload(requested int) {
	n := s.current.SlotCount()
	if !s.opts.RotationCache || n < 2 || s.preloading {
		return
	}
	sig := signature(s.current)
	if sig == s.cacheSig {
		return
	}
	if !s.contentGate.TryAcquire() {
		return
	}
	s.cacheSig = sig
	s.cache = map[int]*snapshot.Snapshot{s.cursor.Index: s.current}
	s.preloading = true
	indexes := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != requested && i != s.cursor.Index {
			indexes = append(indexes, i)
		}
	}
	ctx := s.ctx
	go func() {
		for _, i := range indexes {
			reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
			snap, err := s.loader.Load(reqCtx, s.token, i)
			cancel()
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				log.Printf("display preload failed token=%s rotation_index=%d error=%v", s.token, i, err)
				continue
			}
			index := i
			s.post(func() {
				if s.cacheSig == sig {
					s.cache[index] = snap
				}
			})
		}
		s.post(func() {
			s.contentGate.Release()
			s.preloading = false
		})
	}()
}

func signature(snap *snapshot.Snapshot) string {
	ids := make([]string, 0, snap.SlotCount())
	for _, r := range snap.TemplateRotations {
		ids = append(ids, r.TemplateID)
	}
	return strings.Join(ids, ",")
}

// Legacy carousel.

func (s *Session) armCarousel() {
	if s.admission == heartbeat.Blocked || render.Select(s.current) != render.Carousel {
		s.disarm(&s.carTimer)
		return
	}
	s.arm(&s.carTimer, s.carousel.Delay(s.current.Menus), s.carouselTick)
}

func (s *Session) carouselTick() {
	if s.current == nil {
		return
	}
	s.carousel.Advance(s.current.Menus)
	s.armCarousel()
	s.publish()
}

// Admission.

// onHeartbeat applies a verdict. A failed beat changes nothing; the view
// stays on loading until the first verdict arrives.
func (s *Session) onHeartbeat(r heartbeat.Result) {
	if r.Err != nil {
		return
	}
	prev := s.admission
	s.admission = r.Admission
	if prev == s.admission {
		return
	}
	log.Printf("display admission changed token=%s from=%s to=%s", s.token, prev, s.admission)
	s.record("admission", map[string]any{"from": prev.String(), "to": s.admission.String()})
	switch s.admission {
	case heartbeat.Blocked:
		s.stopTransition()
		s.disarm(&s.slide)
		s.disarm(&s.carTimer)
	case heartbeat.Allowed:
		if prev == heartbeat.Blocked && s.opts.pin() < 0 && s.current.SlotCount() > 0 {
			s.armSlide()
		}
		s.armCarousel()
	}
	s.publish()
}

func (s *Session) reloadTick() {
	s.arm(&s.reload, s.opts.Profile.ReloadEvery(), s.reloadTick)
	log.Printf("display reload requested token=%s profile=%s", s.token, s.opts.Profile)
	if s.opts.OnReload != nil {
		s.opts.OnReload(s.token)
	}
}

// Publishing.

func (s *Session) screen() Screen {
	switch {
	case s.notFound:
		return ScreenNotFound
	case s.admission == heartbeat.Blocked:
		return ScreenBlocked
	case s.current == nil:
		return ScreenLoading
	case s.admission == heartbeat.Unknown:
		return ScreenLoading
	default:
		return ScreenContent
	}
}

func (s *Session) publish() {
	s.version++
	v := &View{
		Token:        s.token,
		Version:      s.version,
		Screen:       s.screen(),
		Snapshot:     s.current,
		Mode:         render.Select(s.current),
		Carousel:     s.carousel,
		Remount:      s.remount,
		Cursor:       s.cursor.Index,
		Slots:        s.current.SlotCount(),
		Stale:        s.stale,
		Admission:    s.admission,
		BusinessName: s.current.BusinessName(),
		Language:     s.current.Language(),
		SessionID:    s.sessionID,
	}
	if s.pending != nil {
		pending := *s.pending
		v.Transition = &pending
	}
	s.view.Store(v)
	if s.opts.OnView != nil {
		s.opts.OnView(*v)
	}
}

func (s *Session) storeStatus() {
	st := &Status{
		Token:          s.token,
		Screen:         s.screen().String(),
		Mode:           render.Select(s.current).String(),
		Admission:      s.admission.String(),
		Cursor:         s.cursor.Index,
		Slots:          s.current.SlotCount(),
		Pinned:         s.opts.pin() >= 0,
		Transitioning:  s.player != nil,
		Failures:       s.backoff.Failures(),
		LastLoad:       s.lastLoad,
		Loads:          s.loads,
		Transitions:    s.transitions,
		Renewals:       s.renewals,
		SlideArmed:     s.slide.armed(),
		CarouselArmed:  s.carTimer.armed(),
		Profile:        string(s.opts.Profile),
		SessionID:      s.sessionID,
		RotationCached: len(s.cache),
	}
	if s.agent != nil {
		st.Heartbeats = s.agent.Sent()
	}
	if s.backoff.Failures() > 0 {
		st.NextRetry = s.backoff.Next().String()
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	s.status.Store(st)
}

// Persistence runs on its own goroutine so a slow database never delays a
// slide timer.

func (s *Session) enqueue(job func(context.Context)) {
	if s.opts.Store == nil {
		return
	}
	select {
	case s.persist <- job:
	default:
		log.Printf("display persistence queue full token=%s", s.token)
	}
}

func (s *Session) persistLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.persist:
			jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
			job(jobCtx)
			cancel()
		}
	}
}

func (s *Session) save(index int, snap *snapshot.Snapshot) {
	s.enqueue(func(ctx context.Context) {
		if err := s.opts.Store.SaveSnapshot(ctx, s.token, index, snap); err != nil {
			log.Printf("display cache save failed token=%s rotation_index=%d error=%v", s.token, index, err)
		}
	})
}

func (s *Session) deleteSaved() {
	s.enqueue(func(ctx context.Context) {
		if err := s.opts.Store.DeleteSnapshots(ctx, s.token); err != nil {
			log.Printf("display cache delete failed token=%s error=%v", s.token, err)
		}
	})
}

func (s *Session) record(kind string, payload map[string]any) {
	s.enqueue(func(ctx context.Context) {
		if err := s.opts.Store.RecordEvent(ctx, s.token, kind, payload); err != nil {
			log.Printf("display event failed token=%s kind=%s error=%v", s.token, kind, err)
		}
	})
}
