// Package rotation decides which template slot a display shows and when it
// moves on. It holds no timers; the display session arms them from the plans
// returned here.
package rotation

import (
	"time"

	"signage-player/internal/snapshot"
)

const (
	DefaultTransition = 1400 * time.Millisecond
	DefaultEffect     = "fade"
	minSlide          = time.Second
)

// Kind is what happens when the current slide's time is up.
type Kind int

const (
	// Idle: no rotation list, no slide timer.
	Idle Kind = iota
	// Renew: a single slot is re-fetched at the same index and remounted.
	Renew
	// Advance: the next slot is fetched and transitioned in.
	Advance
	// Pinned: a fixed slot that never rotates.
	Pinned
)

func (k Kind) String() string {
	switch k {
	case Renew:
		return "renew"
	case Advance:
		return "advance"
	case Pinned:
		return "pinned"
	default:
		return "idle"
	}
}

// Plan is the scheduling decision for one slide.
type Plan struct {
	Kind  Kind
	Index int
	// Target is the index fetched when Delay elapses.
	Target int
	Delay  time.Duration
}

// Armed reports whether the plan needs a slide timer.
func (p Plan) Armed() bool {
	return p.Kind == Renew || p.Kind == Advance
}

// PlanFor returns the plan for the slide at cursor within snap. A negative
// pin means no pin.
func PlanFor(snap *snapshot.Snapshot, cursor, pin int) Plan {
	n := snap.SlotCount()
	if n == 0 {
		return Plan{Kind: Idle, Index: 0, Target: 0}
	}
	index := snapshot.Clamp(cursor, n)
	if pin >= 0 {
		return Plan{Kind: Pinned, Index: index, Target: index}
	}
	slot, _ := snap.Slot(index)
	delay := SlotDuration(slot.DisplayDuration)
	if n == 1 {
		return Plan{Kind: Renew, Index: index, Target: index, Delay: delay}
	}
	return Plan{Kind: Advance, Index: index, Target: Next(index, n), Delay: delay}
}

// Next returns the slot after index, wrapping to 0.
func Next(index, n int) int {
	if n <= 0 {
		return 0
	}
	return (snapshot.Clamp(index, n) + 1) % n
}

// SlotDuration converts display_duration seconds, flooring at one second.
func SlotDuration(seconds int) time.Duration {
	d := time.Duration(seconds) * time.Second
	if d < minSlide {
		return minSlide
	}
	return d
}

// TransitionSettings resolves the effect and duration of a slide change.
// Forced values come from the device profile and win over everything else.
type TransitionSettings struct {
	Duration      time.Duration
	ForceEffect   string
	ForceDuration time.Duration
}

// Resolve picks the effect name and duration for moving to slot. The name
// is not validated here; unknown names fall back when the effect is looked
// up.
func (s TransitionSettings) Resolve(screen *snapshot.Screen, slot snapshot.Rotation) (string, time.Duration) {
	effect := DefaultEffect
	switch {
	case s.ForceEffect != "":
		effect = s.ForceEffect
	case slot.TransitionEffect != "":
		effect = slot.TransitionEffect
	case screen != nil && screen.TemplateTransitionEffect != "":
		effect = screen.TemplateTransitionEffect
	}

	duration := s.Duration
	if duration <= 0 {
		duration = DefaultTransition
	}
	switch {
	case s.ForceDuration > 0:
		duration = s.ForceDuration
	case slot.TransitionDuration > 0:
		duration = time.Duration(slot.TransitionDuration) * time.Millisecond
	}
	return effect, duration
}

// Cursor is the authoritative index of the slide on screen.
type Cursor struct {
	Index int
}

// Commit moves the cursor to index, as a finished transition does.
func (c *Cursor) Commit(index int) {
	c.Index = index
}

// Fit clamps the cursor to a list of n slots and reports whether it moved.
func (c *Cursor) Fit(n int) bool {
	if n == 0 {
		return false
	}
	clamped := snapshot.Clamp(c.Index, n)
	moved := clamped != c.Index
	c.Index = clamped
	return moved
}
