package player

import (
	"time"

	"signage-player/internal/heartbeat"
	"signage-player/internal/render"
	"signage-player/internal/snapshot"
)

// Screen is what the kiosk shows for a session.
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenContent
	ScreenNotFound
	ScreenBlocked
)

func (s Screen) String() string {
	switch s {
	case ScreenContent:
		return "content"
	case ScreenNotFound:
		return "not_found"
	case ScreenBlocked:
		return "blocked"
	default:
		return "loading"
	}
}

// TransitionView describes a hand-over in progress.
type TransitionView struct {
	From     int
	To       int
	Next     *snapshot.Snapshot
	NextMode render.Mode
	Effect   string
	Duration time.Duration
}

// View is an immutable picture of a session, published after every change.
type View struct {
	Token    string
	Version  uint64
	Screen   Screen
	Snapshot *snapshot.Snapshot
	Mode     render.Mode
	Carousel render.CarouselState
	// Transition is set only while a rotation hand-over is playing.
	Transition *TransitionView
	// Remount changes whenever the same slot was re-fetched and must be
	// drawn from scratch.
	Remount int
	Cursor  int
	Slots   int
	// Stale is set while the last content refresh failed and older content
	// is on screen.
	Stale        bool
	Admission    heartbeat.Admission
	BusinessName string
	Language     string
	SessionID    string
}

// Status is the operator-facing summary of a session.
type Status struct {
	Token          string    `json:"token"`
	Screen         string    `json:"screen"`
	Mode           string    `json:"mode"`
	Admission      string    `json:"admission"`
	Cursor         int       `json:"cursor"`
	Slots          int       `json:"slots"`
	Pinned         bool      `json:"pinned"`
	Transitioning  bool      `json:"transitioning"`
	Failures       int       `json:"consecutive_failures"`
	NextRetry      string    `json:"next_retry,omitempty"`
	LastLoad       time.Time `json:"last_load,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
	Loads          int       `json:"loads"`
	Transitions    int       `json:"transitions"`
	Renewals       int       `json:"renewals"`
	DroppedTicks   int64     `json:"dropped_ticks"`
	Heartbeats     int       `json:"heartbeats"`
	SlideArmed     bool      `json:"slide_timer_armed"`
	CarouselArmed  bool      `json:"carousel_timer_armed"`
	Profile        string    `json:"profile"`
	SessionID      string    `json:"session_id"`
	RotationCached int       `json:"rotation_cached"`
}
