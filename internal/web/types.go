package web

import (
	"time"

	"signage-player/internal/render"
	"signage-player/internal/snapshot"
)

// Display screens.
const (
	ScreenLoading  = "loading"
	ScreenContent  = "content"
	ScreenNotFound = "not_found"
	ScreenBlocked  = "blocked"
)

// Slide is one fully resolved visual: the snapshot plus the render mode
// chosen for it.
type Slide struct {
	Key      string
	Mode     render.Mode
	Snapshot *snapshot.Snapshot
	Carousel render.CarouselState
}

// DisplayState is everything the kiosk page needs for one frame.
type DisplayState struct {
	Token        string
	Version      uint64
	Screen       string
	Lang         string
	BusinessName string
	UpgradeURL   string
	RefreshURL   string
	Stale        bool

	Current Slide
	// Next is set while a transition is playing.
	Next           *Slide
	Effect         string
	TransitionTime time.Duration
}

// StatusRow is one line of the operator status page.
type StatusRow struct {
	Token         string
	Screen        string
	Mode          string
	Admission     string
	Cursor        int
	Slots         int
	Pinned        bool
	Transitioning bool
	Failures      int
	NextRetry     string
	LastLoad      time.Time
	LastError     string
	Loads         int
	Transitions   int
	DroppedTicks  int64
	Heartbeats    int
	Profile       string
}
