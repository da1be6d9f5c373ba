package player

import (
	"context"
	"fmt"
	"strings"
	"time"

	"signage-player/internal/clock"
	"signage-player/internal/fetch"
	"signage-player/internal/heartbeat"
	"signage-player/internal/rotation"
	"signage-player/internal/snapshot"
)

// Store persists what a session wants to survive a restart. All methods may
// be slow; the session calls them off its event loop.
type Store interface {
	heartbeat.IDStore
	SaveSnapshot(ctx context.Context, token string, index int, snap *snapshot.Snapshot) error
	LatestSnapshot(ctx context.Context, token string) (*snapshot.Snapshot, error)
	DeleteSnapshots(ctx context.Context, token string) error
	RecordEvent(ctx context.Context, token, kind string, payload map[string]any) error
}

// Profile adapts transitions and browser lifetime to weak hardware.
type Profile string

const (
	ProfileNormal Profile = "normal"
	ProfileLite   Profile = "lite"
	ProfileLow    Profile = "low"
)

// ParseProfile accepts normal, lite and low. An empty string is normal.
func ParseProfile(raw string) (Profile, error) {
	switch p := Profile(strings.ToLower(strings.TrimSpace(raw))); p {
	case "", ProfileNormal:
		return ProfileNormal, nil
	case ProfileLite, ProfileLow:
		return p, nil
	default:
		return "", fmt.Errorf("unknown device profile %q", raw)
	}
}

// Transition returns the forced effect and duration for the profile.
func (p Profile) Transition() (effect string, duration time.Duration) {
	switch p {
	case ProfileLite:
		return "slide-left", 5 * time.Second
	case ProfileLow:
		return "", 300 * time.Millisecond
	default:
		return "", 0
	}
}

// ReloadEvery is how often the kiosk browser is told to reload itself.
func (p Profile) ReloadEvery() time.Duration {
	switch p {
	case ProfileLite:
		return 10 * time.Minute
	case ProfileLow:
		return 5 * time.Minute
	default:
		return 0
	}
}

// Options configures one display session.
type Options struct {
	Token  string
	Client *fetch.Client
	Clock  clock.Clock
	Store  Store

	PollInterval             time.Duration
	HeartbeatInterval        time.Duration
	HeartbeatBlockedInterval time.Duration
	BackoffBase              time.Duration
	BackoffCap               time.Duration
	RequestTimeout           time.Duration
	TransitionDuration       time.Duration
	Profile                  Profile

	// Pinned shows rotation slot PinIndex without rotating.
	Pinned        bool
	PinIndex      int
	RotationCache bool

	// OnView receives every published view on the session's event loop. It
	// must not block.
	OnView func(View)
	// OnReload is called when the profile asks the browser to reload.
	OnReload func(token string)
}

func (o *Options) defaults() {
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 60 * time.Second
	}
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 45 * time.Second
	}
	if o.HeartbeatBlockedInterval <= 0 {
		o.HeartbeatBlockedInterval = 15 * time.Second
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = 2 * time.Second
	}
	if o.BackoffCap <= 0 {
		o.BackoffCap = 60 * time.Second
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 20 * time.Second
	}
	if o.TransitionDuration <= 0 {
		o.TransitionDuration = rotation.DefaultTransition
	}
	if o.Profile == "" {
		o.Profile = ProfileNormal
	}
}

func (o Options) pin() int {
	if !o.Pinned {
		return -1
	}
	if o.PinIndex < 0 {
		return 0
	}
	return o.PinIndex
}

func (o Options) transitionSettings() rotation.TransitionSettings {
	effect, duration := o.Profile.Transition()
	return rotation.TransitionSettings{
		Duration:      o.TransitionDuration,
		ForceEffect:   effect,
		ForceDuration: duration,
	}
}
