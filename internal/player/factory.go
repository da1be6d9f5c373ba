package player

import (
	"signage-player/internal/config"
	"signage-player/internal/fetch"
)

// ConfigFactory builds session options from the daemon config. Tokens missing
// from a non-empty screens list are refused. st may be nil.
func ConfigFactory(cfg config.Config, client *fetch.Client, st Store) Factory {
	return func(token string) (Options, error) {
		screen, known := cfg.ScreenFor(token)
		if !known && !cfg.OpenTokens() {
			return Options{}, ErrUnknownToken
		}
		raw := cfg.Profile
		if screen.Profile != "" {
			raw = screen.Profile
		}
		profile, err := ParseProfile(raw)
		if err != nil {
			return Options{}, err
		}
		opts := Options{
			Client:                   client,
			Store:                    st,
			PollInterval:             cfg.PollInterval(),
			HeartbeatInterval:        cfg.HeartbeatInterval(),
			HeartbeatBlockedInterval: cfg.HeartbeatBlockedInterval(),
			BackoffBase:              cfg.BackoffBase(),
			BackoffCap:               cfg.BackoffCap(),
			RequestTimeout:           cfg.RequestTimeout(),
			TransitionDuration:       cfg.Transition(),
			Profile:                  profile,
			RotationCache:            cfg.RotationCache,
		}
		if screen.PinIndex != nil {
			opts.Pinned = true
			opts.PinIndex = *screen.PinIndex
		}
		return opts, nil
	}
}
