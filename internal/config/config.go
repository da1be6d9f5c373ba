// Package config reads the player daemon's settings from the environment,
// an optional .env file and an optional YAML screens file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Addr                            string   `validate:"required"`
	BackendURL                      string   `validate:"required,url"`
	DeviceName                      string   `validate:"max=64"`
	Screens                         []Screen `validate:"dive"`
	ScreensFile                     string
	PollIntervalSeconds             int    `validate:"min=1"`
	HeartbeatIntervalSeconds        int    `validate:"min=1"`
	HeartbeatBlockedIntervalSeconds int    `validate:"min=1"`
	BackoffBaseMS                   int    `validate:"min=1"`
	BackoffCapMS                    int    `validate:"gtefield=BackoffBaseMS"`
	TransitionMS                    int    `validate:"min=0"`
	RequestTimeoutSeconds           int    `validate:"min=1"`
	Profile                         string `validate:"profile"`
	RotationCache                   bool
	DatabaseURL                     string
	UpgradeURL                      string `validate:"omitempty,url"`
}

func Default() Config {
	return Config{
		Addr:                            ":8080",
		BackendURL:                      "http://localhost:3001",
		PollIntervalSeconds:             60,
		HeartbeatIntervalSeconds:        45,
		HeartbeatBlockedIntervalSeconds: 15,
		BackoffBaseMS:                   2000,
		BackoffCapMS:                    60000,
		TransitionMS:                    1400,
		RequestTimeoutSeconds:           20,
		Profile:                         "normal",
	}
}

// Load applies environment overrides to Default and reads SCREENS_FILE and
// DISPLAY_TOKENS. The result is not validated.
func Load() (Config, error) {
	cfg := Default()
	if raw := os.Getenv("PLAYER_ADDR"); raw != "" {
		cfg.Addr = raw
	}
	if raw := os.Getenv("BACKEND_URL"); raw != "" {
		cfg.BackendURL = strings.TrimRight(raw, "/")
	}
	if raw := os.Getenv("DEVICE_NAME"); raw != "" {
		cfg.DeviceName = raw
	}
	if raw := os.Getenv("POLL_INTERVAL_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.PollIntervalSeconds = value
		}
	}
	if raw := os.Getenv("HEARTBEAT_INTERVAL_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.HeartbeatIntervalSeconds = value
		}
	}
	if raw := os.Getenv("HEARTBEAT_BLOCKED_INTERVAL_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.HeartbeatBlockedIntervalSeconds = value
		}
	}
	if raw := os.Getenv("BACKOFF_BASE_MS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.BackoffBaseMS = value
		}
	}
	if raw := os.Getenv("BACKOFF_CAP_MS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.BackoffCapMS = value
		}
	}
	if raw := os.Getenv("TRANSITION_MS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.TransitionMS = value
		}
	}
	if raw := os.Getenv("REQUEST_TIMEOUT_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.RequestTimeoutSeconds = value
		}
	}
	if raw := os.Getenv("DEVICE_PROFILE"); raw != "" {
		cfg.Profile = strings.ToLower(strings.TrimSpace(raw))
	}
	if raw := os.Getenv("ROTATION_CACHE"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.RotationCache = value
		}
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := os.Getenv("UPGRADE_URL"); raw != "" {
		cfg.UpgradeURL = raw
	}
	if raw := os.Getenv("SCREENS_FILE"); raw != "" {
		cfg.ScreensFile = raw
		screens, err := LoadScreens(raw)
		if err != nil {
			return cfg, err
		}
		cfg.Screens = screens
	}
	if raw := os.Getenv("DISPLAY_TOKENS"); raw != "" {
		cfg.Screens = mergeTokens(cfg.Screens, raw)
	}
	return cfg, nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("profile", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "", "normal", "lite", "low":
				return true
			}
			return false
		})
		_ = validate.RegisterValidation("token", func(fl validator.FieldLevel) bool {
			token := fl.Field().String()
			return token != "" && !strings.ContainsAny(token, "/?# \t")
		})
	})
	return validate
}

// Validate reports every invalid field in one error.
func (c Config) Validate() error {
	err := validatorInstance().Struct(c)
	if err == nil {
		return c.checkDuplicates()
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}

func (c Config) checkDuplicates() error {
	seen := make(map[string]bool, len(c.Screens))
	for _, screen := range c.Screens {
		if seen[screen.Token] {
			return fmt.Errorf("invalid config: screen token %s listed twice", screen.Token)
		}
		seen[screen.Token] = true
	}
	return nil
}

// OpenTokens reports whether any token may be displayed. With no configured
// screens the daemon serves whatever token the kiosk asks for.
func (c Config) OpenTokens() bool {
	return len(c.Screens) == 0
}

// ScreenFor returns the configured screen for token.
func (c Config) ScreenFor(token string) (Screen, bool) {
	for _, screen := range c.Screens {
		if screen.Token == token {
			return screen, true
		}
	}
	return Screen{}, false
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalSeconds) * time.Second
}

func (c Config) HeartbeatBlockedInterval() time.Duration {
	return time.Duration(c.HeartbeatBlockedIntervalSeconds) * time.Second
}

func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMS) * time.Millisecond
}

func (c Config) BackoffCap() time.Duration {
	return time.Duration(c.BackoffCapMS) * time.Millisecond
}

func (c Config) Transition() time.Duration {
	return time.Duration(c.TransitionMS) * time.Millisecond
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
