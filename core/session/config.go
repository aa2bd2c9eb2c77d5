package session

import "time"

// Config holds the controller's timing parameters. All fields are
// overridable through the environment (see core/config) and fall back to the
// documented defaults when zero.
type Config struct {
	// SessionRetrievalTimeout bounds the startup session restore.
	SessionRetrievalTimeout time.Duration `env:"SESSION_RETRIEVAL_TIMEOUT" envDefault:"10s"`

	// HydrationTimeout bounds each post-auth fetch individually.
	HydrationTimeout time.Duration `env:"SESSION_HYDRATION_TIMEOUT" envDefault:"15s"`

	// SafetyTimeout is the top-level alarm that unconditionally clears the
	// loading flag and marks initialization complete.
	SafetyTimeout time.Duration `env:"SESSION_SAFETY_TIMEOUT" envDefault:"30s"`

	// AuthChangeDebounce collapses rapid successive auth events into one
	// handling pass.
	AuthChangeDebounce time.Duration `env:"SESSION_AUTH_CHANGE_DEBOUNCE" envDefault:"300ms"`

	// BackgroundResetThreshold is the backgrounded duration beyond which
	// pending work is considered stale on resume.
	BackgroundResetThreshold time.Duration `env:"SESSION_BACKGROUND_RESET_THRESHOLD" envDefault:"30s"`

	// ForegroundSafetyDelay is the short post-resume alarm that re-checks
	// the loading flag.
	ForegroundSafetyDelay time.Duration `env:"SESSION_FOREGROUND_SAFETY_DELAY" envDefault:"5s"`
}

// DefaultConfig returns the documented default timings.
func DefaultConfig() Config {
	return Config{
		SessionRetrievalTimeout:  10 * time.Second,
		HydrationTimeout:         15 * time.Second,
		SafetyTimeout:            30 * time.Second,
		AuthChangeDebounce:       300 * time.Millisecond,
		BackgroundResetThreshold: 30 * time.Second,
		ForegroundSafetyDelay:    5 * time.Second,
	}
}

// withDefaults fills zero fields with the documented defaults.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SessionRetrievalTimeout <= 0 {
		c.SessionRetrievalTimeout = def.SessionRetrievalTimeout
	}
	if c.HydrationTimeout <= 0 {
		c.HydrationTimeout = def.HydrationTimeout
	}
	if c.SafetyTimeout <= 0 {
		c.SafetyTimeout = def.SafetyTimeout
	}
	if c.AuthChangeDebounce <= 0 {
		c.AuthChangeDebounce = def.AuthChangeDebounce
	}
	if c.BackgroundResetThreshold <= 0 {
		c.BackgroundResetThreshold = def.BackgroundResetThreshold
	}
	if c.ForegroundSafetyDelay <= 0 {
		c.ForegroundSafetyDelay = def.ForegroundSafetyDelay
	}
	return c
}
