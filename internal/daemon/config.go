// Package daemon implements the hot-corner daemon: the sampling loop, the
// config watcher and the in-process control surface.
package daemon

import (
	"time"

	"github.com/firecorners/cornerd/internal/domain"
)

// Config holds daemon runtime configuration.
type Config struct {
	ActiveInterval      time.Duration // Sampling period while inside a corner zone
	IdleInterval        time.Duration // Sampling period while idle
	ConfigCheckInterval time.Duration // How often to stat the config file
	BackoffAfter        int           // Consecutive sample failures before backing off
	BackoffInterval     time.Duration // Sampling period while backing off
	ActionTimeout       time.Duration // Bound on a single action run
	StopGrace           time.Duration // How long Run waits for in-flight actions on stop

	SkipSelfTest bool
	Overrides    SettingsOverride

	// ExecPath is written into the login item. Empty disables login item sync.
	ExecPath   string
	AppVersion string
}

// DefaultConfig returns default daemon configuration.
func DefaultConfig() Config {
	return Config{
		ActiveInterval:      50 * time.Millisecond,
		IdleInterval:        100 * time.Millisecond,
		ConfigCheckInterval: 5 * time.Second,
		BackoffAfter:        3,
		BackoffInterval:     time.Second,
		ActionTimeout:       60 * time.Second,
		StopGrace:           5 * time.Second,
	}
}

// SettingsOverride carries process-level overrides of document settings.
// Nil fields leave the document value alone.
type SettingsOverride struct {
	Threshold *int
	Dwell     *domain.Seconds
	Cooldown  *domain.Seconds
}

// IsZero reports whether no override is set.
func (o SettingsOverride) IsZero() bool {
	return o.Threshold == nil && o.Dwell == nil && o.Cooldown == nil
}

// Apply returns s with the overrides applied.
func (o SettingsOverride) Apply(s domain.Settings) domain.Settings {
	if o.Threshold != nil {
		s.Threshold = *o.Threshold
	}
	if o.Dwell != nil {
		s.Dwell = *o.Dwell
	}
	if o.Cooldown != nil {
		s.Cooldown = *o.Cooldown
	}
	return s
}

// Validate checks the overridden values are in range.
func (o SettingsOverride) Validate() error {
	return o.Apply(domain.DefaultSettings()).Validate()
}
