package config

import (
	"fmt"
	"net"
)

// newRelicLicenseLength is the fixed length the agent accepts.
const newRelicLicenseLength = 40

// ObservabilityConfig controls the optional APM agent and the metrics
// listener. ServiceName and Environment are filled from the main config
// after loading.
type ObservabilityConfig struct {
	ServiceName string `koanf:"-"`
	Environment string `koanf:"-"`
	AppName     string `koanf:"appname"`
	License     string `koanf:"license"`
	MetricsAddr string `koanf:"metricsaddr"`
}

// DefaultObservabilityConfig returns the config used when no observability
// variables are set: APM disabled, metrics listener disabled.
func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{}
}

// Enabled reports whether the APM agent should start.
func (c *ObservabilityConfig) Enabled() bool {
	return c != nil && c.License != ""
}

// Validate checks the fields that would otherwise fail at connect time.
func (c *ObservabilityConfig) Validate() error {
	if c == nil {
		return nil
	}
	if c.License != "" && len(c.License) != newRelicLicenseLength {
		return fmt.Errorf("license key must be %d characters, got %d", newRelicLicenseLength, len(c.License))
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return fmt.Errorf("metrics addr: %w", err)
		}
	}
	return nil
}
