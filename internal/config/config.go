package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// ServiceName identifies the collector in operational logs and APM.
const ServiceName = "pdfjs-telemetry"

type Config struct {
	Primary       Primary              `koanf:"primary"`
	Server        ServerConfig         `koanf:"server"`
	Ingest        IngestConfig         `koanf:"ingest"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env      string `koanf:"env" validate:"oneof=development production"`
	LogLevel string `koanf:"loglevel"`
}

type ServerConfig struct {
	Addr         string `koanf:"addr" validate:"hostname_port"`
	CertFile     string `koanf:"certfile" validate:"required_with=KeyFile"`
	KeyFile      string `koanf:"keyfile" validate:"required_with=CertFile"`
	ACMEDir      string `koanf:"acmedir"`
	ReadTimeout  int    `koanf:"readtimeout" validate:"gte=0"`
	WriteTimeout int    `koanf:"writetimeout" validate:"gte=0"`
	IdleTimeout  int    `koanf:"idletimeout" validate:"gte=0"`
}

type IngestConfig struct {
	LogFile string `koanf:"logfile" validate:"required"`
}

// TLS reports whether the public listener should serve HTTPS itself.
func (s ServerConfig) TLS() bool {
	return s.CertFile != "" && s.KeyFile != ""
}

// LoadConfig loads the configuration from PDFJSTEL_* environment variables
// using koanf. Underscores in variable names map to config sections, e.g.
// PDFJSTEL_INGEST_LOGFILE becomes ingest.logfile.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider("PDFJSTEL_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "PDFJSTEL_")), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// fill defaults before validating
	if cfg.Primary.Env == "" {
		cfg.Primary.Env = "development"
	}
	if cfg.Primary.LogLevel == "" {
		cfg.Primary.LogLevel = "info"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8064"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 5
	}

	// Observability is a pointer so we can tell "not configured" from zero
	// values and fall back to the defaults.
	if cfg.Observability == nil {
		cfg.Observability = DefaultObservabilityConfig()
	}
	cfg.Observability.ServiceName = ServiceName
	cfg.Observability.Environment = cfg.Primary.Env
	if cfg.Observability.AppName == "" {
		cfg.Observability.AppName = ServiceName
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if err := cfg.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return cfg, nil
}
