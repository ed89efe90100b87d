// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package config

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
	"github.com/copperfinio/openclawd-llm-guard/pkg/types"
)

// Config is the top-level guard configuration.
type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Scanners ScannersConfig `mapstructure:"scanners"`
	Tools    ToolsConfig    `mapstructure:"tools"`
}

// ServiceConfig controls the scan service endpoint.
type ServiceConfig struct {
	Listen      string   `mapstructure:"listen"`
	URL         string   `mapstructure:"url"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// ScanConfig controls the resilient client.
type ScanConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	HealthTTL       time.Duration `mapstructure:"health_ttl"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
	FallbackOnError bool          `mapstructure:"fallback_on_error"`
}

// ScannersConfig controls scanner set construction.
type ScannersConfig struct {
	InjectionThreshold float64          `mapstructure:"injection_threshold"`
	BannedTerms        []string         `mapstructure:"banned_terms"`
	SecretPatterns     []string         `mapstructure:"secret_patterns"`
	Classifier         ClassifierConfig `mapstructure:"classifier"`
}

// ClassifierConfig selects the classification capability backend.
type ClassifierConfig struct {
	Backend string `mapstructure:"backend"`
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
}

// ToolsConfig holds the per-tool mediation policies.
type ToolsConfig struct {
	Fetch   ToolConfig `mapstructure:"fetch"`
	Browser ToolConfig `mapstructure:"browser"`
	Read    ToolConfig `mapstructure:"read"`
}

// ToolConfig is one tool's mediation policy as configured.
type ToolConfig struct {
	Mode         string        `mapstructure:"mode"`
	Timeout      time.Duration `mapstructure:"timeout"`
	TrustedPaths []string      `mapstructure:"trusted_paths"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix LLMGUARD_).
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("LLMGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, guarderr.Errorf(guarderr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, guarderr.Errorf(guarderr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, guarderr.Errorf(guarderr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// SetDefaults installs the default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("service.listen", "127.0.0.1:8765")
	v.SetDefault("service.url", "http://127.0.0.1:8765")
	v.SetDefault("scan.timeout", 5*time.Second)
	v.SetDefault("scan.health_ttl", 30*time.Second)
	v.SetDefault("scan.probe_timeout", 2*time.Second)
	v.SetDefault("scan.fallback_on_error", true)
	v.SetDefault("scanners.injection_threshold", 0.8)
	v.SetDefault("scanners.classifier.backend", "heuristic")
	v.SetDefault("tools.fetch.mode", "block")
	v.SetDefault("tools.browser.mode", "warn")
	v.SetDefault("tools.browser.timeout", 30*time.Second)
	v.SetDefault("tools.read.mode", "warn")
}

// Validate checks the configuration for logical errors. It returns a slice
// of all validation errors found, collecting all issues rather than stopping
// at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateService()...)
	errs = append(errs, c.validateScan()...)
	errs = append(errs, c.validateScanners()...)
	errs = append(errs, c.validateTools()...)

	return errs
}

func (c *Config) validateService() []error {
	var errs []error

	if c.Service.Listen == "" {
		errs = append(errs, guarderr.New(guarderr.CodeConfigValidateInvalidValue,
			"config: service.listen must not be empty"))
	} else {
		_, portStr, err := net.SplitHostPort(c.Service.Listen)
		if err != nil {
			errs = append(errs, guarderr.Errorf(guarderr.CodeConfigValidateInvalidValue,
				"config: service.listen must be a valid host:port address, got %q: %w",
				c.Service.Listen, err,
			))
		} else {
			port, err := strconv.Atoi(portStr)
			if err != nil || port < 1 || port > 65535 {
				errs = append(errs, guarderr.Errorf(guarderr.CodeConfigValidateInvalidValue,
					"config: service.listen port must be between 1 and 65535, got %q", portStr))
			}
		}
	}

	if c.Service.URL == "" {
		errs = append(errs, guarderr.New(guarderr.CodeConfigValidateInvalidValue,
			"config: service.url must not be empty"))
	} else {
		u, err := url.Parse(c.Service.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, guarderr.Errorf(guarderr.CodeConfigValidateInvalidValue,
				"config: service.url must be an http(s) URL, got %q", c.Service.URL))
		}
	}

	return errs
}

func (c *Config) validateScan() []error {
	var errs []error

	check := func(name string, d time.Duration) {
		if d <= 0 {
			errs = append(errs, guarderr.Errorf(guarderr.CodeConfigValidateInvalidValue,
				"config: scan.%s must be positive, got %s", name, d))
		}
	}
	check("timeout", c.Scan.Timeout)
	check("health_ttl", c.Scan.HealthTTL)
	check("probe_timeout", c.Scan.ProbeTimeout)

	return errs
}

func (c *Config) validateScanners() []error {
	var errs []error

	if t := c.Scanners.InjectionThreshold; t <= 0 || t > 1 {
		errs = append(errs, guarderr.Errorf(guarderr.CodeConfigValidateInvalidValue,
			"config: scanners.injection_threshold must be in (0, 1], got %g", t))
	}

	switch c.Scanners.Classifier.Backend {
	case "heuristic":
	case "anthropic":
		if c.Scanners.Classifier.APIKey == "" {
			errs = append(errs, guarderr.New(guarderr.CodeConfigValidateInvalidValue,
				"config: scanners.classifier.api_key is required for the anthropic backend"))
		}
	default:
		errs = append(errs, guarderr.Errorf(guarderr.CodeConfigValidateInvalidValue,
			"config: scanners.classifier.backend must be one of [heuristic, anthropic], got %q",
			c.Scanners.Classifier.Backend))
	}

	return errs
}

func (c *Config) validateTools() []error {
	var errs []error

	tools := []struct {
		name string
		cfg  ToolConfig
	}{
		{"fetch", c.Tools.Fetch},
		{"browser", c.Tools.Browser},
		{"read", c.Tools.Read},
	}

	for _, t := range tools {
		if _, err := types.ParseMode(t.cfg.Mode); err != nil {
			errs = append(errs, guarderr.Errorf(guarderr.CodeConfigValidateInvalidValue,
				"config: tools.%s.mode must be one of [block, warn], got %q", t.name, t.cfg.Mode))
		}
		if t.cfg.Timeout < 0 {
			errs = append(errs, guarderr.Errorf(guarderr.CodeConfigValidateInvalidValue,
				"config: tools.%s.timeout must not be negative, got %s", t.name, t.cfg.Timeout))
		}
		// Trusted-path bypass only applies to the file-read tool; reject it
		// elsewhere rather than silently ignoring.
		if t.name != "read" && len(t.cfg.TrustedPaths) > 0 {
			errs = append(errs, guarderr.Errorf(guarderr.CodeConfigValidateInvalidValue,
				"config: tools.%s.trusted_paths is only supported for the read tool", t.name))
		}
	}

	return errs
}
