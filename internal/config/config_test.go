// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperfinio/openclawd-llm-guard/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8765", cfg.Service.Listen)
	assert.Equal(t, "http://127.0.0.1:8765", cfg.Service.URL)
	assert.Equal(t, 5*time.Second, cfg.Scan.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Scan.HealthTTL)
	assert.Equal(t, 2*time.Second, cfg.Scan.ProbeTimeout)
	assert.True(t, cfg.Scan.FallbackOnError)
	assert.Equal(t, 0.8, cfg.Scanners.InjectionThreshold)
	assert.Equal(t, "heuristic", cfg.Scanners.Classifier.Backend)
	assert.Equal(t, "block", cfg.Tools.Fetch.Mode)
	assert.Equal(t, "warn", cfg.Tools.Browser.Mode)
	assert.Equal(t, 30*time.Second, cfg.Tools.Browser.Timeout)
	assert.Equal(t, "warn", cfg.Tools.Read.Mode)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
service:
  listen: "0.0.0.0:9000"
scanners:
  injection_threshold: 0.6
  banned_terms:
    - project falcon
tools:
  read:
    mode: block
    trusted_paths:
      - /workspace/
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Service.Listen)
	assert.Equal(t, 0.6, cfg.Scanners.InjectionThreshold)
	assert.Equal(t, []string{"project falcon"}, cfg.Scanners.BannedTerms)
	assert.Equal(t, "block", cfg.Tools.Read.Mode)
	assert.Equal(t, []string{"/workspace/"}, cfg.Tools.Read.TrustedPaths)
	// Untouched sections keep their defaults.
	assert.Equal(t, "block", cfg.Tools.Fetch.Mode)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/guard.yaml")
	assert.Error(t, err)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "bad listen address",
			yaml: "service:\n  listen: \"not-an-address\"\n",
		},
		{
			name: "port out of range",
			yaml: "service:\n  listen: \"127.0.0.1:99999\"\n",
		},
		{
			name: "bad service url",
			yaml: "service:\n  url: \"ftp://example.com\"\n",
		},
		{
			name: "zero scan timeout",
			yaml: "scan:\n  timeout: 0s\n",
		},
		{
			name: "threshold above one",
			yaml: "scanners:\n  injection_threshold: 1.5\n",
		},
		{
			name: "unknown classifier backend",
			yaml: "scanners:\n  classifier:\n    backend: oracle\n",
		},
		{
			name: "anthropic backend without key",
			yaml: "scanners:\n  classifier:\n    backend: anthropic\n",
		},
		{
			name: "bad tool mode",
			yaml: "tools:\n  fetch:\n    mode: audit\n",
		},
		{
			name: "trusted paths on fetch",
			yaml: "tools:\n  fetch:\n    trusted_paths:\n      - /workspace/\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &config.Config{} // zero values everywhere

	errs := cfg.Validate()
	assert.GreaterOrEqual(t, len(errs), 4,
		"validation reports every problem, not just the first")
}
