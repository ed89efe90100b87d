// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

// Package client is the resilient HTTP client for the scan service. It
// caches service health so mediation decisions do not pay a probe round-trip
// per request, and converts transport failures into the unavailable/failure
// taxonomy the mediation policy branches on.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/copperfinio/openclawd-llm-guard/internal/scan"
	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
	"github.com/copperfinio/openclawd-llm-guard/pkg/health"
)

const (
	// DefaultHealthTTL bounds how stale a cached health observation may be
	// before the next check re-probes. The TTL trades up to 30s of believing
	// a recovered service is still down (or vice versa) against a probe per
	// scan; that staleness is deliberate.
	DefaultHealthTTL = 30 * time.Second
	// DefaultProbeTimeout bounds the liveness probe round-trip.
	DefaultProbeTimeout = 2 * time.Second
	// DefaultScanTimeout bounds a single scan call.
	DefaultScanTimeout = 5 * time.Second
)

// Options configures a Client. Zero values select the defaults above.
type Options struct {
	HealthTTL    time.Duration
	ProbeTimeout time.Duration
	ScanTimeout  time.Duration
	HTTPClient   *http.Client
}

// Client talks to the scan service. The health cache is owned exclusively
// by the instance; construct one per process and inject it at every call
// site rather than sharing module-level state.
type Client struct {
	baseURL      string
	http         *http.Client
	healthTTL    time.Duration
	probeTimeout time.Duration
	scanTimeout  time.Duration

	mu         sync.Mutex
	healthy    bool
	observedAt time.Time
	probed     bool

	nowFunc func() time.Time // for testing
}

// New creates a Client for the scan service at baseURL.
func New(baseURL string, opts Options) (*Client, error) {
	if baseURL == "" {
		return nil, guarderr.New(guarderr.CodeConfigValidateInvalidValue,
			"scan service URL is required")
	}
	if opts.HealthTTL == 0 {
		opts.HealthTTL = DefaultHealthTTL
	}
	if opts.ProbeTimeout == 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.ScanTimeout == 0 {
		opts.ScanTimeout = DefaultScanTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Client{
		baseURL:      baseURL,
		http:         opts.HTTPClient,
		healthTTL:    opts.HealthTTL,
		probeTimeout: opts.ProbeTimeout,
		scanTimeout:  opts.ScanTimeout,
		nowFunc:      time.Now,
	}, nil
}

// SetNowFunc overrides the time source (for testing).
func (c *Client) SetNowFunc(fn func() time.Time) {
	c.mu.Lock()
	c.nowFunc = fn
	c.mu.Unlock()
}

// IsHealthy reports whether the scan service is believed to be live. Within
// the TTL the cached observation is returned unchanged; after expiry a
// liveness probe runs and its outcome is cached unconditionally, so a down
// service is not hammered with probes.
func (c *Client) IsHealthy(ctx context.Context) bool {
	c.mu.Lock()
	now := c.nowFunc()
	if c.probed && now.Sub(c.observedAt) < c.healthTTL {
		healthy := c.healthy
		c.mu.Unlock()
		return healthy
	}
	c.mu.Unlock()

	healthy := c.probe(ctx)

	c.mu.Lock()
	c.healthy = healthy
	c.observedAt = c.nowFunc()
	c.probed = true
	c.mu.Unlock()

	return healthy
}

// probe issues a single liveness check. Any failure (timeout, refused
// connection, non-success status, unhealthy body) counts as unhealthy.
func (c *Client) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var status health.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false
	}
	return status.Healthy()
}

// Health returns the full liveness snapshot, bypassing the cache.
func (c *Client) Health(ctx context.Context) (health.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return health.Status{}, guarderr.Wrap(err, guarderr.CodeClientScanUnavailable, "building health request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return health.Status{}, guarderr.Wrap(err, guarderr.CodeClientScanUnavailable, "health probe failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return health.Status{}, guarderr.New(guarderr.CodeClientScanFailure,
			"health probe returned error status", guarderr.FieldStatus(resp.StatusCode))
	}

	var status health.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return health.Status{}, guarderr.Wrap(err, guarderr.CodeClientResponseInvalid, "decoding health response")
	}
	return status, nil
}

// ScanInput submits untrusted content for scanning. Timeouts and transport
// failures surface as client.scan.unavailable; a reachable service that
// returns an error status surfaces as client.scan.failure with the status
// embedded. An aborted scan is never reported as clean.
func (c *Client) ScanInput(ctx context.Context, content, source, contentType string) (scan.Verdict, error) {
	return c.postScan(ctx, "/scan/input", scan.Request{
		Content:     content,
		Source:      source,
		ContentType: contentType,
	})
}

// ScanOutput submits agent-authored text for leak scanning.
func (c *Client) ScanOutput(ctx context.Context, prompt, output string) (scan.Verdict, error) {
	return c.postScan(ctx, "/scan/output", struct {
		Prompt string `json:"prompt"`
		Output string `json:"output"`
	}{Prompt: prompt, Output: output})
}

func (c *Client) postScan(ctx context.Context, path string, payload any) (scan.Verdict, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return scan.Verdict{}, guarderr.Wrap(err, guarderr.CodeClientScanFailure, "encoding scan request")
	}

	ctx, cancel := context.WithTimeout(ctx, c.scanTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return scan.Verdict{}, guarderr.Wrap(err, guarderr.CodeClientScanUnavailable, "building scan request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return scan.Verdict{}, guarderr.Wrap(err, guarderr.CodeClientScanUnavailable,
			"scan service unreachable", guarderr.Field("path", path))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return scan.Verdict{}, guarderr.New(guarderr.CodeClientScanFailure,
			"scan service returned error status",
			guarderr.FieldStatus(resp.StatusCode),
			guarderr.Field("body", string(raw)),
		)
	}

	var verdict scan.Verdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return scan.Verdict{}, guarderr.Wrap(err, guarderr.CodeClientResponseInvalid, "decoding scan verdict")
	}
	return verdict, nil
}
