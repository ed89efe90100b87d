// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

// Package service exposes scanner aggregation over an HTTP request/response
// boundary and tracks process-wide liveness counters.
package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/copperfinio/openclawd-llm-guard/internal/scan"
	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
	"github.com/copperfinio/openclawd-llm-guard/pkg/health"
)

// Service runs the input and output scanner sets and keeps process-lifetime
// counters. Counters are plain atomic increments; approximate consistency
// under concurrent scans is acceptable for observability.
type Service struct {
	input  *scan.Set
	output *scan.Set

	inputScans  atomic.Int64
	outputScans atomic.Int64
	startedAt   time.Time
	nowFunc     func() time.Time // for testing
}

// New creates a Service over the given scanner sets. A nil set is a
// construction error: the service fails fast rather than degrading to a
// partial scanner surface.
func New(input, output *scan.Set) (*Service, error) {
	if input == nil || output == nil {
		return nil, guarderr.Errorf(guarderr.CodeServiceConfigInvalid,
			"service requires both input and output scanner sets")
	}
	return &Service{
		input:     input,
		output:    output,
		startedAt: time.Now(),
		nowFunc:   time.Now,
	}, nil
}

// SetNowFunc overrides the time source (for testing).
func (s *Service) SetNowFunc(fn func() time.Time) {
	s.nowFunc = fn
}

// ScanInput scans untrusted external content before it reaches the agent.
func (s *Service) ScanInput(ctx context.Context, req scan.Request) (scan.Verdict, error) {
	verdict, err := s.input.Scan(ctx, req.Content)
	if err != nil {
		slog.Error("input scan failed", "source", req.Source, "error", err)
		return scan.Verdict{}, err
	}
	s.inputScans.Add(1)

	if !verdict.IsValid {
		slog.Warn("threats detected in input content",
			"scan_id", uuid.NewString(),
			"threats", verdict.ThreatsDetected,
			"risk_score", verdict.RiskScore,
			"source", req.Source,
		)
	}
	return verdict, nil
}

// ScanOutput scans agent-authored text before it leaves the system. The
// prompt provides context for leak detection; only the output is rewritten.
func (s *Service) ScanOutput(ctx context.Context, prompt, output string) (scan.Verdict, error) {
	_ = prompt // reserved for context-aware leak scanners

	verdict, err := s.output.Scan(ctx, output)
	if err != nil {
		slog.Error("output scan failed", "error", err)
		return scan.Verdict{}, err
	}
	s.outputScans.Add(1)

	if !verdict.IsValid {
		slog.Warn("threats detected in output content",
			"scan_id", uuid.NewString(),
			"threats", verdict.ThreatsDetected,
			"risk_score", verdict.RiskScore,
		)
	}
	return verdict, nil
}

// Health returns the liveness snapshot. The service reports healthy
// whenever it is running: scanner construction failures are fatal at
// startup, so a live process implies an initialized scanner set.
func (s *Service) Health() health.Status {
	return health.Status{
		Status:             "healthy",
		InputScannerCount:  s.input.Len(),
		OutputScannerCount: s.output.Len(),
		UptimeSeconds:      s.nowFunc().Sub(s.startedAt).Seconds(),
		ScansCompleted: health.Counts{
			Input:  s.inputScans.Load(),
			Output: s.outputScans.Load(),
		},
		Timestamp: health.Now(),
	}
}
